package ytvideodata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVideoId(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://music.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}
	for _, tc := range cases {
		got, err := ParseVideoId(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, in := range []string{"", "https://vimeo.com/123", "https://www.youtube.com/watch?v=short", "not a url"} {
		_, err := ParseVideoId(in)
		assert.ErrorIs(t, err, ErrInvalidVideoURL, in)
	}
}

func TestGetFallsBackToPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/page/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Song - YouTube</title><link itemprop="name" content="Artist"></head></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New()
	c.oembedURL = srv.URL + "/oembed"
	c.pageURL = srv.URL + "/page/"

	data, err := c.Get(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Song - YouTube", data.Title)
	assert.Equal(t, "Artist", data.AuthorName)
}

func TestGetWithEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", r.URL.Query().Get("url"))
		w.Write([]byte(`{"title":"Song","author_name":"Artist","thumbnail_url":"thumb"}`))
	}))
	defer srv.Close()

	c := New()
	c.oembedURL = srv.URL

	data, err := c.Get(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Song", data.Title)
}
