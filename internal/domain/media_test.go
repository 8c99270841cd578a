package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalMedia(t *testing.T) {
	m, err := NewLocalMedia("https://cdn.example/a.mp3", "")
	require.NoError(t, err)
	assert.Equal(t, MediaTypeLocal, m.Type)
	assert.Equal(t, DefaultLocalFileName, m.FileName)
	assert.Equal(t, DefaultLocalFileName, m.DisplayName())

	_, err = NewLocalMedia("", "a.mp3")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, err, ErrInvalidMedia)
}

func TestNewYouTubeMedia(t *testing.T) {
	m, err := NewYouTubeMedia("xyz", "https://youtu.be/xyz", "")
	require.NoError(t, err)
	assert.Equal(t, "YouTube: xyz", m.DisplayName())

	m.Title = "Song"
	assert.Equal(t, "Song", m.DisplayName())

	_, err = NewYouTubeMedia("", "https://youtu.be/xyz", "")
	assert.ErrorIs(t, err, ErrInvalidMedia)
}

func TestMediaValidateRejectsMixedVariants(t *testing.T) {
	err := Media{Type: MediaTypeLocal, URL: "u", VideoID: "xyz"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidMedia)

	err = Media{Type: MediaTypeYouTube, URL: "u", VideoID: "xyz", FileName: "f"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidMedia)

	err = Media{Type: "vimeo", URL: "u"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidMedia)
}
