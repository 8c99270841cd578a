package ytvideodata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type VideoData struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

type Client struct {
	httpClient *http.Client
	oembedURL  string
	pageURL    string
}

func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		oembedURL:  "https://www.youtube.com/oembed",
		pageURL:    "https://youtu.be/",
	}
}

// Get looks the video up through oEmbed and falls back to scraping the watch page
// when the video is not embeddable.
func (c *Client) Get(ctx context.Context, videoId string) (*VideoData, error) {
	videoData, err := c.getVideoWithEmbed(ctx, videoId)
	if err != nil {
		if !errors.Is(err, ErrVideoNotEmbeddable) {
			return nil, fmt.Errorf("failed to get video data with embed: %w", err)
		}

		videoData, err = c.getFromPage(ctx, videoId)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	return videoData, nil
}
