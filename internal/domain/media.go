package domain

import (
	"fmt"
	"strings"
)

type MediaType string

const (
	MediaTypeLocal   MediaType = "local"
	MediaTypeYouTube MediaType = "youtube"
)

const DefaultLocalFileName = "Shared audio"

// Media is a tagged union keyed by Type: local media carries URL and FileName,
// youtube media carries VideoID and URL. Title is optional youtube metadata.
type Media struct {
	Type      MediaType `json:"type"`
	URL       string    `json:"url"`
	FileName  string    `json:"fileName,omitempty"`
	VideoID   string    `json:"videoId,omitempty"`
	Title     string    `json:"title,omitempty"`
	UpdatedAt int64     `json:"updatedAt"`
	ActorID   string    `json:"actorId"`
}

func NewLocalMedia(url, fileName string) (Media, error) {
	if strings.TrimSpace(fileName) == "" {
		fileName = DefaultLocalFileName
	}

	m := Media{
		Type:     MediaTypeLocal,
		URL:      url,
		FileName: fileName,
	}

	return m, m.Validate()
}

func NewYouTubeMedia(videoID, url, title string) (Media, error) {
	m := Media{
		Type:    MediaTypeYouTube,
		URL:     url,
		VideoID: videoID,
		Title:   title,
	}

	return m, m.Validate()
}

func (m Media) Validate() error {
	switch m.Type {
	case MediaTypeLocal:
		if m.URL == "" {
			return fmt.Errorf("%w: %w: local media requires url", ErrInvalidArgument, ErrInvalidMedia)
		}
		if m.VideoID != "" {
			return fmt.Errorf("%w: %w: local media cannot carry a videoId", ErrInvalidArgument, ErrInvalidMedia)
		}
	case MediaTypeYouTube:
		if m.VideoID == "" || m.URL == "" {
			return fmt.Errorf("%w: %w: youtube media requires videoId and url", ErrInvalidArgument, ErrInvalidMedia)
		}
		if m.FileName != "" {
			return fmt.Errorf("%w: %w: youtube media cannot carry a fileName", ErrInvalidArgument, ErrInvalidMedia)
		}
	default:
		return fmt.Errorf("%w: %w: unknown media type %q", ErrInvalidArgument, ErrInvalidMedia, m.Type)
	}

	return nil
}

// DisplayName is what listeners see as "now playing".
func (m Media) DisplayName() string {
	switch m.Type {
	case MediaTypeLocal:
		return m.FileName
	case MediaTypeYouTube:
		if m.Title != "" {
			return m.Title
		}
		return "YouTube: " + m.VideoID
	}

	return ""
}
