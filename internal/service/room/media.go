package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/relay"
	"github.com/sharetube/audiosync/pkg/ytvideodata"
)

type LoadYouTubeParams struct {
	RoomID string
	UserID string
	// VideoID may be empty, in which case it is parsed from URL.
	VideoID string
	URL     string
}

func (s service) LoadYouTube(ctx context.Context, params *LoadYouTubeParams) (domain.Room, error) {
	if err := requireIDs(params.RoomID, params.UserID); err != nil {
		return domain.Room{}, err
	}

	videoID := params.VideoID
	if videoID == "" {
		id, err := ytvideodata.ParseVideoId(params.URL)
		if err != nil {
			return domain.Room{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		videoID = id
	}

	media, err := domain.NewYouTubeMedia(videoID, params.URL, "")
	if err != nil {
		return domain.Room{}, err
	}

	return s.loadMedia(ctx, params.RoomID, params.UserID, media)
}

type LoadLocalParams struct {
	RoomID   string
	UserID   string
	URL      string
	FileName string
}

func (s service) LoadLocal(ctx context.Context, params *LoadLocalParams) (domain.Room, error) {
	if err := requireIDs(params.RoomID, params.UserID); err != nil {
		return domain.Room{}, err
	}

	media, err := domain.NewLocalMedia(params.URL, params.FileName)
	if err != nil {
		return domain.Room{}, err
	}

	return s.loadMedia(ctx, params.RoomID, params.UserID, media)
}

func (s service) loadMedia(ctx context.Context, roomID, userID string, media domain.Media) (domain.Room, error) {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}

	now := s.now()
	room, err = s.touch(ctx, room, userID, now)
	if err != nil {
		return domain.Room{}, err
	}

	if !room.IsHost(userID) {
		return domain.Room{}, ErrForbidden
	}

	if media.Type == domain.MediaTypeYouTube {
		media.Title = s.lookupTitle(ctx, media.VideoID)
	}

	room, err = room.LoadMedia(media, userID, now)
	if err != nil {
		return domain.Room{}, err
	}

	if err := s.setRoom(ctx, room); err != nil {
		return domain.Room{}, err
	}

	slog.InfoContext(ctx, "media loaded", "room_id", room.ID, "type", media.Type, "seq", room.Playback.Seq)
	s.publish(ctx, room, relay.EventMediaLoaded, userID)

	return room, nil
}

// lookupTitle is best effort. A failed lookup leaves the title empty.
func (s service) lookupTitle(ctx context.Context, videoID string) string {
	if s.videoData == nil {
		return ""
	}

	data, err := s.videoData.Get(ctx, videoID)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		slog.Log(ctx, level, "failed to get video data", "video_id", videoID, "error", err)
		return ""
	}

	return data.Title
}
