package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharetube/audiosync/internal/domain"
)

const DefaultPollInterval = 2 * time.Second

// Player receives the effects of reconciliation. Both methods are called
// from the Syncer's loop only.
type Player interface {
	// Apply performs the transport transition for a snapshot with a newer seq.
	Apply(ctx context.Context, room domain.Room)
	// Refresh updates membership and media display. It runs on every snapshot.
	Refresh(ctx context.Context, room domain.Room)
}

type SyncerConfig struct {
	RoomID       string
	UserID       string
	PollInterval time.Duration
	// RetryInterval is how long to wait before reopening a dropped hint stream.
	RetryInterval time.Duration
}

type command func(ctx context.Context) (domain.Room, error)

type request struct {
	cmd  command
	resp chan error
}

// Syncer keeps one client in step with a room. Polls, hints and command
// responses all funnel into a single loop that owns the Reconciler, so the
// Player sees snapshots one at a time.
type Syncer struct {
	client     *Client
	player     Player
	cfg        SyncerConfig
	reconciler *domain.Reconciler
	logger     *slog.Logger
	requests   chan request
}

func NewSyncer(client *Client, player Player, cfg SyncerConfig, logger *slog.Logger) *Syncer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = time.Second
	}

	return &Syncer{
		client:     client,
		player:     player,
		cfg:        cfg,
		reconciler: domain.NewReconciler(-1),
		logger:     logger.With("room_id", cfg.RoomID, "user_id", cfg.UserID),
		requests:   make(chan request),
	}
}

// Run blocks until ctx is done or the room disappears, in which case it
// returns ErrRoomNotFound.
func (s *Syncer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	refresh := make(chan struct{}, 1)
	go s.listen(ctx, refresh)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	if err := s.sync(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.sync(ctx); err != nil {
				return err
			}
		case <-refresh:
			if err := s.sync(ctx); err != nil {
				return err
			}
		case req := <-s.requests:
			room, err := req.cmd(ctx)
			if err == nil {
				s.observe(ctx, room)
			}
			req.resp <- err
		}
	}
}

// Control issues a transport action through the loop. The response goes
// through reconciliation like any other snapshot.
func (s *Syncer) Control(ctx context.Context, action domain.Action) error {
	return s.submit(ctx, func(ctx context.Context) (domain.Room, error) {
		return s.client.Control(ctx, s.cfg.RoomID, s.cfg.UserID, action)
	})
}

func (s *Syncer) LoadYouTube(ctx context.Context, videoURL string) error {
	return s.submit(ctx, func(ctx context.Context) (domain.Room, error) {
		return s.client.LoadYouTube(ctx, s.cfg.RoomID, s.cfg.UserID, videoURL)
	})
}

func (s *Syncer) LoadLocal(ctx context.Context, mediaURL, fileName string) error {
	return s.submit(ctx, func(ctx context.Context) (domain.Room, error) {
		return s.client.LoadLocal(ctx, s.cfg.RoomID, s.cfg.UserID, mediaURL, fileName)
	})
}

func (s *Syncer) submit(ctx context.Context, cmd command) error {
	req := request{cmd: cmd, resp: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Syncer) sync(ctx context.Context) error {
	room, err := s.client.GetRoom(ctx, s.cfg.RoomID, s.cfg.UserID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return fmt.Errorf("room %s is gone: %w", s.cfg.RoomID, ErrRoomNotFound)
		}
		if ctx.Err() == nil {
			s.logger.WarnContext(ctx, "failed to fetch room", "error", err)
		}
		return nil
	}

	s.observe(ctx, room)
	return nil
}

func (s *Syncer) observe(ctx context.Context, room domain.Room) {
	res := s.reconciler.Observe(room)
	if res.Stale {
		s.logger.DebugContext(ctx, "stale snapshot", "seq", room.Playback.Seq, "applied", s.reconciler.LastSeq())
	}

	s.player.Refresh(ctx, res.Room)
	if res.Apply {
		s.player.Apply(ctx, res.Room)
	}
}

// listen turns hints into refresh requests. Hints only say "something
// changed", so several pending hints collapse into one refresh.
func (s *Syncer) listen(ctx context.Context, refresh chan<- struct{}) {
	for ctx.Err() == nil {
		hints, err := s.client.Subscribe(ctx, s.cfg.RoomID, s.cfg.UserID)
		if err != nil {
			s.logger.DebugContext(ctx, "failed to subscribe", "error", err)
		} else {
			for range hints {
				select {
				case refresh <- struct{}{}:
				default:
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.RetryInterval):
		}
	}
}
