package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/sharetube/audiosync/internal/client"
	"github.com/sharetube/audiosync/internal/domain"
)

// logPlayer stands in for a real audio element and logs what it would do.
type logPlayer struct {
	logger *slog.Logger
	media  string
	host   string
}

func (p *logPlayer) Apply(ctx context.Context, room domain.Room) {
	p.logger.InfoContext(ctx, "transport",
		"status", room.Playback.Status,
		"seq", room.Playback.Seq,
		"actor_id", room.Playback.ActorID,
	)
}

func (p *logPlayer) Refresh(ctx context.Context, room domain.Room) {
	media := ""
	if room.Media != nil {
		media = room.Media.DisplayName()
	}
	if media != p.media {
		p.media = media
		p.logger.InfoContext(ctx, "media", "name", media)
	}
	if room.HostUserID != p.host {
		p.host = room.HostUserID
		p.logger.InfoContext(ctx, "host", "user_id", room.HostUserID, "users", len(room.Users))
	}
}

func main() {
	server := pflag.String("server", "http://localhost:8080", "audio-sync server base url")
	roomID := pflag.String("room", "", "room id to join")
	userID := pflag.String("user", uuid.NewString(), "user id")
	username := pflag.String("username", "listener", "display name")
	create := pflag.Bool("create", false, "create the room instead of joining it")
	poll := pflag.Duration("poll", client.DefaultPollInterval, "poll interval")
	debug := pflag.Bool("debug", false, "debug logging")
	pflag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *roomID == "" {
		logger.Error("room is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(*server)
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	var err error
	if *create {
		_, err = c.CreateRoom(reqCtx, *roomID, *userID, *username)
	} else {
		_, err = c.JoinRoom(reqCtx, *roomID, *userID, *username)
	}
	cancel()
	if err != nil {
		logger.Error("failed to enter room", "room_id", *roomID, "error", err)
		os.Exit(1)
	}
	logger.Info("entered room", "room_id", *roomID, "user_id", *userID)

	syncer := client.NewSyncer(c, &logPlayer{logger: logger}, client.SyncerConfig{
		RoomID:       *roomID,
		UserID:       *userID,
		PollInterval: *poll,
	}, logger)
	if err := syncer.Run(ctx); err != nil {
		if errors.Is(err, client.ErrRoomNotFound) {
			logger.Info("room closed", "room_id", *roomID)
			return
		}
		logger.Error("sync stopped", "error", err)
		os.Exit(1)
	}
}
