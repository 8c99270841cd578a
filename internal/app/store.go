package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/audiosync/internal/domain"
	roomrepo "github.com/sharetube/audiosync/internal/repository/room"
	roominmemory "github.com/sharetube/audiosync/internal/repository/room/inmemory"
	roomredis "github.com/sharetube/audiosync/internal/repository/room/redis"
	roomsqlite "github.com/sharetube/audiosync/internal/repository/room/sqlite"
	"github.com/sharetube/audiosync/pkg/redisclient"
)

var errDurableRequired = errors.New("durable store required but memory mode selected")

type roomStore interface {
	Get(ctx context.Context, roomID string) (domain.Room, error)
	Set(ctx context.Context, room domain.Room) error
	Delete(ctx context.Context, roomID string) error
}

type store struct {
	repo   roomStore
	status roomrepo.Status
	// rc is set in redis mode so the relay can share the connection.
	rc    *redis.Client
	close func() error
}

// openStore picks the room store once at startup. A durable backend that
// cannot be reached either makes every store call fail, when durability is
// required, or is replaced by the in-process store with a single warning.
func openStore(ctx context.Context, cfg *AppConfig, logger *slog.Logger) store {
	mode := roomrepo.Mode(cfg.StoreMode)
	status := roomrepo.Status{
		Mode:           mode,
		Durable:        mode.Durable(),
		RequireDurable: cfg.StoreRequireDurable,
		Available:      true,
		Provider:       string(mode),
	}

	var cause error
	switch mode {
	case roomrepo.ModeRedis:
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err == nil {
			logger.InfoContext(ctx, "using redis room store", "host", cfg.RedisHost, "port", cfg.RedisPort)
			return store{
				repo:   roomredis.NewRepo(rc, cfg.StoreTTL),
				status: status,
				rc:     rc,
				close:  rc.Close,
			}
		}
		cause = fmt.Errorf("failed to connect to redis: %w", err)
	case roomrepo.ModeSQLite:
		repo, err := roomsqlite.NewRepo(ctx, cfg.StoreSQLitePath, cfg.StoreTTL)
		if err == nil {
			logger.InfoContext(ctx, "using sqlite room store", "path", cfg.StoreSQLitePath)
			return store{
				repo:   repo,
				status: status,
				close:  repo.Close,
			}
		}
		cause = fmt.Errorf("failed to open sqlite: %w", err)
	default:
		if cfg.StoreRequireDurable {
			cause = errDurableRequired
		}
	}

	if cause != nil && cfg.StoreRequireDurable {
		logger.ErrorContext(ctx, "durable store unavailable, rejecting room operations", "mode", mode, "error", cause)
		status.Available = false
		return store{
			repo:   roomrepo.NewUnavailable(cause),
			status: status,
			close:  func() error { return nil },
		}
	}

	if cause != nil {
		logger.WarnContext(ctx, "durable store unavailable, falling back to in-memory store; rooms are lost on restart", "mode", mode, "error", cause)
	} else {
		logger.WarnContext(ctx, "using in-memory room store; rooms are lost on restart")
	}

	return store{
		repo: roominmemory.NewRepo(cfg.StoreTTL, nil),
		status: roomrepo.Status{
			Mode:           roomrepo.ModeMemory,
			Durable:        false,
			RequireDurable: cfg.StoreRequireDurable,
			Available:      true,
			Provider:       "none",
		},
		close: func() error { return nil },
	}
}
