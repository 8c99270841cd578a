package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sharetube/audiosync/internal/controller"
	"github.com/sharetube/audiosync/internal/relay"
	relayredis "github.com/sharetube/audiosync/internal/relay/redis"
	"github.com/sharetube/audiosync/internal/repository/connection/inmemory"
	roomrepo "github.com/sharetube/audiosync/internal/repository/room"
	"github.com/sharetube/audiosync/internal/service/room"
	"github.com/sharetube/audiosync/pkg/ctxlogger"
	"github.com/sharetube/audiosync/pkg/redisclient"
	"github.com/sharetube/audiosync/pkg/ytvideodata"
)

// App is the wired server: store, relay, service and HTTP handler.
type App struct {
	handler     http.Handler
	storeStatus roomrepo.Status
	logger      *slog.Logger
	workers     []func(context.Context) error
	closers     []func() error
	wg          sync.WaitGroup
}

func New(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{logger: logger}

	st := openStore(ctx, cfg, logger)
	a.storeStatus = st.status
	a.closers = append(a.closers, st.close)

	connectionRepo := inmemory.NewRepo()
	hub := relay.NewHub(connectionRepo)

	var publisher relay.Publisher = relay.NewLocal(hub)
	if cfg.RelayMode == RelayModeRedis {
		rc := st.rc
		if rc == nil {
			var err error
			rc, err = redisclient.NewRedisClient(ctx, &redisclient.Config{
				Host:     cfg.RedisHost,
				Port:     cfg.RedisPort,
				Password: cfg.RedisPassword,
			})
			if err != nil {
				logger.WarnContext(ctx, "redis relay unavailable, hints stay in this process", "error", err)
			} else {
				a.closers = append(a.closers, rc.Close)
			}
		}

		if rc != nil {
			r := relayredis.New(rc, hub)
			publisher = r
			a.workers = append(a.workers, r.Run)
		}
	}

	roomCfg := room.Config{
		StaleAfter:  cfg.PresenceStaleAfter,
		StoreStatus: st.status,
	}
	if cfg.YouTubeMetadata {
		roomCfg.VideoData = ytvideodata.New()
	}

	roomService := room.NewService(st.repo, connectionRepo, publisher, roomCfg)
	a.handler = controller.NewController(roomService, logger, controller.Config{}).GetMux()

	return a, nil
}

func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) StoreStatus() roomrepo.Status {
	return a.storeStatus
}

// Start launches background workers. They stop when ctx is done.
func (a *App) Start(ctx context.Context) {
	for _, w := range a.workers {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := w(ctx); err != nil {
				a.logger.ErrorContext(ctx, "worker stopped", "error", err)
			}
		}()
	}
}

// Close waits for workers, so cancel their context first.
func (a *App) Close() error {
	a.wg.Wait()

	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)
	slog.SetDefault(logger)

	workersCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	a, err := New(workersCtx, cfg, logger)
	if err != nil {
		return err
	}
	a.Start(workersCtx)
	defer func() {
		stopWorkers()
		if err := a.Close(); err != nil {
			logger.WarnContext(ctx, "failed to close app", "error", err)
		}
	}()

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: a.Handler()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "store", a.StoreStatus())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
