package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/repository/room"
	_ "modernc.org/sqlite"
)

const (
	DefaultPath           = "audiosync.db"
	DefaultExpireDuration = 12 * time.Hour
	defaultBusyTimeout    = 5000
)

// Repo keeps one row per room holding its JSON snapshot and an expiry in
// unix milliseconds. Expired rows read as missing and are purged on open.
type Repo struct {
	db             *sql.DB
	expireDuration time.Duration
	now            func() time.Time
}

type Option func(*Repo)

// WithClock replaces time.Now for expiry bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) {
		r.now = now
	}
}

func NewRepo(ctx context.Context, path string, expireDuration time.Duration, opts ...Option) (*Repo, error) {
	if path == "" {
		path = DefaultPath
	}
	if expireDuration <= 0 {
		expireDuration = DefaultExpireDuration
	}

	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	r := &Repo{
		db:             db,
		expireDuration: expireDuration,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := r.PurgeExpired(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return r, nil
}

func buildDSN(path string) string {
	switch {
	case strings.HasPrefix(path, "sqlite://"):
		path = path[len("sqlite://"):]
	case strings.HasPrefix(path, "file:"), strings.HasPrefix(path, ":memory:"):
	default:
		path = "file:" + path
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return fmt.Sprintf("%s%s_pragma=busy_timeout=%d&_pragma=journal_mode=WAL", path, separator, defaultBusyTimeout)
}

func (r *Repo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	);`); err != nil {
		return fmt.Errorf("failed to migrate sqlite: %w", err)
	}

	return nil
}

func (r *Repo) Close() error {
	if r == nil || r.db == nil {
		return nil
	}

	return r.db.Close()
}

// PurgeExpired drops rows past their expiry and reports how many went.
func (r *Repo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE expires_at <= ?`, r.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge rooms: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge rooms: %w", err)
	}

	return n, nil
}

func (r *Repo) Get(ctx context.Context, roomID string) (domain.Room, error) {
	funcName := "room.sqlite.Get"
	slog.DebugContext(ctx, funcName, "room_id", roomID)

	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM rooms WHERE id = ? AND expires_at > ?`,
		roomID, r.now().UnixMilli(),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.DebugContext(ctx, funcName, "error", room.ErrRoomNotFound)
			return domain.Room{}, room.ErrRoomNotFound
		}

		slog.ErrorContext(ctx, funcName, "error", err)
		return domain.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	var res domain.Room
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		slog.ErrorContext(ctx, funcName, "room_id", roomID, "error", err)
		return domain.Room{}, fmt.Errorf("%w: %w", room.ErrCorruptRoom, err)
	}

	return res.Sanitized(), nil
}

func (r *Repo) Set(ctx context.Context, rm domain.Room) error {
	funcName := "room.sqlite.Set"
	slog.DebugContext(ctx, funcName, "room_id", rm.ID, "seq", rm.Playback.Seq)

	data, err := json.Marshal(rm.Sanitized())
	if err != nil {
		return fmt.Errorf("failed to encode room: %w", err)
	}

	expiresAt := r.now().Add(r.expireDuration).UnixMilli()
	if _, err := r.db.ExecContext(ctx, `INSERT INTO rooms (id, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		rm.ID, string(data), expiresAt,
	); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, roomID string) error {
	funcName := "room.sqlite.Delete"
	slog.DebugContext(ctx, funcName, "room_id", roomID)

	if _, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return fmt.Errorf("failed to delete room: %w", err)
	}

	return nil
}
