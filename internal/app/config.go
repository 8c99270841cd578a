package app

import (
	"fmt"
	"time"

	roomrepo "github.com/sharetube/audiosync/internal/repository/room"
)

const (
	RelayModeRedis = "redis"
	RelayModeLocal = "local"
)

type AppConfig struct {
	Host                string        `json:"host"`
	Port                int           `json:"port"`
	LogLevel            string        `json:"log_level"`
	StoreMode           string        `json:"store_mode"`
	StoreRequireDurable bool          `json:"store_require_durable"`
	StoreTTL            time.Duration `json:"store_ttl"`
	StoreSQLitePath     string        `json:"store_sqlite_path"`
	RedisHost           string        `json:"redis_host"`
	RedisPort           int           `json:"redis_port"`
	RedisPassword       string        `json:"-"`
	PresenceStaleAfter  time.Duration `json:"presence_stale_after"`
	RelayMode           string        `json:"relay_mode"`
	YouTubeMetadata     bool          `json:"youtube_metadata"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}
	if !roomrepo.Mode(cfg.StoreMode).Valid() {
		return fmt.Errorf("unknown store mode %q", cfg.StoreMode)
	}
	if cfg.RelayMode != RelayModeRedis && cfg.RelayMode != RelayModeLocal {
		return fmt.Errorf("unknown relay mode %q", cfg.RelayMode)
	}
	if cfg.StoreTTL <= 0 {
		return fmt.Errorf("store ttl must be greater than 0")
	}
	if cfg.PresenceStaleAfter <= 0 {
		return fmt.Errorf("presence stale after must be greater than 0")
	}

	return nil
}
