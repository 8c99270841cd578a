package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/audiosync/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	storeMode = configVar[string]{
		envKey:       "STORE_MODE",
		flagKey:      "store-mode",
		defaultValue: "redis",
	}
	storeRequireDurable = configVar[bool]{
		envKey:       "STORE_REQUIRE_DURABLE",
		flagKey:      "store-require-durable",
		defaultValue: false,
	}
	storeTTL = configVar[time.Duration]{
		envKey:       "STORE_TTL",
		flagKey:      "store-ttl",
		defaultValue: 12 * time.Hour,
	}
	storeSQLitePath = configVar[string]{
		envKey:       "STORE_SQLITE_PATH",
		flagKey:      "store-sqlite-path",
		defaultValue: "audiosync.db",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	presenceStaleAfter = configVar[time.Duration]{
		envKey:       "PRESENCE_STALE_AFTER",
		flagKey:      "presence-stale-after",
		defaultValue: 5 * time.Minute,
	}
	relayMode = configVar[string]{
		envKey:       "RELAY_MODE",
		flagKey:      "relay-mode",
		defaultValue: app.RelayModeRedis,
	}
	youtubeMetadata = configVar[bool]{
		envKey:       "YOUTUBE_METADATA",
		flagKey:      "youtube-metadata",
		defaultValue: false,
	}
)

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(storeMode.flagKey, storeMode.defaultValue, "Room store: redis, sqlite or memory")
	pflag.Bool(storeRequireDurable.flagKey, storeRequireDurable.defaultValue, "Fail room operations instead of falling back to memory")
	pflag.Duration(storeTTL.flagKey, storeTTL.defaultValue, "Room expiry, refreshed on every write")
	pflag.String(storeSQLitePath.flagKey, storeSQLitePath.defaultValue, "SQLite database path")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Duration(presenceStaleAfter.flagKey, presenceStaleAfter.defaultValue, "Inactivity after which a user is pruned")
	pflag.String(relayMode.flagKey, relayMode.defaultValue, "Hint relay: redis or local")
	pflag.Bool(youtubeMetadata.flagKey, youtubeMetadata.defaultValue, "Look up YouTube titles when media is loaded")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bind(port)
	bind(host)
	bind(logLevel)
	bind(storeMode)
	bind(storeRequireDurable)
	bind(storeTTL)
	bind(storeSQLitePath)
	bind(redisPort)
	bind(redisHost)
	bind(redisPassword)
	bind(presenceStaleAfter)
	bind(relayMode)
	bind(youtubeMetadata)

	config := &app.AppConfig{
		Host:                viper.GetString(host.flagKey),
		Port:                viper.GetInt(port.flagKey),
		LogLevel:            viper.GetString(logLevel.flagKey),
		StoreMode:           viper.GetString(storeMode.flagKey),
		StoreRequireDurable: viper.GetBool(storeRequireDurable.flagKey),
		StoreTTL:            viper.GetDuration(storeTTL.flagKey),
		StoreSQLitePath:     viper.GetString(storeSQLitePath.flagKey),
		RedisHost:           viper.GetString(redisHost.flagKey),
		RedisPort:           viper.GetInt(redisPort.flagKey),
		RedisPassword:       viper.GetString(redisPassword.flagKey),
		PresenceStaleAfter:  viper.GetDuration(presenceStaleAfter.flagKey),
		RelayMode:           viper.GetString(relayMode.flagKey),
		YouTubeMetadata:     viper.GetBool(youtubeMetadata.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	// .env is optional, real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
