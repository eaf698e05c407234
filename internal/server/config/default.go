package config

import (
	"time"

	"github.com/yndnr/sharded-go/internal/core/domain"
	"github.com/yndnr/sharded-go/pkg/sharded"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRESPIdleTimeout = 5 * time.Minute

	DefaultHasher     = "maphash"
	DefaultLock       = "rwmutex"
	DefaultCollection = "hashmap"
	DefaultMaxReaders = 64

	DefaultDataDir    = "/var/lib/shardkv/data"
	DefaultGCInterval = 10 * time.Minute
	DefaultCacheSize  = 64 << 20

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
			RESP: RESPConfig{
				IdleTimeout: DefaultRESPIdleTimeout,
			},
		},
		Shards: ShardsSection{
			Count:      sharded.DefaultShardCount,
			Hasher:     DefaultHasher,
			Lock:       DefaultLock,
			MaxReaders: DefaultMaxReaders,
			Collection: DefaultCollection,
		},
		Storage: StorageSection{
			DataDir:    DefaultDataDir,
			GCInterval: DefaultGCInterval,
			CacheSize:  DefaultCacheSize,
		},
		Limits: LimitsSection{
			MaxValueBytes: domain.DefaultMaxValueLen,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
