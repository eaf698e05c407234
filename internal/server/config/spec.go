package config

import "time"

// ServerConfig is the root configuration for shardkv.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Shards  ShardsSection  `koanf:"shards"`
	Storage StorageSection `koanf:"storage"`
	Limits  LimitsSection  `koanf:"limits"`
	Admin   AdminSection   `koanf:"admin"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
	RESP RESPConfig `koanf:"resp"`

	// ControlSocket is the path of the local control socket. Empty disables
	// it.
	ControlSocket string `koanf:"control_socket"`
}

// RESPConfig configures the Redis protocol listener.
type RESPConfig struct {
	// Addr is the listen address. Empty disables the listener.
	Addr string `koanf:"addr"`
	// Password is required by AUTH when set.
	Password    string        `koanf:"password"`
	IdleTimeout time.Duration `koanf:"idle_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimit       RateLimit     `koanf:"rate_limit"`
}

// RateLimit configures per-client request limiting. A zero RPS disables it.
type RateLimit struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// ShardsSection configures the sharded map holding the data set.
type ShardsSection struct {
	// Count is the number of shards.
	Count int `koanf:"count"`

	// Hasher picks the key hash: maphash, murmur3, xxhash or fnv1a.
	Hasher string `koanf:"hasher"`

	// Lock picks the shard lock: rwmutex, mutex or weighted.
	Lock string `koanf:"lock"`

	// MaxReaders bounds concurrent readers per shard for the weighted lock.
	MaxReaders int64 `koanf:"max_readers"`

	// Collection picks the per-shard container: hashmap or btree.
	Collection string `koanf:"collection"`
}

// StorageSection configures persistence.
type StorageSection struct {
	// InMemory disables persistence.
	InMemory bool `koanf:"in_memory"`

	DataDir    string        `koanf:"data_dir"`
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`
	CacheSize  int64         `koanf:"cache_size"`
}

// LimitsSection bounds request payloads.
type LimitsSection struct {
	MaxValueBytes int `koanf:"max_value_bytes"`
}

// AdminSection configures the admin endpoints.
type AdminSection struct {
	// Token guards /admin routes. Empty disables them.
	Token string `koanf:"token"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
