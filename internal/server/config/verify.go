package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"slices"

	"github.com/yndnr/sharded-go/internal/telemetry/logger"
)

var (
	validHashers     = []string{"maphash", "murmur3", "xxhash", "fnv1a"}
	validLocks       = []string{"rwmutex", "mutex", "weighted"}
	validCollections = []string{"hashmap", "btree"}
	validLogFormats  = []string{"json", "text", "console"}
)

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyShards(&cfg.Shards),
		verifyStorage(&cfg.Storage),
		verifyLimits(&cfg.Limits),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr: %w", err))
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("server.http tls file: %w", err))
		}
	}
	if cfg.RESP.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.RESP.Addr); err != nil {
			errs = append(errs, fmt.Errorf("server.resp.addr: %w", err))
		} else if cfg.RESP.Addr == cfg.HTTP.Addr {
			errs = append(errs, errors.New("server.resp.addr must differ from server.http.addr"))
		}
	}
	if cfg.HTTP.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("server.http.rate_limit.rps must not be negative"))
	}
	if cfg.HTTP.RateLimit.RPS > 0 && cfg.HTTP.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("server.http.rate_limit.burst must be at least 1"))
	}
	return errors.Join(errs...)
}

func verifyShards(cfg *ShardsSection) error {
	var errs []error
	if cfg.Count < 1 {
		errs = append(errs, errors.New("shards.count must be at least 1"))
	}
	if !slices.Contains(validHashers, cfg.Hasher) {
		errs = append(errs, fmt.Errorf("shards.hasher: unknown hasher %q", cfg.Hasher))
	}
	if !slices.Contains(validLocks, cfg.Lock) {
		errs = append(errs, fmt.Errorf("shards.lock: unknown lock %q", cfg.Lock))
	}
	if cfg.Lock == "weighted" && cfg.MaxReaders < 1 {
		errs = append(errs, errors.New("shards.max_readers must be at least 1"))
	}
	if !slices.Contains(validCollections, cfg.Collection) {
		errs = append(errs, fmt.Errorf("shards.collection: unknown collection %q", cfg.Collection))
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.InMemory {
		return nil
	}
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}

	// Check if data directory exists or can be created
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}
	if cfg.GCInterval < 0 {
		return errors.New("storage.gc_interval must not be negative")
	}
	return nil
}

func verifyLimits(cfg *LimitsSection) error {
	if cfg.MaxValueBytes < 0 {
		return errors.New("limits.max_value_bytes must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if !slices.Contains(validLogFormats, cfg.Format) {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", cfg.Format))
	}
	return errors.Join(errs...)
}
