package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/sharded-go/internal/storage/memory"
	"github.com/yndnr/sharded-go/pkg/sharded"
)

// Engine owns the in-memory store and, unless running in memory only, the
// Badger engine behind it.
type Engine struct {
	store  *memory.Store
	kv     *BadgerEngine
	logger *slog.Logger
}

// Open opens persistence, loads every persisted entry and returns the
// ready engine. opts configure the sharded map.
func Open(ctx context.Context, cfg BadgerConfig, logger *slog.Logger, opts ...sharded.Option) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.InMemory {
		logger.Info("storage running in memory only")
		return &Engine{
			store:  memory.New(nil, opts...),
			logger: logger,
		}, nil
	}

	kv, err := NewBadgerEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	store, err := memory.Load(ctx, kv, opts...)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("load store: %w", err)
	}

	logger.Info("storage loaded",
		"entries", store.Len(),
		"shards", store.ShardCount(),
		"elapsed", time.Since(start))

	return &Engine{store: store, kv: kv, logger: logger}, nil
}

// Store returns the live data set.
func (e *Engine) Store() *memory.Store {
	return e.store
}

// Persistent reports whether changes survive a restart.
func (e *Engine) Persistent() bool {
	return e.kv != nil
}

// Backup streams a Badger backup to w.
func (e *Engine) Backup(ctx context.Context, w io.Writer) error {
	if e.kv == nil {
		return errBackupNotDisk
	}
	return e.kv.Backup(ctx, w)
}

// Stats returns storage statistics, zero for a memory-only engine.
func (e *Engine) Stats() KVStats {
	if e.kv == nil {
		return KVStats{}
	}
	return e.kv.Stats()
}

// Collectors returns the storage metrics collectors.
func (e *Engine) Collectors() []prometheus.Collector {
	if e.kv == nil {
		return nil
	}
	return e.kv.Collectors()
}

// Close closes persistence.
func (e *Engine) Close() error {
	if e.kv == nil {
		return nil
	}
	return e.kv.Close()
}
