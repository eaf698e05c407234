package storage

import (
	"errors"
	"time"
)

var (
	ErrClosed        = errors.New("storage: engine closed")
	ErrDirRequired   = errors.New("storage: dir is required unless in_memory is set")
	errBackupNotDisk = errors.New("storage: backup needs a persistent engine")
)

// keyPrefix namespaces data keys inside Badger.
const keyPrefix = "kv/"

// KVStats contains storage engine statistics.
type KVStats struct {
	// LSMSize is the LSM tree size in bytes.
	LSMSize int64 `json:"lsm_size"`
	// ValueLogSize is the value log size in bytes.
	ValueLogSize int64 `json:"value_log_size"`
	// LastGC is the time of the last value log GC run, zero if none ran.
	LastGC time.Time `json:"last_gc,omitempty"`
	// GCRuns counts value log rewrites since start.
	GCRuns uint64 `json:"gc_runs"`
}

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// Dir is the data directory.
	Dir string
	// InMemory keeps everything in memory; nothing survives a restart.
	InMemory bool
	// SyncWrites fsyncs every write before it is acknowledged.
	SyncWrites bool
	// GCInterval is the interval between value log GC runs. Zero disables
	// the background loop.
	GCInterval time.Duration
	// GCDiscardRatio is the stale fraction a value log file needs before it
	// is rewritten.
	GCDiscardRatio float64
	// CacheSize is the block cache size in bytes.
	CacheSize int64
	// ValueLogFileSize is the max value log file size in bytes.
	ValueLogFileSize int64
	// NumMemtables is the number of memtables.
	NumMemtables int
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:              dir,
		GCInterval:       10 * time.Minute,
		GCDiscardRatio:   0.5,
		CacheSize:        64 << 20, // 64MB
		ValueLogFileSize: 256 << 20,
		NumMemtables:     2,
	}
}
