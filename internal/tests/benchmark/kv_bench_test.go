package benchmark

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/sharded-go/internal/core/service"
	"github.com/yndnr/sharded-go/internal/storage"
	"github.com/yndnr/sharded-go/internal/storage/memory"
	"github.com/yndnr/sharded-go/internal/telemetry/logger"
	"github.com/yndnr/sharded-go/pkg/sharded"
)

// ShardCounts are the shard counts compared by the benchmarks.
var ShardCounts = []int{1, 16, 64}

const prefill = 10000

func newKey() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	return "bench/" + strings.ToLower(id.String())
}

func prefillKeys(b *testing.B, kv *service.KVService, n int) []string {
	b.Helper()
	ctx := context.Background()
	keys := make([]string, n)
	value := []byte("value-0123456789")
	for i := range keys {
		keys[i] = newKey()
		if _, err := kv.Put(ctx, &service.PutRequest{Key: keys[i], Value: value}); err != nil {
			b.Fatal(err)
		}
	}
	return keys
}

func newMemoryKV(shards int, opts ...sharded.Option) *service.KVService {
	opts = append([]sharded.Option{sharded.WithShardCount(shards)}, opts...)
	return service.NewKVService(memory.New(nil, opts...), service.WithLogger(logger.Discard()))
}

// BenchmarkKVService measures a 90/10 read/write mix under parallel load.
func BenchmarkKVService(b *testing.B) {
	locks := map[string]sharded.LockFactory{
		"rwmutex":  sharded.NewRWMutex,
		"mutex":    sharded.NewMutex,
		"weighted": sharded.Weighted(64),
	}

	for _, shards := range ShardCounts {
		for name, lock := range locks {
			b.Run(fmt.Sprintf("shards=%d/lock=%s", shards, name), func(b *testing.B) {
				kv := newMemoryKV(shards, sharded.WithLock(lock))
				keys := prefillKeys(b, kv, prefill)
				var seq atomic.Uint64
				value := []byte("updated-value")

				b.ReportAllocs()
				b.ResetTimer()
				b.RunParallel(func(pb *testing.PB) {
					ctx := context.Background()
					for pb.Next() {
						i := seq.Add(1)
						key := keys[i%uint64(len(keys))]
						if i%10 == 0 {
							_, _ = kv.Put(ctx, &service.PutRequest{Key: key, Value: value})
						} else {
							_, _ = kv.Get(ctx, key)
						}
					}
				})
			})
		}
	}
}

// BenchmarkMove measures cross-shard moves, which lock two shards at once.
func BenchmarkMove(b *testing.B) {
	for _, shards := range ShardCounts {
		b.Run(fmt.Sprintf("shards=%d", shards), func(b *testing.B) {
			kv := newMemoryKV(shards)
			keys := prefillKeys(b, kv, 1024)
			var seq atomic.Uint64

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				ctx := context.Background()
				for pb.Next() {
					i := seq.Add(1)
					from := keys[i%uint64(len(keys))]
					_ = kv.Move(ctx, &service.MoveRequest{From: from, To: from + "~", Overwrite: true})
					_ = kv.Move(ctx, &service.MoveRequest{From: from + "~", To: from, Overwrite: true})
				}
			})
		})
	}
}

// BenchmarkPersistentPut measures writes that go through Badger.
func BenchmarkPersistentPut(b *testing.B) {
	cfg := storage.DefaultBadgerConfig(b.TempDir())
	cfg.GCInterval = 0
	engine, err := storage.Open(context.Background(), cfg, logger.Slog(logger.Discard()), sharded.WithShardCount(16))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = engine.Close() })

	kv := service.NewKVService(engine.Store(), service.WithLogger(logger.Discard()))
	value := []byte("value-0123456789")

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			if _, err := kv.Put(ctx, &service.PutRequest{Key: newKey(), Value: value}); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// BenchmarkLoad measures rebuilding the in-memory store from Badger.
func BenchmarkLoad(b *testing.B) {
	dir := b.TempDir()
	cfg := storage.DefaultBadgerConfig(dir)
	cfg.GCInterval = 0
	slog := logger.Slog(logger.Discard())

	engine, err := storage.Open(context.Background(), cfg, slog)
	if err != nil {
		b.Fatal(err)
	}
	prefillKeys(b, service.NewKVService(engine.Store(), service.WithLogger(logger.Discard())), prefill)
	if err := engine.Close(); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e, err := storage.Open(context.Background(), cfg, slog, sharded.WithShardCount(16))
		if err != nil {
			b.Fatal(err)
		}
		if e.Store().Len() != prefill {
			b.Fatalf("loaded %d keys, want %d", e.Store().Len(), prefill)
		}
		_ = e.Close()
	}
}
