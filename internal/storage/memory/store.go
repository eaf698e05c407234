package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/yndnr/sharded-go/internal/core/domain"
	"github.com/yndnr/sharded-go/pkg/sharded"
)

// Persister receives every change before it becomes visible in memory.
type Persister interface {
	// Apply writes a batch of mutations atomically.
	Apply(ctx context.Context, batch []domain.Mutation) error
	// Scan calls fn for every persisted entry until fn returns false.
	Scan(ctx context.Context, fn func(key string, value []byte) bool) error
}

// Store is the in-memory key/value data set.
type Store struct {
	data    *sharded.Map[string, []byte]
	persist Persister
}

// New creates an empty Store. persist may be nil for a purely in-memory
// store.
func New(persist Persister, opts ...sharded.Option) *Store {
	return &Store{
		data:    sharded.NewMap[string, []byte](opts...),
		persist: persist,
	}
}

// Load creates a Store holding everything persist has, routed to shards
// according to opts.
func Load(ctx context.Context, persist Persister, opts ...sharded.Option) (*Store, error) {
	entries := make(map[string][]byte)
	err := persist.Scan(ctx, func(key string, value []byte) bool {
		entries[key] = value
		return ctx.Err() == nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan persisted entries: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Store{
		data:    sharded.FromMap(entries, opts...),
		persist: persist,
	}, nil
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	g := s.data.Read(key)
	defer g.Release()

	v, ok := g.Get()
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Put stores value under key and reports whether the key was created.
func (s *Store) Put(ctx context.Context, key string, value []byte) (bool, error) {
	g := s.data.Write(key)
	defer g.Release()
	return s.put(ctx, g, value)
}

// TryPut is Put without waiting for the key's shard. It returns
// domain.ErrShardBusy when the shard is held by another operation.
func (s *Store) TryPut(ctx context.Context, key string, value []byte) (bool, error) {
	g, err := s.data.TryWrite(key)
	if err != nil {
		return false, domain.ErrShardBusy.WithCause(err)
	}
	defer g.Release()
	return s.put(ctx, g, value)
}

func (s *Store) put(ctx context.Context, g *sharded.WriteGuard[string, []byte], value []byte) (bool, error) {
	value = bytes.Clone(value)
	if err := s.apply(ctx, domain.PutMutation(g.Key(), value)); err != nil {
		return false, err
	}
	_, existed := g.Insert(value)
	return !existed, nil
}

// Delete removes key and returns its last value.
func (s *Store) Delete(ctx context.Context, key string) ([]byte, error) {
	g := s.data.Write(key)
	defer g.Release()

	old, ok := g.Get()
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	if err := s.apply(ctx, domain.DeleteMutation(key)); err != nil {
		return nil, err
	}
	g.Remove()
	return old, nil
}

// Move renames src to dst in one atomic step. Unless overwrite is set, an
// existing dst is an error.
func (s *Store) Move(ctx context.Context, src, dst string, overwrite bool) error {
	if src == dst {
		if !s.data.Contains(src) {
			return domain.ErrKeyNotFound
		}
		return nil
	}

	g := s.data.WriteMany(src, dst)
	defer g.Release()

	v, ok := g.Get(src)
	if !ok {
		return domain.ErrKeyNotFound.WithDetails(src)
	}
	if !overwrite && g.Contains(dst) {
		return domain.ErrKeyExists.WithDetails(dst)
	}

	if err := s.apply(ctx, domain.PutMutation(dst, v), domain.DeleteMutation(src)); err != nil {
		return err
	}
	g.Insert(dst, v)
	g.Remove(src)
	return nil
}

// List returns up to limit keys starting with prefix in ascending order.
// A non-positive limit returns every match.
func (s *Store) List(_ context.Context, prefix string, limit int) []string {
	var keys []string
	for k := range s.data.All() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return s.data.Len()
}

// ShardCount returns the number of shards.
func (s *Store) ShardCount() int {
	return s.data.ShardCount()
}

// Route returns the shard key belongs to.
func (s *Store) Route(key string) int {
	return s.data.Route(key)
}

// Stats returns per-shard entry counts.
func (s *Store) Stats() []sharded.ShardStats {
	return s.data.Stats()
}

func (s *Store) apply(ctx context.Context, batch ...domain.Mutation) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Apply(ctx, batch); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}
