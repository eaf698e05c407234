package memory

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yndnr/sharded-go/internal/core/domain"
	"github.com/yndnr/sharded-go/pkg/sharded"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakePersister records applied batches and can be told to fail.
type fakePersister struct {
	mu      sync.Mutex
	data    map[string][]byte
	batches [][]domain.Mutation
	fail    error
}

func newFakePersister() *fakePersister {
	return &fakePersister{data: make(map[string][]byte)}
}

func (p *fakePersister) Apply(_ context.Context, batch []domain.Mutation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	for _, m := range batch {
		if m.Delete {
			delete(p.data, m.Key)
		} else {
			p.data[m.Key] = m.Value
		}
	}
	p.batches = append(p.batches, batch)
	return nil
}

func (p *fakePersister) Scan(_ context.Context, fn func(string, []byte) bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, v := range p.data {
		if !fn(k, v) {
			return nil
		}
	}
	return nil
}

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	p := newFakePersister()
	s := New(p, sharded.WithShardCount(4))

	created, err := s.Put(ctx, "user:1", []byte("alice"))
	require.NoError(t, err)
	require.True(t, created)

	created, err = s.Put(ctx, "user:1", []byte("alicia"))
	require.NoError(t, err)
	require.False(t, created)

	v, err := s.Get(ctx, "user:1")
	require.NoError(t, err)
	require.Equal(t, "alicia", string(v))

	// Returned values are copies.
	v[0] = 'X'
	again, _ := s.Get(ctx, "user:1")
	require.Equal(t, "alicia", string(again))

	old, err := s.Delete(ctx, "user:1")
	require.NoError(t, err)
	require.Equal(t, "alicia", string(old))

	_, err = s.Get(ctx, "user:1")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
	_, err = s.Delete(ctx, "user:1")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.Empty(t, p.data)
	require.Len(t, p.batches, 3)
}

func TestStore_PersistFailureLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	p := newFakePersister()
	s := New(p)

	_, err := s.Put(ctx, "k", []byte("v1"))
	require.NoError(t, err)

	p.fail = errors.New("disk full")
	_, err = s.Put(ctx, "k", []byte("v2"))
	require.ErrorIs(t, err, domain.ErrStorageError)

	_, err = s.Delete(ctx, "k")
	require.ErrorIs(t, err, domain.ErrStorageError)

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v1", string(v))
}

func TestStore_TryPutShardBusy(t *testing.T) {
	ctx := context.Background()
	s := New(nil, sharded.WithShardCount(1))

	g := s.data.Write("other")
	_, err := s.TryPut(ctx, "k", []byte("v"))
	require.ErrorIs(t, err, domain.ErrShardBusy)
	require.ErrorIs(t, err, sharded.ErrWouldBlock)
	g.Release()

	created, err := s.TryPut(ctx, "k", []byte("v"))
	require.NoError(t, err)
	require.True(t, created)
}

func TestStore_Move(t *testing.T) {
	ctx := context.Background()
	p := newFakePersister()
	s := New(p, sharded.WithShardCount(8))

	_, err := s.Put(ctx, "a", []byte("payload"))
	require.NoError(t, err)
	_, err = s.Put(ctx, "c", []byte("taken"))
	require.NoError(t, err)

	require.NoError(t, s.Move(ctx, "a", "b", false))
	_, err = s.Get(ctx, "a")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
	v, err := s.Get(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, "payload", string(v))

	// The move is one persisted batch.
	last := p.batches[len(p.batches)-1]
	require.Equal(t, []domain.Mutation{domain.PutMutation("b", []byte("payload")), domain.DeleteMutation("a")}, last)

	require.ErrorIs(t, s.Move(ctx, "b", "c", false), domain.ErrKeyExists)
	require.NoError(t, s.Move(ctx, "b", "c", true))
	v, _ = s.Get(ctx, "c")
	require.Equal(t, "payload", string(v))

	require.ErrorIs(t, s.Move(ctx, "missing", "x", false), domain.ErrKeyNotFound)
	require.NoError(t, s.Move(ctx, "c", "c", false))
	require.ErrorIs(t, s.Move(ctx, "missing", "missing", false), domain.ErrKeyNotFound)
}

func TestStore_ConcurrentMovesDoNotDeadlock(t *testing.T) {
	ctx := context.Background()
	s := New(nil, sharded.WithShardCount(4))
	_, err := s.Put(ctx, "x", []byte("1"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				// Ping-pong between two keys from both ends.
				_ = s.Move(ctx, "x", "y", false)
				_ = s.Move(ctx, "y", "x", false)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, s.Len())
}

func TestLoad(t *testing.T) {
	p := newFakePersister()
	for i := 0; i < 100; i++ {
		p.data["k"+strconv.Itoa(i)] = []byte(strconv.Itoa(i))
	}

	s, err := Load(context.Background(), p, sharded.WithShardCount(8))
	require.NoError(t, err)
	require.Equal(t, 100, s.Len())
	require.Equal(t, 8, s.ShardCount())

	total := 0
	for _, st := range s.Stats() {
		total += st.Count
	}
	require.Equal(t, 100, total)

	v, err := s.Get(context.Background(), "k42")
	require.NoError(t, err)
	require.Equal(t, "42", string(v))
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, newFakePersister())
	require.ErrorIs(t, err, context.Canceled)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := New(nil, sharded.WithCollection[string, []byte](sharded.BTreeBackend[string, []byte]))
	for _, k := range []string{"user:3", "user:1", "order:9", "user:2"} {
		_, err := s.Put(ctx, k, []byte("v"))
		require.NoError(t, err)
	}

	if diff := cmp.Diff([]string{"user:1", "user:2", "user:3"}, s.List(ctx, "user:", 0)); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"order:9", "user:1"}, s.List(ctx, "", 2)); diff != "" {
		t.Errorf("List with limit mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, s.List(ctx, "none:", 0))
}
