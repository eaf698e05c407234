package sharded

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteManyOpposingOrders(t *testing.T) {
	m := NewMap[int, int](WithShardCount(4), WithHasher(modHasher()))
	a, b := 1, 2

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				g := m.WriteMany(a, b)
				v, _ := g.Get(a)
				g.Insert(a, v+1)
				g.Release()
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				g := m.WriteMany(b, a)
				v, _ := g.Get(b)
				g.Insert(b, v+1)
				g.Release()
			}
		}()
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("WriteMany with opposing key orders did not finish")
	}

	va, _ := m.Get(a)
	vb, _ := m.Get(b)
	require.Equal(t, 1000, va)
	require.Equal(t, 1000, vb)
}

func TestWriteManyMovesAtomically(t *testing.T) {
	m := NewMap[int, string](WithShardCount(4), WithHasher(modHasher()))
	m.Insert(1, "payload")

	g := m.WriteMany(1, 2, 5) // 1 and 5 share shard 1
	require.Equal(t, []int{1, 2}, g.Shards())
	require.Equal(t, []int{1, 2, 5}, g.Keys())

	v, ok := g.Remove(1)
	require.True(t, ok)
	g.Insert(2, v)
	require.True(t, g.Contains(2))
	require.False(t, g.Contains(5))

	require.Panics(t, func() { g.Get(3) }, "key on an unheld shard must panic")
	g.Release()
	g.Release()
	require.Panics(t, func() { g.Get(1) })

	got, ok := m.Get(2)
	require.True(t, ok)
	require.Equal(t, "payload", got)
	require.False(t, m.Contains(1))
}

func TestTryWriteManyAllOrNothing(t *testing.T) {
	m := NewMap[int, int](WithShardCount(4), WithHasher(modHasher()))

	held := m.Write(3)
	_, err := m.TryWriteMany(0, 1, 3)
	require.ErrorIs(t, err, ErrWouldBlock)

	// Shards 0 and 1 were released on failure.
	for _, k := range []int{0, 1} {
		g, err := m.TryWrite(k)
		require.NoError(t, err, "shard %d left locked", k)
		g.Release()
	}
	held.Release()

	g, err := m.TryWriteMany(0, 1, 3)
	require.NoError(t, err)
	g.Insert(3, 33)
	g.Release()

	v, _ := m.Get(3)
	require.Equal(t, 33, v)
}

func TestWriteManyNoKeys(t *testing.T) {
	m := NewMap[int, int]()
	g := m.WriteMany()
	require.Empty(t, g.Shards())
	g.Release()
}
