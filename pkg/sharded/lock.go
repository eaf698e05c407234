package sharded

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Mode is the access mode of a shard acquisition.
type Mode uint8

const (
	// Shared allows concurrent readers on the same shard.
	Shared Mode = iota
	// Exclusive excludes every other reader and writer on the same shard.
	Exclusive
)

// String returns "shared" or "exclusive".
func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// Lock is the capability a shard lock must provide.
//
// *sync.RWMutex satisfies it as is. Backends without a shared mode may
// implement RLock as an exclusive acquisition.
type Lock interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
	TryLock() bool
	TryRLock() bool
}

// LockFactory creates the lock for one shard.
type LockFactory func() Lock

// NewRWMutex returns a *sync.RWMutex. It is the default LockFactory.
func NewRWMutex() Lock {
	return new(sync.RWMutex)
}

// NewMutex returns an exclusive-only lock built on sync.Mutex.
// Shared acquisitions serialise like exclusive ones.
func NewMutex() Lock {
	return new(mutexLock)
}

type mutexLock struct {
	mu sync.Mutex
}

func (l *mutexLock) Lock()          { l.mu.Lock() }
func (l *mutexLock) Unlock()        { l.mu.Unlock() }
func (l *mutexLock) RLock()         { l.mu.Lock() }
func (l *mutexLock) RUnlock()       { l.mu.Unlock() }
func (l *mutexLock) TryLock() bool  { return l.mu.TryLock() }
func (l *mutexLock) TryRLock() bool { return l.mu.TryLock() }

// Weighted returns a LockFactory for reader/writer locks built on a weighted
// semaphore. Up to maxReaders shared holders may coexist; a writer takes the
// full weight. Waiters are served in FIFO order, so a queued writer holds back
// readers that arrive after it. Blocking acquisition never gives up.
func Weighted(maxReaders int64) LockFactory {
	if maxReaders < 1 {
		maxReaders = 1
	}
	return func() Lock {
		return &weightedLock{
			sem: semaphore.NewWeighted(maxReaders),
			max: maxReaders,
		}
	}
}

type weightedLock struct {
	sem *semaphore.Weighted
	max int64
}

func (l *weightedLock) Lock()          { _ = l.sem.Acquire(context.Background(), l.max) }
func (l *weightedLock) Unlock()        { l.sem.Release(l.max) }
func (l *weightedLock) RLock()         { _ = l.sem.Acquire(context.Background(), 1) }
func (l *weightedLock) RUnlock()       { l.sem.Release(1) }
func (l *weightedLock) TryLock() bool  { return l.sem.TryAcquire(l.max) }
func (l *weightedLock) TryRLock() bool { return l.sem.TryAcquire(1) }
