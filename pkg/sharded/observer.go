package sharded

import "time"

// Observer receives notifications about keyed shard acquisitions.
//
// Methods are called from the acquiring goroutine, after the lock has been
// taken or refused, and must be safe for concurrent use.
type Observer interface {
	// Acquired reports a successful acquisition and how long it waited.
	Acquired(shard int, mode Mode, wait time.Duration)
	// WouldBlock reports a refused non-blocking acquisition.
	WouldBlock(shard int, mode Mode)
}
