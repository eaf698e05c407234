package sharded

import "errors"

// ErrWouldBlock is returned by the non-blocking acquisition path when the
// destination shard is currently held in a conflicting mode.
var ErrWouldBlock = errors.New("sharded: shard lock would block")

const errGuardReleased = "sharded: use of released guard"
