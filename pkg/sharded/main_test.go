package sharded

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// modHasher routes int keys by value so tests can place keys on chosen
// shards.
func modHasher() Hasher[int] {
	return HasherFunc[int](func(key int) uint64 { return uint64(key) })
}
