package sharded

import (
	"strconv"
	"sync"
	"testing"
)

func benchKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "key-" + strconv.Itoa(i)
	}
	return keys
}

func BenchmarkMapGet(b *testing.B) {
	keys := benchKeys(1024)
	m := FromSeq(func(yield func(string, int) bool) {
		for i, k := range keys {
			if !yield(k, i) {
				return
			}
		}
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Get(keys[i&1023])
			i++
		}
	})
}

func BenchmarkMapInsert(b *testing.B) {
	keys := benchKeys(1024)
	hashers := map[string]Hasher[string]{
		"maphash": NewMapHasher[string](),
		"xxhash":  XXHash[string](),
		"murmur3": Murmur3[string](),
		"fnv1a":   FNV1a[string](),
	}

	for name, h := range hashers {
		b.Run(name, func(b *testing.B) {
			m := NewMap[string, int](WithHasher(h))
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					m.Insert(keys[i&1023], i)
					i++
				}
			})
		})
	}
}

// BenchmarkSingleLockMap is the baseline a sharded map is measured against.
func BenchmarkSingleLockMap(b *testing.B) {
	keys := benchKeys(1024)
	var mu sync.RWMutex
	m := make(map[string]int)

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			mu.Lock()
			m[keys[i&1023]] = i
			mu.Unlock()
			i++
		}
	})
}
