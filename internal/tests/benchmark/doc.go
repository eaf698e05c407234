// Package benchmark provides end-to-end benchmarks for shardkv.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare shard counts or lock kinds:
//
//	go test -bench='KVService/.*shards=64' -benchmem -count=5 ./internal/tests/benchmark/... | tee new.txt
//	benchstat old.txt new.txt
package benchmark
