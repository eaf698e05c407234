// Package metric provides Prometheus metrics for shardkv.
//
//   - prometheus.go: registry, HTTP request metrics and the /metrics handler
//   - observer.go: shard lock metrics fed by sharded.Observer
//   - collector.go: per-shard entry counts collected at scrape time
package metric
