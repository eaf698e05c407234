package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/sharded-go/pkg/sharded"
)

// StatsSource is anything that reports per-shard entry counts, such as a
// sharded.Map.
type StatsSource interface {
	Stats() []sharded.ShardStats
}

// ShardCollector exports the entry count of every shard of a structure at
// scrape time.
type ShardCollector struct {
	name   string
	source StatsSource
	desc   *prometheus.Desc
}

var _ prometheus.Collector = (*ShardCollector)(nil)

// NewShardCollector creates a collector for source labelled with name.
func NewShardCollector(name string, source StatsSource) *ShardCollector {
	return &ShardCollector{
		name:   name,
		source: source,
		desc: prometheus.NewDesc(
			"sharded_shard_entries",
			"Number of entries held by each shard.",
			[]string{"map", "shard"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *ShardCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *ShardCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.source.Stats() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue,
			float64(s.Count), c.name, strconv.Itoa(s.Index))
	}
}
