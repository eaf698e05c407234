package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/sharded-go/pkg/sharded"
)

// LockObserver implements sharded.Observer for one named structure.
// Label children are resolved once so the hot path is a single atomic add.
type LockObserver struct {
	acquired   [2]prometheus.Counter
	wouldBlock [2]prometheus.Counter
	wait       [2]prometheus.Observer
}

var _ sharded.Observer = (*LockObserver)(nil)

// Observer returns an Observer recording lock metrics under the given map
// label.
func (r *Registry) Observer(name string) *LockObserver {
	o := &LockObserver{}
	for _, mode := range []sharded.Mode{sharded.Shared, sharded.Exclusive} {
		o.acquired[mode] = r.LockAcquisitions.WithLabelValues(name, mode.String())
		o.wouldBlock[mode] = r.LockWouldBlock.WithLabelValues(name, mode.String())
		o.wait[mode] = r.LockWait.WithLabelValues(name, mode.String())
	}
	return o
}

// Acquired implements sharded.Observer.
func (o *LockObserver) Acquired(_ int, mode sharded.Mode, wait time.Duration) {
	o.acquired[mode].Inc()
	if wait > 0 {
		o.wait[mode].Observe(wait.Seconds())
	}
}

// WouldBlock implements sharded.Observer.
func (o *LockObserver) WouldBlock(_ int, mode sharded.Mode) {
	o.wouldBlock[mode].Inc()
}
