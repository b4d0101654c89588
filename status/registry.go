// Package status is a small metrics registry shared by the multiplexer and the application.
package status

import (
	"strconv"
	"sync/atomic"
)

// Registry groups metrics by value type
// Producers cache pointers at startup and write atomics directly
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns the number of registered metrics of every type
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Metric is one formatted registry entry
type Metric struct {
	Key   string
	Value string
}

// Snapshot formats every metric, grouped by type (bools, ints, floats, strings)
// and sorted by key within each group
func (r *Registry) Snapshot() []Metric {
	out := make([]Metric, 0, r.TotalCount())
	r.Bools.Range(func(k string, v *atomic.Bool) {
		out = append(out, Metric{k, strconv.FormatBool(v.Load())})
	})
	r.Ints.Range(func(k string, v *atomic.Int64) {
		out = append(out, Metric{k, strconv.FormatInt(v.Load(), 10)})
	})
	r.Floats.Range(func(k string, v *AtomicFloat) {
		out = append(out, Metric{k, strconv.FormatFloat(v.Get(), 'f', 2, 64)})
	})
	r.Strings.Range(func(k string, v *AtomicString) {
		out = append(out, Metric{k, v.Load()})
	})
	return out
}
