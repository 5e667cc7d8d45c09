package alloc

import (
	"firestige.xyz/pktforge/internal/metrics"
)

// Instrumented reports allocator activity to Prometheus under a name label.
type Instrumented struct {
	parent Allocator
	name   string
}

// NewInstrumented wraps parent. A nil parent means Heap().
func NewInstrumented(parent Allocator, name string) *Instrumented {
	if parent == nil {
		parent = Heap()
	}
	return &Instrumented{parent: parent, name: name}
}

func (a *Instrumented) Allocate(n int) []byte {
	if n > 0 {
		metrics.AllocationSizeBytes.WithLabelValues(a.name).Observe(float64(n))
	}
	b := a.parent.Allocate(n)
	if b == nil {
		if n > 0 {
			metrics.AllocationFailuresTotal.WithLabelValues(a.name).Inc()
		}
		return nil
	}
	metrics.AllocationsTotal.WithLabelValues(a.name).Inc()
	metrics.AllocatedBytesTotal.WithLabelValues(a.name).Add(float64(len(b)))
	return b
}

func (a *Instrumented) Deallocate(b []byte) error {
	if err := a.parent.Deallocate(b); err != nil {
		metrics.DeallocationsTotal.WithLabelValues(a.name, metrics.ResultError).Inc()
		return err
	}
	metrics.DeallocationsTotal.WithLabelValues(a.name, metrics.ResultOK).Inc()
	return nil
}

// Name returns the metric label used for this allocator.
func (a *Instrumented) Name() string {
	return a.name
}
