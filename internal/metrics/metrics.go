// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AllocationsTotal counts successful allocations by allocator name
	AllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktforge_allocations_total",
			Help: "Total number of successful buffer allocations",
		},
		[]string{"allocator"},
	)

	// AllocatedBytesTotal counts bytes handed out by allocator name
	AllocatedBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktforge_allocated_bytes_total",
			Help: "Total number of bytes handed out by allocators",
		},
		[]string{"allocator"},
	)

	// AllocationFailuresTotal counts allocations that returned nil
	AllocationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktforge_allocation_failures_total",
			Help: "Total number of failed buffer allocations",
		},
		[]string{"allocator"},
	)

	// DeallocationsTotal counts deallocations by allocator name and result
	DeallocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktforge_deallocations_total",
			Help: "Total number of buffer deallocations",
		},
		[]string{"allocator", "result"},
	)

	// AllocationSizeBytes tracks requested allocation size distribution
	AllocationSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pktforge_allocation_size_bytes",
			Help:    "Requested allocation size in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 2, 12), // 64B .. 128KiB
		},
		[]string{"allocator"},
	)
)

// Deallocation result label values
const (
	ResultOK    = "ok"
	ResultError = "error"
)
