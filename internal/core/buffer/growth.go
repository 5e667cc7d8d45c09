package buffer

import (
	"fmt"
	"strings"
)

// GrowthPolicy returns the new capacity for a capacity-aware buffer that
// holds capacity bytes and needs at least required. Results smaller than
// required are raised to required.
type GrowthPolicy func(capacity, required int) int

// ExactGrowth allocates exactly what is required.
func ExactGrowth(_, required int) int {
	return required
}

// DoublingGrowth doubles the capacity until it covers the requirement in a
// single step.
func DoublingGrowth(capacity, required int) int {
	c := capacity * 2
	if c < required {
		c = required
	}
	return c
}

// ParseGrowth accepts "exact" or "double".
func ParseGrowth(s string) (GrowthPolicy, error) {
	switch strings.ToLower(s) {
	case "exact":
		return ExactGrowth, nil
	case "", "double", "doubling":
		return DoublingGrowth, nil
	default:
		return nil, fmt.Errorf("unknown growth policy: %s (must be exact or double)", s)
	}
}
