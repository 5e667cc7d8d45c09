package alloc

import (
	"fmt"
	"sync"
)

// Limited caps the number of bytes outstanding from a parent allocator.
// Allocations that would exceed the budget fail with nil. Outstanding bytes
// are accounted by slice capacity. Only slices it handed out, identified by
// their first byte, may be returned.
type Limited struct {
	parent Allocator
	budget int

	mu          sync.Mutex
	outstanding int
	live        map[*byte]int // first byte -> charged capacity
}

// NewLimited wraps parent with a byte budget. A nil parent means Heap().
func NewLimited(parent Allocator, budget int) *Limited {
	if parent == nil {
		parent = Heap()
	}
	return &Limited{parent: parent, budget: budget, live: make(map[*byte]int)}
}

func (l *Limited) Allocate(n int) []byte {
	if n <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.outstanding+n > l.budget {
		return nil
	}
	b := l.parent.Allocate(n)
	if b == nil {
		return nil
	}
	if l.outstanding+cap(b) > l.budget {
		_ = l.parent.Deallocate(b)
		return nil
	}
	l.outstanding += cap(b)
	l.live[firstByte(b)] = cap(b)
	return b
}

func (l *Limited) Deallocate(b []byte) error {
	if cap(b) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := firstByte(b)
	charged, ok := l.live[key]
	if !ok {
		return fmt.Errorf("%w: %d byte slice, %d bytes outstanding", ErrNotOwned, cap(b), l.outstanding)
	}
	if err := l.parent.Deallocate(b); err != nil {
		return err
	}
	delete(l.live, key)
	l.outstanding -= charged
	return nil
}

func firstByte(b []byte) *byte {
	return &b[:1][0]
}

// Outstanding returns the number of bytes currently allocated.
func (l *Limited) Outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outstanding
}

// Budget returns the configured byte budget.
func (l *Limited) Budget() int {
	return l.budget
}
