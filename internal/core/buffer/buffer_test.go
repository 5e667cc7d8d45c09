package buffer

import (
	"bytes"
	"errors"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pktforge/internal/core"
	"firestige.xyz/pktforge/internal/core/alloc"
)

var variants = []struct {
	name string
	new  func(opts ...Option) Buffer
}{
	{"length", func(opts ...Option) Buffer { return NewLength(opts...) }},
	{"capacity", func(opts ...Option) Buffer { return NewCapacity(opts...) }},
}

func forEachVariant(t *testing.T, fn func(t *testing.T, newBuf func(opts ...Option) Buffer)) {
	for _, v := range variants {
		v := v
		t.Run(v.name, func(t *testing.T) {
			fn(t, v.new)
		})
	}
}

func filled(t *testing.T, newBuf func(opts ...Option) Buffer, content []byte, opts ...Option) Buffer {
	t.Helper()
	b := newBuf(opts...)
	require.NoError(t, b.AppendBytes(content))
	return b
}

func assertNullState(t *testing.T, b Buffer) {
	t.Helper()
	assert.False(t, b.Present(), "expected null-state")
	assert.False(t, b.Owning())
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Bytes())
}

func dataPtr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func TestNewIsNullState(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		assertNullState(t, newBuf())
	})
}

func TestResetThenRelease(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		for _, owns := range []bool{true, false} {
			data := []byte{1, 2, 3, 4, 5}
			b := newBuf()

			require.NoError(t, b.Reset(data, owns))
			assert.Equal(t, owns, b.Owning())
			assert.Equal(t, 5, b.Len())
			assert.True(t, b.Present())

			released := b.Release()
			assert.Equal(t, dataPtr(data), dataPtr(released), "release must return the adopted memory")
			assert.Equal(t, data, released)
			assertNullState(t, b)
		}
	})
}

func TestResetNilEntersNullState(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := filled(t, newBuf, []byte{1, 2, 3})
		require.NoError(t, b.Reset(nil, true))
		assertNullState(t, b)
	})
}

func TestZeroLengthOperationsAreNoOps(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		empty := newBuf()
		assert.NoError(t, empty.Append(0))
		assert.NoError(t, empty.AppendBytes(nil))
		assert.NoError(t, empty.Insert(0, 0))
		assert.NoError(t, empty.InsertBytes(-3, nil))
		assert.NoError(t, empty.Remove(0, 0))
		assert.NoError(t, empty.Remove(5, 3))
		assertNullState(t, empty)

		content := []byte{9, 8, 7, 6}
		b := filled(t, newBuf, content)
		assert.NoError(t, b.Append(0))
		assert.NoError(t, b.Insert(2, 0))
		assert.NoError(t, b.InsertBytes(-1, []byte{}))
		assert.NoError(t, b.Remove(1, 0))
		assert.NoError(t, b.Remove(-2, 0))
		assert.Equal(t, content, b.Bytes())
	})
}

func TestAppend(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := newBuf()
		require.NoError(t, b.AppendBytes([]byte{1, 2}))
		require.NoError(t, b.Append(3))
		require.NoError(t, b.AppendBytes([]byte{3}))

		assert.Equal(t, []byte{1, 2, 0, 0, 0, 3}, b.Bytes())
		assert.True(t, b.Owning())
	})
}

func TestInsertNegativeIndexScenario(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := filled(t, newBuf, []byte{0x01, 0x02, 0x03, 0x04})

		require.NoError(t, b.InsertBytes(-1, []byte{0xFF}))
		assert.Equal(t, []byte{0x01, 0x02, 0x03, 0xFF, 0x04}, b.Bytes())

		require.NoError(t, b.InsertBytes(-5, []byte{0xEE}))
		assert.Equal(t, []byte{0xEE, 0x01, 0x02, 0x03, 0xFF, 0x04}, b.Bytes())
	})
}

func TestInsertMinusFourOnLengthFour(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := filled(t, newBuf, []byte{0x01, 0x02, 0x03, 0x04})

		require.NoError(t, b.InsertBytes(-4, []byte{0xEE}))
		assert.Equal(t, []byte{0xEE, 0x01, 0x02, 0x03, 0x04}, b.Bytes())
	})
}

func TestInsertPositions(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := filled(t, newBuf, []byte{1, 2, 3})

		require.NoError(t, b.Insert(0, 2))
		assert.Equal(t, []byte{0, 0, 1, 2, 3}, b.Bytes())

		require.NoError(t, b.InsertBytes(b.Len(), []byte{4, 5}))
		assert.Equal(t, []byte{0, 0, 1, 2, 3, 4, 5}, b.Bytes())

		err := b.Insert(b.Len()+1, 1)
		assert.True(t, errors.Is(err, core.ErrIndexOutOfRange))
		assert.Equal(t, []byte{0, 0, 1, 2, 3, 4, 5}, b.Bytes())

		assert.True(t, errors.Is(b.Insert(0, -1), core.ErrInvalidLength))
	})
}

func TestNegativeIndexMatchesPositive(t *testing.T) {
	content := []byte{10, 20, 30, 40, 50, 60}
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		l := len(content)
		for k := 1; k <= l; k++ {
			neg := filled(t, newBuf, content)
			pos := filled(t, newBuf, content)
			require.NoError(t, neg.InsertBytes(-k, []byte{0xAA, 0xBB}))
			require.NoError(t, pos.InsertBytes(l-k, []byte{0xAA, 0xBB}))
			assert.Equal(t, pos.Bytes(), neg.Bytes(), "insert at -%d", k)

			neg = filled(t, newBuf, content)
			pos = filled(t, newBuf, content)
			require.NoError(t, neg.Remove(-k, 2))
			require.NoError(t, pos.Remove(l-k, 2))
			assert.Equal(t, pos.Bytes(), neg.Bytes(), "remove at -%d", k)
		}
	})
}

func TestInsertRemoveRoundTrip(t *testing.T) {
	content := []byte{1, 2, 3, 4, 5, 6, 7}
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		for i := -len(content); i <= len(content); i++ {
			b := filled(t, newBuf, content)
			require.NoError(t, b.InsertBytes(i, []byte{0xDE, 0xAD, 0xBE}))
			require.Equal(t, len(content)+3, b.Len())

			at := i
			if at < 0 {
				at = len(content) + i
			}
			require.NoError(t, b.Remove(at, 3))
			if diff := cmp.Diff(content, b.Bytes()); diff != "" {
				t.Errorf("round trip at %d mismatch (-want +got):\n%s", i, diff)
			}
		}
	})
}

func TestRemoveClampsToTail(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := filled(t, newBuf, []byte{1, 2, 3, 4, 5, 6})

		require.NoError(t, b.Remove(2, 100))
		assert.Equal(t, 2, b.Len())
		assert.Equal(t, []byte{1, 2}, b.Bytes())
	})
}

func TestRemoveOutOfRangeIsNoOp(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := filled(t, newBuf, []byte{1, 2, 3})

		require.NoError(t, b.Remove(3, 1))
		require.NoError(t, b.Remove(10, 5))
		assert.Equal(t, []byte{1, 2, 3}, b.Bytes())
		assert.True(t, errors.Is(b.Remove(0, -2), core.ErrInvalidLength))
	})
}

func TestRemoveEverything(t *testing.T) {
	t.Run("length", func(t *testing.T) {
		b := NewLength()
		require.NoError(t, b.AppendBytes([]byte{1, 2, 3}))
		require.NoError(t, b.Remove(0, 3))
		assertNullState(t, b)
	})
	t.Run("capacity", func(t *testing.T) {
		b := NewCapacity()
		require.NoError(t, b.AppendBytes([]byte{1, 2, 3}))
		capacity := b.Cap()
		require.NoError(t, b.Remove(-3, 3))
		assert.Equal(t, 0, b.Len())
		assert.Equal(t, capacity, b.Cap(), "remove must not release storage")
		assert.True(t, b.Present())

		require.NoError(t, b.Reallocate(0))
		assertNullState(t, b)
	})
}

func TestOutOfRangeNegativeIndex(t *testing.T) {
	t.Run("length clamps to start", func(t *testing.T) {
		b := NewLength()
		require.NoError(t, b.AppendBytes([]byte{1, 2, 3}))

		require.NoError(t, b.InsertBytes(-10, []byte{9}))
		assert.Equal(t, []byte{9, 1, 2, 3}, b.Bytes())

		require.NoError(t, b.Remove(-10, 2))
		assert.Equal(t, []byte{2, 3}, b.Bytes())
	})
	t.Run("capacity ignores the call", func(t *testing.T) {
		b := NewCapacity()
		require.NoError(t, b.AppendBytes([]byte{1, 2, 3}))

		require.NoError(t, b.InsertBytes(-10, []byte{9}))
		assert.Equal(t, []byte{1, 2, 3}, b.Bytes())

		require.NoError(t, b.Remove(-4, 2))
		assert.Equal(t, []byte{1, 2, 3}, b.Bytes())
	})
}

func TestSelfOverlappingAppend(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		for _, a := range []alloc.Allocator{alloc.Heap(), alloc.NewPool()} {
			content := []byte{1, 2, 3, 4, 5, 6}
			b := filled(t, newBuf, content, WithAllocator(a))

			src := b.Bytes()[2:5]
			want := append(append([]byte{}, content...), append([]byte{}, src...)...)

			require.NoError(t, b.AppendBytes(src))
			assert.Equal(t, want, b.Bytes())
		}
	})
}

func TestSelfOverlappingInsert(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		content := []byte{1, 2, 3, 4, 5, 6}
		b := filled(t, newBuf, content)

		require.NoError(t, b.InsertBytes(1, b.Bytes()[0:4]))
		assert.Equal(t, []byte{1, 1, 2, 3, 4, 2, 3, 4, 5, 6}, b.Bytes())
	})
}

func TestReallocate(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := filled(t, newBuf, []byte{1, 2, 3, 4})

		require.NoError(t, b.Reallocate(4))
		assert.Equal(t, []byte{1, 2, 3, 4}, b.Bytes())

		require.NoError(t, b.Reallocate(6))
		assert.Equal(t, []byte{1, 2, 3, 4, 0, 0}, b.Bytes())

		require.NoError(t, b.Reallocate(2))
		assert.Equal(t, []byte{1, 2}, b.Bytes())

		require.NoError(t, b.Reallocate(3))
		assert.Equal(t, []byte{1, 2, 0}, b.Bytes(), "regrown bytes must be zeroed")

		assert.True(t, errors.Is(b.Reallocate(-1), core.ErrInvalidLength))

		require.NoError(t, b.Reallocate(0))
		assertNullState(t, b)
	})
}

func TestReallocateBorrowedBecomesOwned(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		data := []byte{1, 2, 3}
		b := newBuf()
		require.NoError(t, b.Reset(data, false))
		require.NoError(t, b.Append(5))

		assert.True(t, b.Owning())
		assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0}, b.Bytes())
		assert.Equal(t, []byte{1, 2, 3}, data)
	})
}

func TestAllocationFailureLeavesBufferUnchanged(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		limited := alloc.NewLimited(nil, 8)
		b := newBuf(WithAllocator(limited), WithGrowth(ExactGrowth))
		require.NoError(t, b.AppendBytes([]byte{1, 2, 3, 4}))

		err := b.AppendBytes(make([]byte, 16))
		assert.True(t, errors.Is(err, core.ErrAllocFailed))
		assert.Equal(t, []byte{1, 2, 3, 4}, b.Bytes())

		err = b.Insert(1, 16)
		assert.True(t, errors.Is(err, core.ErrAllocFailed))
		assert.Equal(t, []byte{1, 2, 3, 4}, b.Bytes())
		assert.True(t, b.Owning())
	})
}

// refusingAllocator hands out heap memory but refuses every deallocation.
type refusingAllocator struct {
	deallocations int
}

func (r *refusingAllocator) Allocate(n int) []byte {
	if n <= 0 {
		return nil
	}
	return make([]byte, n)
}

func (r *refusingAllocator) Deallocate([]byte) error {
	r.deallocations++
	return errors.New("refused")
}

func TestReleaseFailureEntersNullState(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		refusing := &refusingAllocator{}
		b := newBuf(WithAllocator(refusing))
		require.NoError(t, b.Reset(make([]byte, 64), true))

		err := b.Reallocate(100)
		assert.True(t, errors.Is(err, core.ErrReleaseFailed))
		assertNullState(t, b)
		assert.Equal(t, 2, refusing.deallocations, "old storage released, new storage handed back")
	})
}

func TestResetReleaseFailure(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := newBuf(WithAllocator(&refusingAllocator{}))
		require.NoError(t, b.Reset(make([]byte, 64), true))

		err := b.Reset([]byte{1, 2}, false)
		assert.True(t, errors.Is(err, core.ErrReleaseFailed))
		assertNullState(t, b)
	})
}

func TestResetToOwnSubRangeReleasesWholeStorage(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		for _, owns := range []bool{true, false} {
			limited := alloc.NewLimited(alloc.NewPool(), 1024)
			b := filled(t, newBuf, []byte{1, 2, 3, 4, 5, 6, 7, 8}, WithAllocator(limited))
			charged := limited.Outstanding()
			require.NotZero(t, charged)

			sub := b.Bytes()[2:6]
			require.NoError(t, b.Reset(sub, owns))
			assert.Equal(t, []byte{3, 4, 5, 6}, b.Bytes())
			assert.True(t, b.Owning(), "storage is still owned by the buffer")
			assert.Equal(t, charged, limited.Outstanding())

			require.NoError(t, b.Reset(b.Bytes()[1:], owns))
			assert.Equal(t, []byte{4, 5, 6}, b.Bytes())

			require.NoError(t, b.Reset(nil, false))
			assertNullState(t, b)
			assert.Equal(t, 0, limited.Outstanding())
		}
	})
}

func TestBorrowedRegionIsNeverReleased(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		refusing := &refusingAllocator{}
		b := newBuf(WithAllocator(refusing))
		require.NoError(t, b.Reset(make([]byte, 32), false))
		require.NoError(t, b.Reset(nil, false))
		assertNullState(t, b)
		assert.Equal(t, 0, refusing.deallocations)
	})
}

func TestNoLeaksAfterOperations(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		limited := alloc.NewLimited(alloc.NewPool(), 1<<20)
		b := newBuf(WithAllocator(limited))

		require.NoError(t, b.AppendBytes([]byte{1, 2, 3}))
		require.NoError(t, b.Insert(1, 100))
		require.NoError(t, b.Remove(-50, 20))
		require.NoError(t, b.Append(300))
		c, err := b.Clone()
		require.NoError(t, err)
		require.NoError(t, b.CopyFrom(b))

		require.NoError(t, b.Reallocate(0))
		require.NoError(t, c.Reallocate(0))
		assert.Equal(t, 0, limited.Outstanding())
	})
}

func TestCapacityGrowth(t *testing.T) {
	b := NewCapacity(WithGrowth(DoublingGrowth))
	for i := 0; i < 100; i++ {
		require.NoError(t, b.AppendBytes([]byte{byte(i)}))
		assert.GreaterOrEqual(t, b.Cap(), b.Len())
	}
	assert.Equal(t, 100, b.Len())
	assert.Equal(t, 128, b.Cap())

	exact := NewCapacity(WithGrowth(ExactGrowth))
	require.NoError(t, exact.Append(10))
	require.NoError(t, exact.Append(3))
	assert.Equal(t, 13, exact.Cap())
}

func TestCapacityReallocateWithinCapacityKeepsStorage(t *testing.T) {
	b := NewCapacity()
	require.NoError(t, b.Append(64))
	ptr := dataPtr(b.Bytes())
	capacity := b.Cap()

	for _, n := range []int{1, 10, 64, capacity, 32} {
		require.NoError(t, b.Reallocate(n))
		assert.Equal(t, ptr, dataPtr(b.Bytes()), "reallocate(%d) moved storage", n)
		assert.Equal(t, n, b.Len())
		assert.Equal(t, capacity, b.Cap())
	}
}

func TestCapacityRemoveKeepsStorage(t *testing.T) {
	b := NewCapacity()
	require.NoError(t, b.AppendBytes([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
	ptr := dataPtr(b.Bytes())

	require.NoError(t, b.Remove(2, 3))
	assert.Equal(t, []byte{1, 2, 6, 7, 8}, b.Bytes())
	assert.Equal(t, ptr, dataPtr(b.Bytes()))

	require.NoError(t, b.Insert(-1, 2))
	assert.Equal(t, []byte{1, 2, 6, 7, 0, 0, 8}, b.Bytes())
	assert.Equal(t, ptr, dataPtr(b.Bytes()))
}

func TestCapacityBorrowedInPlace(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	b := NewCapacity()
	require.NoError(t, b.Reset(data, false))

	require.NoError(t, b.Remove(1, 2))
	assert.Equal(t, []byte{1, 4, 5}, b.Bytes())
	assert.False(t, b.Owning(), "shrinking borrowed storage keeps it borrowed")
	assert.Equal(t, dataPtr(data), dataPtr(b.Bytes()))
}

func TestClone(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := filled(t, newBuf, []byte{1, 2, 3})
		c, err := b.Clone()
		require.NoError(t, err)

		assert.Equal(t, b.Bytes(), c.Bytes())
		assert.NotEqual(t, dataPtr(b.Bytes()), dataPtr(c.Bytes()))
		assert.True(t, c.Owning())

		c.Bytes()[0] = 0xFF
		assert.Equal(t, byte(1), b.Bytes()[0])

		empty, err := newBuf().Clone()
		require.NoError(t, err)
		assertNullState(t, empty)
	})
}

func TestCloneOfBorrowedIsOwned(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		data := []byte{4, 5, 6}
		b := newBuf()
		require.NoError(t, b.Reset(data, false))

		c, err := b.Clone()
		require.NoError(t, err)
		assert.True(t, c.Owning())
		assert.Equal(t, data, c.Bytes())
		assert.NotEqual(t, dataPtr(data), dataPtr(c.Bytes()))
	})
}

func TestCopyFromSelf(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		data := []byte{7, 8, 9}
		b := newBuf(WithAllocator(alloc.NewPool()))
		require.NoError(t, b.Reset(data, false))

		require.NoError(t, b.CopyFrom(b))
		assert.Equal(t, []byte{7, 8, 9}, b.Bytes())
		assert.True(t, b.Owning())
		assert.NotEqual(t, dataPtr(data), dataPtr(b.Bytes()))
	})
}

func TestCopyFromEmpty(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := filled(t, newBuf, []byte{1})
		require.NoError(t, b.CopyFrom(newBuf()))
		assertNullState(t, b)
	})
}

func TestMove(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := filled(t, newBuf, []byte{1, 2, 3})
		ptr := dataPtr(b.Bytes())

		m := b.Move()
		assertNullState(t, b)
		assert.Equal(t, []byte{1, 2, 3}, m.Bytes())
		assert.Equal(t, ptr, dataPtr(m.Bytes()), "move must not copy")
		assert.True(t, m.Owning())
	})
}

func TestMoveFrom(t *testing.T) {
	for _, dst := range variants {
		for _, src := range variants {
			t.Run(dst.name+"<-"+src.name, func(t *testing.T) {
				s := filled(t, src.new, []byte{1, 2, 3})
				require.NoError(t, s.Remove(-1, 1))
				d := filled(t, dst.new, []byte{9})

				require.NoError(t, d.MoveFrom(s))
				assertNullState(t, s)
				assert.Equal(t, []byte{1, 2}, d.Bytes())
				assert.True(t, d.Owning())

				require.NoError(t, d.Append(1))
				assert.Equal(t, []byte{1, 2, 0}, d.Bytes())
			})
		}
	}
}

func TestMoveFromSelf(t *testing.T) {
	forEachVariant(t, func(t *testing.T, newBuf func(opts ...Option) Buffer) {
		b := filled(t, newBuf, []byte{1, 2})
		require.NoError(t, b.MoveFrom(b))
		assert.Equal(t, []byte{1, 2}, b.Bytes())
	})
}

func TestMovedRegionReturnsToItsAllocator(t *testing.T) {
	limited := alloc.NewLimited(nil, 64)
	src := NewLength(WithAllocator(limited))
	require.NoError(t, src.Append(16))
	require.Equal(t, 16, limited.Outstanding())

	dst := NewCapacity()
	require.NoError(t, dst.MoveFrom(src))
	require.NoError(t, dst.Reallocate(0))
	assert.Equal(t, 0, limited.Outstanding())
}

func TestPresentIsPermissive(t *testing.T) {
	b := NewCapacity()
	require.NoError(t, b.Append(4))
	require.NoError(t, b.Remove(0, 4))
	assert.Equal(t, 0, b.Len())
	assert.True(t, b.Present(), "holding storage is not null-state")
}

func TestNewVariant(t *testing.T) {
	assert.IsType(t, &LengthBuffer{}, New(LengthOnly))
	assert.IsType(t, &CapacityBuffer{}, New(CapacityAware))
	assert.Equal(t, "length", LengthOnly.String())
	assert.Equal(t, "capacity", CapacityAware.String())
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("capacity")
	require.NoError(t, err)
	assert.Equal(t, CapacityAware, v)

	v, err = ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, LengthOnly, v)

	_, err = ParseVariant("ring")
	assert.Error(t, err)
}

func TestParseGrowth(t *testing.T) {
	g, err := ParseGrowth("exact")
	require.NoError(t, err)
	assert.Equal(t, 7, g(4, 7))

	g, err = ParseGrowth("double")
	require.NoError(t, err)
	assert.Equal(t, 8, g(4, 7))
	assert.Equal(t, 20, g(4, 20))

	_, err = ParseGrowth("triple")
	assert.Error(t, err)
}

func TestAliases(t *testing.T) {
	a := make([]byte, 10)
	assert.True(t, aliases(a[2:4], a))
	assert.True(t, aliases(a, a[9:]))
	assert.False(t, aliases(a, make([]byte, 10)))
	assert.False(t, aliases(nil, a))

	src := []byte{1, 2, 3}
	assert.True(t, bytes.Equal(src, detach(src, a)))
	d := detach(a[1:3], a)
	assert.NotEqual(t, dataPtr(a[1:3]), dataPtr(d))
}
