/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("lazy", func(t *testing.T) {
		r := New[int](100)
		require.Equal(t, 0, r.Len())
		require.Equal(t, 100, r.Cap())
		require.Len(t, r.s, 0)
	})

	t.Run("preallocated", func(t *testing.T) {
		r := NewPreallocated[int](100)
		require.Equal(t, 0, r.Len())
		require.Equal(t, 100, r.Cap())
		require.Len(t, r.s, 100)
	})

	t.Run("invalid capacity", func(t *testing.T) {
		require.Panics(t, func() { New[int](0) })
		require.Panics(t, func() { New[int](-1) })
		require.Panics(t, func() { NewPreallocated[int](0) })
	})
}

func TestRing_PushPeekPop(t *testing.T) {
	for _, tt := range []struct {
		name    string
		newRing func(capacity int) *Ring[int]
	}{
		{"lazy", New[int]},
		{"preallocated", NewPreallocated[int]},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := tt.newRing(3)

			_, ok := r.Peek()
			require.False(t, ok)
			_, ok = r.Pop()
			require.False(t, ok)

			require.True(t, r.Push(1))
			require.True(t, r.Push(2))
			require.True(t, r.Push(3))
			require.False(t, r.Push(4), "push into a full ring must fail")
			require.Equal(t, []int{1, 2, 3}, r.Slice())

			v, ok := r.Peek()
			require.True(t, ok)
			require.Equal(t, 1, v)
			require.Equal(t, 3, r.Len(), "peek must not remove values")

			v, ok = r.Pop()
			require.True(t, ok)
			require.Equal(t, 1, v)
			require.Equal(t, 2, r.Len())

			// wrap around
			require.True(t, r.Push(4))
			require.False(t, r.Push(5))
			require.Equal(t, []int{2, 3, 4}, r.Slice())

			for _, want := range []int{2, 3, 4} {
				v, ok = r.Pop()
				require.True(t, ok)
				require.Equal(t, want, v)
			}
			_, ok = r.Pop()
			require.False(t, ok)
			require.Nil(t, r.Slice())
			require.Equal(t, 0, r.head)
		})
	}
}

func TestRing_LazyGrowth(t *testing.T) {
	r := New[int](20)

	require.True(t, r.Push(0))
	require.Len(t, r.s, minLazySize)

	for i := 1; i < minLazySize; i++ {
		require.True(t, r.Push(i))
	}
	require.Len(t, r.s, minLazySize)

	// make the ring wrap around before it grows
	for i := 0; i < 3; i++ {
		v, ok := r.Pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	for i := minLazySize; i < minLazySize+3; i++ {
		require.True(t, r.Push(i))
	}
	require.Len(t, r.s, minLazySize)
	require.NotEqual(t, 0, r.head)

	require.True(t, r.Push(11))
	require.Len(t, r.s, minLazySize*2)
	require.Equal(t, 0, r.head)
	require.Equal(t, []int{3, 4, 5, 6, 7, 8, 9, 10, 11}, r.Slice())

	for i := 12; r.Len() < r.Cap(); i++ {
		require.True(t, r.Push(i))
	}
	require.Len(t, r.s, 20, "backing slice must not outgrow the capacity")
	require.False(t, r.Push(100))

	want := make([]int, 0, 20)
	for i := 3; i < 23; i++ {
		want = append(want, i)
	}
	require.Equal(t, want, r.Slice())
}

func TestRing_PopReleasesValue(t *testing.T) {
	type item struct{ payload []byte }
	r := NewPreallocated[*item](2)
	require.True(t, r.Push(&item{payload: make([]byte, 10)}))
	_, ok := r.Pop()
	require.True(t, ok)
	require.Nil(t, r.s[0])
}

func TestRing_ManyCycles(t *testing.T) {
	const capacity = 5
	r := NewPreallocated[int](capacity)
	next, expected := 0, 0
	for cycle := 0; cycle < 100; cycle++ {
		for r.Push(next) {
			next++
		}
		require.Equal(t, capacity, r.Len())
		toPop := cycle%capacity + 1
		for i := 0; i < toPop; i++ {
			v, ok := r.Pop()
			require.True(t, ok)
			require.Equal(t, expected, v)
			expected++
		}
	}
}
