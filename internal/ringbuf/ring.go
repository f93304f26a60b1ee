/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package ringbuf

// minLazySize is the length of the backing slice allocated by the first push into a lazily grown Ring.
const minLazySize = 8

// Ring is a bounded FIFO queue. Values are read from the front (oldest) and written to the back (newest).
// Ring is not safe for concurrent use.
type Ring[T any] struct {
	s        []T
	head     int // index of the oldest value in s
	size     int // number of stored values
	capacity int
}

// New creates a new Ring that may hold up to capacity values.
// Memory is allocated on demand: the backing slice starts empty and doubles (up to capacity) when it is full.
// New panics if capacity is not positive.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("ringbuf: capacity must be positive")
	}
	return &Ring[T]{capacity: capacity}
}

// NewPreallocated creates a new Ring that may hold up to capacity values
// and allocates all the memory it will ever need right away, so Push never allocates.
// NewPreallocated panics if capacity is not positive.
func NewPreallocated[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("ringbuf: capacity must be positive")
	}
	return &Ring[T]{s: make([]T, capacity), capacity: capacity}
}

// Len returns the number of stored values.
func (x *Ring[T]) Len() int {
	return x.size
}

// Cap returns the maximum number of values the Ring may hold.
func (x *Ring[T]) Cap() int {
	return x.capacity
}

// Push appends v to the back of the Ring.
// It returns false and leaves the Ring untouched if the Ring is full.
func (x *Ring[T]) Push(v T) bool {
	if x.size == x.capacity {
		return false
	}
	if x.size == len(x.s) {
		x.grow()
	}
	x.s[x.index(x.size)] = v
	x.size++
	return true
}

// Peek returns the oldest value without removing it.
// The second return value is false if the Ring is empty.
func (x *Ring[T]) Peek() (v T, ok bool) {
	if x.size == 0 {
		return v, false
	}
	return x.s[x.head], true
}

// Pop removes and returns the oldest value.
// The second return value is false if the Ring is empty.
func (x *Ring[T]) Pop() (v T, ok bool) {
	if x.size == 0 {
		return v, false
	}
	var zero T
	v = x.s[x.head]
	x.s[x.head] = zero
	x.size--
	if x.size == 0 {
		// everything is nicer when not wrapped around
		x.head = 0
	} else {
		x.head = x.index(1)
	}
	return v, true
}

// Slice returns a copy of the stored values, oldest first.
func (x *Ring[T]) Slice() []T {
	if x.size == 0 {
		return nil
	}
	b := make([]T, x.size)
	x.copyTo(b)
	return b
}

// index maps a logical position (0 is the oldest value) to an index in the backing slice.
func (x *Ring[T]) index(i int) int {
	i += x.head
	if i >= len(x.s) {
		i -= len(x.s)
	}
	return i
}

func (x *Ring[T]) copyTo(dst []T) int {
	end := x.head + x.size
	if end <= len(x.s) {
		return copy(dst, x.s[x.head:end])
	}
	n := copy(dst, x.s[x.head:])
	return n + copy(dst[n:], x.s[:end-len(x.s)])
}

// grow enlarges the backing slice, unwrapping the stored values so the oldest one lands at index 0.
func (x *Ring[T]) grow() {
	n := len(x.s) << 1
	if n < minLazySize {
		n = minLazySize
	}
	if n > x.capacity {
		n = x.capacity
	}
	s := make([]T, n)
	x.copyTo(s)
	x.s = s
	x.head = 0
}
