/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package ringbuf provides a bounded FIFO ring buffer.
//
// Ring is an index-based circular buffer over a single contiguous slice.
// It never overwrites: Push reports false once the configured capacity is reached,
// and it is up to the caller to free space (Pop) before pushing again.
// The backing slice may either be allocated upfront (NewPreallocated)
// or grown lazily by doubling until it reaches the capacity (New).
package ringbuf
