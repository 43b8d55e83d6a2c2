// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cq

import "unsafe"

// queueKind discriminates the engine variant held by a Queue.
type queueKind uint8

const (
	kindBounded queueKind = iota
	kindUnbounded
	kindSingle
	kindZst
)

// Queue is a concurrent lock-free multi-producer multi-consumer FIFO
// queue.
//
// A Queue is either bounded (fixed capacity chosen at construction) or
// unbounded (grows on demand). Both variants share the same operation
// surface; the only behavioral difference is that an unbounded queue
// never returns ErrFull.
//
// All operations are non-blocking and safe for any number of
// concurrent goroutines. There is no internal lock: every operation
// completes in a bounded number of atomic steps or retries a
// compare-and-swap with an escalating spin/yield.
//
// Example:
//
//	q := cq.NewBounded[int](1024)
//
//	v := 42
//	if err := q.Enqueue(&v); err != nil {
//	    // cq.IsWouldBlock(err): full, retry later
//	    // cq.IsClosed(err): permanently closed
//	}
//
//	elem, err := q.Dequeue()
//	if err == nil {
//	    fmt.Println(elem)
//	}
type Queue[T any] struct {
	kind      queueKind
	bounded   *bounded[T]
	unbounded *unbounded[T]
	single    *single[T]
	zst       *zst[T]
}

// NewBounded creates a bounded queue with the given capacity.
//
// Capacity is exact, not rounded: a queue created with capacity 5
// holds at most 5 elements. Panics if capacity < 1.
//
// The engine is selected from the element type and the capacity:
// zero-sized element types use a counter-only engine, capacity 1 uses
// a single-slot engine, everything else uses a stamped ring buffer.
func NewBounded[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		panic("cq: capacity must be positive")
	}
	var zero T
	switch {
	case unsafe.Sizeof(zero) == 0:
		return &Queue[T]{kind: kindZst, zst: newZst[T](capacity)}
	case capacity == 1:
		return &Queue[T]{kind: kindSingle, single: newSingle[T]()}
	default:
		return &Queue[T]{kind: kindBounded, bounded: newBounded[T](capacity)}
	}
}

// NewUnbounded creates an unbounded queue.
//
// The queue grows in fixed-size blocks as elements are enqueued and
// releases fully consumed blocks to the garbage collector. Enqueue
// never returns ErrFull; the only enqueue failure is ErrClosed.
func NewUnbounded[T any]() *Queue[T] {
	var zero T
	if unsafe.Sizeof(zero) == 0 {
		return &Queue[T]{kind: kindZst, zst: newZst[T](0)}
	}
	return &Queue[T]{kind: kindUnbounded, unbounded: newUnbounded[T]()}
}

// Enqueue adds an element to the queue.
//
// On success the pointed-to value is copied into the queue. On failure
// the value is untouched and still owned by the caller: ErrFull means
// the queue is at capacity (retry later), ErrClosed means the queue
// has been closed (permanent).
func (q *Queue[T]) Enqueue(elem *T) error {
	switch q.kind {
	case kindBounded:
		return q.bounded.enqueue(elem)
	case kindUnbounded:
		return q.unbounded.enqueue(elem)
	case kindSingle:
		return q.single.enqueue(elem)
	default:
		return q.zst.enqueue()
	}
}

// Dequeue removes and returns the oldest element in the queue.
//
// Returns (zero-value, ErrEmpty) when no element is available and the
// queue is open. Once the queue is closed, previously enqueued
// elements are still delivered in order; only after the queue is
// drained does Dequeue return (zero-value, ErrClosed).
func (q *Queue[T]) Dequeue() (T, error) {
	switch q.kind {
	case kindBounded:
		return q.bounded.dequeue()
	case kindUnbounded:
		return q.unbounded.dequeue()
	case kindSingle:
		return q.single.dequeue()
	default:
		return q.zst.dequeue()
	}
}

// Close closes the queue.
//
// After the close takes effect every Enqueue fails with ErrClosed,
// while already enqueued elements remain deliverable via Dequeue.
// Returns true iff this call performed the open→closed transition:
// across any number of concurrent callers exactly one receives true.
// The transition is monotonic; a closed queue never reopens.
func (q *Queue[T]) Close() bool {
	switch q.kind {
	case kindBounded:
		return q.bounded.close()
	case kindUnbounded:
		return q.unbounded.close()
	case kindSingle:
		return q.single.close()
	default:
		return q.zst.close()
	}
}

// IsClosed reports whether the queue has been closed.
func (q *Queue[T]) IsClosed() bool {
	switch q.kind {
	case kindBounded:
		return q.bounded.isClosed()
	case kindUnbounded:
		return q.unbounded.isClosed()
	case kindSingle:
		return q.single.isClosed()
	default:
		return q.zst.isClosed()
	}
}

// IsEmpty reports whether the queue holds no elements.
//
// Under concurrent mutation this is a point-in-time observation and
// may be stale by the time it returns.
func (q *Queue[T]) IsEmpty() bool {
	switch q.kind {
	case kindBounded:
		return q.bounded.isEmpty()
	case kindUnbounded:
		return q.unbounded.isEmpty()
	case kindSingle:
		return q.single.isEmpty()
	default:
		return q.zst.isEmpty()
	}
}

// IsFull reports whether the queue is at capacity.
//
// Always false for unbounded queues. Under concurrent mutation this
// is a point-in-time observation and may be stale by the time it
// returns.
func (q *Queue[T]) IsFull() bool {
	switch q.kind {
	case kindBounded:
		return q.bounded.isFull()
	case kindUnbounded:
		return false
	case kindSingle:
		return q.single.isFull()
	default:
		return q.zst.isFull()
	}
}

// Len returns the number of elements currently in the queue.
//
// Under concurrent mutation this is a point-in-time observation and
// may be stale by the time it returns. For a bounded queue of
// capacity n, Len never exceeds n.
func (q *Queue[T]) Len() int {
	switch q.kind {
	case kindBounded:
		return q.bounded.length()
	case kindUnbounded:
		return q.unbounded.length()
	case kindSingle:
		return q.single.length()
	default:
		return q.zst.length()
	}
}

// Cap returns the queue capacity, or -1 for an unbounded queue.
func (q *Queue[T]) Cap() int {
	switch q.kind {
	case kindBounded:
		return q.bounded.capacity()
	case kindUnbounded:
		return -1
	case kindSingle:
		return 1
	default:
		return q.zst.capacity()
	}
}

// Interface conformance.
var (
	_ Producer[int] = (*Queue[int])(nil)
	_ Consumer[int] = (*Queue[int])(nil)
	_ Closer        = (*Queue[int])(nil)
)

// nextPow2 rounds n up to the next power of 2.
func nextPow2(n uint64) uint64 {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte
