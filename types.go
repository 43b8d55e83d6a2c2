// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cq

// Producer is the interface for enqueueing elements.
//
// The element is passed by pointer to avoid copying large structs. On
// success the queue stores a copy of the pointed-to value, so the
// original can be modified afterwards. On failure (ErrFull, ErrClosed)
// the queue did not touch the value and the caller still owns it.
type Producer[T any] interface {
	// Enqueue adds an element to the queue (non-blocking).
	// Returns nil on success, ErrFull if the queue is at capacity,
	// ErrClosed if the queue has been closed.
	Enqueue(elem *T) error
}

// Consumer is the interface for dequeueing elements.
//
// The element is returned by value (copied out of the queue's internal
// storage). The vacated slot is cleared so the garbage collector can
// reclaim anything the element referenced.
type Consumer[T any] interface {
	// Dequeue removes and returns an element (non-blocking).
	// Returns (zero-value, ErrEmpty) if no element is available, or
	// (zero-value, ErrClosed) once the queue is closed and drained.
	Dequeue() (T, error)
}

// Closer is the shutdown half of a queue.
//
// Close is cooperative: after it takes effect no new elements are
// accepted, but elements enqueued before the close remain deliverable
// until the queue is drained. The transition is monotonic — once
// closed, a queue stays closed.
type Closer interface {
	// Close closes the queue. Returns true iff this call performed
	// the open→closed transition; every other concurrent or later
	// call returns false.
	Close() bool

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}
