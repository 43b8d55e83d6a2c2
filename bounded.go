// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// bounded is a CAS-based multi-producer multi-consumer ring buffer
// with cooperative close support.
//
// Each slot carries a stamp that encodes whose turn it is to touch the
// slot (writer vs reader) and which lap of reuse is current. The head
// and tail cursors pack a slot index and a lap counter into a single
// word; the tail additionally reserves one bit as the closed flag.
//
// Cursor layout, low to high: index bits, mark bit, lap bits.
// markBit is the smallest power of two greater than cap, so the index
// field can hold every value in [0, cap]. oneLap is markBit*2; a
// cursor's lap field advances by oneLap each time its index wraps.
//
// Capacity is exact, not rounded to a power of two. Slot i starts with
// stamp i: the write-ready stamp for lap 0.
type bounded[T any] struct {
	_      pad
	head   atomix.Uint64 // Consumer cursor: lap | index
	_      pad
	tail   atomix.Uint64 // Producer cursor: lap | mark | index
	_      pad
	buffer  []boundedSlot[T]
	oneLap  uint64
	markBit uint64
	cap     uint64
}

type boundedSlot[T any] struct {
	stamp atomix.Uint64
	data  T
	_     padShort // Pad to cache line
}

func newBounded[T any](capacity int) *bounded[T] {
	n := uint64(capacity)
	markBit := nextPow2(n + 1)

	q := &bounded[T]{
		buffer:  make([]boundedSlot[T], n),
		oneLap:  markBit * 2,
		markBit: markBit,
		cap:     n,
	}

	for i := uint64(0); i < n; i++ {
		q.buffer[i].stamp.StoreRelaxed(i)
	}

	return q
}

// enqueue adds an element to the queue.
// Returns ErrFull if the queue is at capacity, ErrClosed if closed.
func (q *bounded[T]) enqueue(elem *T) error {
	sw := spin.Wait{}
	tail := q.tail.LoadAcquire()
	for {
		if tail&q.markBit != 0 {
			return ErrClosed
		}

		index := tail & (q.markBit - 1)
		lap := tail &^ (q.oneLap - 1)

		slot := &q.buffer[index]
		stamp := slot.stamp.LoadAcquire()

		switch {
		case stamp == tail:
			// Slot is write-ready for this tail; reserve the index.
			var newTail uint64
			if index+1 < q.cap {
				newTail = tail + 1
			} else {
				newTail = lap + q.oneLap
			}
			if q.tail.CompareAndSwapAcqRel(tail, newTail) {
				// Write first, then publish. A reader never observes
				// the slot before the release store of the stamp.
				slot.data = *elem
				slot.stamp.StoreRelease(tail + 1)
				return nil
			}
			tail = q.tail.LoadAcquire()

		case stamp+q.oneLap == tail+1:
			// The slot still holds the value from one lap ago: the
			// ring may be full. Confirm against the head cursor.
			head := q.head.LoadAcquire()
			if head+q.oneLap == tail {
				// Full. A close may have raced in after the tail was
				// loaded; it takes precedence over ErrFull.
				if q.tail.LoadAcquire()&q.markBit != 0 {
					return ErrClosed
				}
				return ErrFull
			}
			// A reader is mid-handshake; retry against a fresh tail.
			sw.Once()
			tail = q.tail.LoadAcquire()

		default:
			// Stale cursor snapshot.
			sw.Once()
			tail = q.tail.LoadAcquire()
		}
	}
}

// dequeue removes and returns the oldest element.
// Returns ErrEmpty if no element is available, ErrClosed once the
// queue is closed and drained.
func (q *bounded[T]) dequeue() (T, error) {
	sw := spin.Wait{}
	head := q.head.LoadAcquire()
	for {
		index := head & (q.markBit - 1)
		lap := head &^ (q.oneLap - 1)

		slot := &q.buffer[index]
		stamp := slot.stamp.LoadAcquire()

		switch {
		case stamp == head+1:
			// Slot is read-ready for this head; reserve the index.
			var newHead uint64
			if index+1 < q.cap {
				newHead = head + 1
			} else {
				newHead = lap + q.oneLap
			}
			if q.head.CompareAndSwapAcqRel(head, newHead) {
				elem := slot.data
				var zero T
				slot.data = zero
				// Hand the slot to the writer of the next lap.
				slot.stamp.StoreRelease(head + q.oneLap)
				return elem, nil
			}
			head = q.head.LoadAcquire()

		case stamp == head:
			// Slot not yet written: the queue may be drained.
			tail := q.tail.LoadAcquire()
			if tail&^q.markBit == head {
				var zero T
				if tail&q.markBit != 0 {
					return zero, ErrClosed
				}
				return zero, ErrEmpty
			}
			// A writer is mid-handshake; retry against a fresh head.
			sw.Once()
			head = q.head.LoadAcquire()

		default:
			// Stale cursor snapshot.
			sw.Once()
			head = q.head.LoadAcquire()
		}
	}
}

// close sets the closed flag. Returns true iff this call performed
// the transition.
func (q *bounded[T]) close() bool {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		if tail&q.markBit != 0 {
			return false
		}
		if q.tail.CompareAndSwapAcqRel(tail, tail|q.markBit) {
			return true
		}
		sw.Once()
	}
}

func (q *bounded[T]) isClosed() bool {
	return q.tail.LoadAcquire()&q.markBit != 0
}

func (q *bounded[T]) isEmpty() bool {
	head := q.head.LoadAcquire()
	tail := q.tail.LoadAcquire()
	return tail&^q.markBit == head
}

func (q *bounded[T]) isFull() bool {
	tail := q.tail.LoadAcquire()
	head := q.head.LoadAcquire()
	return head+q.oneLap == tail&^q.markBit
}

// length returns the number of elements from a consistent cursor
// snapshot; the tail is re-read to reject snapshots torn by a
// concurrent mutator.
func (q *bounded[T]) length() int {
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadAcquire()

		if q.tail.LoadAcquire() != tail {
			continue
		}

		hix := head & (q.markBit - 1)
		tix := tail & (q.markBit - 1)

		switch {
		case hix < tix:
			return int(tix - hix)
		case hix > tix:
			return int(q.cap - hix + tix)
		case tail&^q.markBit == head:
			return 0
		default:
			return int(q.cap)
		}
	}
}

func (q *bounded[T]) capacity() int {
	return int(q.cap)
}
