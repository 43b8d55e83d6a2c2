// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cq

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Slot state bits for the unbounded engine.
const (
	// slotWrite is set once a value has been written into the slot.
	slotWrite uint64 = 1 << iota
	// slotRead is set once the value has been read out of the slot.
	slotRead
	// slotDestroy is set when block retirement is handed off to the
	// reader still occupying the slot.
	slotDestroy
)

const (
	// blockLap is the index span covered by one block.
	blockLap = 32
	// blockCap is the number of usable slots per block. The final
	// index of each lap is reserved as the block boundary.
	blockCap = blockLap - 1
	// indexShift is the number of cursor bits reserved for metadata.
	indexShift = 2
	// hasNextBit marks a head cursor whose block is not the last one.
	hasNextBit uint64 = 1
	// closedBit marks a closed queue; tail cursor only.
	closedBit uint64 = 2
)

// unboundedSlot is one storage cell in a block.
type unboundedSlot[T any] struct {
	state atomix.Uint64
	data  T
	_     padShort // Pad to cache line
}

// waitWrite spins until a value is written into the slot.
func (s *unboundedSlot[T]) waitWrite() {
	sw := spin.Wait{}
	for s.state.LoadAcquire()&slotWrite == 0 {
		sw.Once()
	}
}

// setState ors bits into the slot state and returns the previous
// state. atomix has no fetch-or, so this is a CAS loop.
func (s *unboundedSlot[T]) setState(bits uint64) uint64 {
	sw := spin.Wait{}
	for {
		old := s.state.LoadAcquire()
		if old&bits == bits {
			return old
		}
		if s.state.CompareAndSwapAcqRel(old, old|bits) {
			return old
		}
		sw.Once()
	}
}

// block is one link in the unbounded queue's chain of slots.
type block[T any] struct {
	next  atomic.Pointer[block[T]]
	slots [blockCap]unboundedSlot[T]
}

// waitNext spins until the next block is published and returns it.
// Only the producer that reserved the final slot installs next;
// everyone else waits here instead of allocating a duplicate.
func (b *block[T]) waitNext() *block[T] {
	sw := spin.Wait{}
	for {
		if next := b.next.Load(); next != nil {
			return next
		}
		sw.Once()
	}
}

// retire releases a fully consumed block, starting at slot index
// start. A slot whose reader has not yet confirmed slotRead receives
// slotDestroy instead, handing the remainder of the retirement to
// that reader; the unlink below then happens exactly once, after the
// last reader has left the block.
func (b *block[T]) retire(start uint64) {
	// The final slot needs no destroy bit: advancing past it is what
	// triggered this retirement.
	for i := start; i < blockCap-1; i++ {
		slot := &b.slots[i]
		if slot.state.LoadAcquire()&slotRead == 0 &&
			slot.setState(slotDestroy)&slotRead == 0 {
			// A reader still occupies the slot; it finishes the
			// retirement when it sets slotRead.
			return
		}
	}
	// No cursor can reach the block anymore. Unlink it so a stalled
	// external reference cannot pin the rest of the chain.
	b.next.Store(nil)
}

// position is one end of the queue: a packed index plus the block the
// index currently falls into.
type position[T any] struct {
	index atomix.Uint64
	block atomic.Pointer[block[T]]
}

// unbounded is a lock-free multi-producer multi-consumer queue that
// grows in blocks of blockCap slots.
//
// Cursor indices advance by 1<<indexShift per slot; the low bits hold
// metadata (hasNextBit on the head, closedBit on the tail). Offsets
// within a block derive from index >> indexShift modulo blockLap; the
// offset value blockCap marks a block boundary in transition, during
// which both producers and consumers spin until the installer
// publishes the next block.
//
// The first block is installed lazily by the first enqueue.
type unbounded[T any] struct {
	_    pad
	head position[T]
	_    pad
	tail position[T]
	_    pad
}

func newUnbounded[T any]() *unbounded[T] {
	return &unbounded[T]{}
}

// enqueue adds an element to the queue.
// The only failure is ErrClosed; an unbounded queue is never full.
func (q *unbounded[T]) enqueue(elem *T) error {
	sw := spin.Wait{}
	tail := q.tail.index.LoadAcquire()
	b := q.tail.block.Load()
	var next *block[T]

	for {
		if tail&closedBit != 0 {
			return ErrClosed
		}

		offset := (tail >> indexShift) % blockLap

		// Block boundary: the producer that claimed the final slot is
		// installing the next block. Wait it out.
		if offset == blockCap {
			sw.Once()
			tail = q.tail.index.LoadAcquire()
			b = q.tail.block.Load()
			continue
		}

		// Claiming the final slot makes this producer responsible for
		// extending the chain; allocate before the reservation so the
		// publication window stays short.
		if offset+1 == blockCap && next == nil {
			next = new(block[T])
		}

		// First enqueue installs the first block.
		if b == nil {
			n := new(block[T])
			if q.tail.block.CompareAndSwap(nil, n) {
				q.head.block.Store(n)
				b = n
			} else {
				tail = q.tail.index.LoadAcquire()
				b = q.tail.block.Load()
				continue
			}
		}

		newTail := tail + (1 << indexShift)

		if q.tail.index.CompareAndSwapAcqRel(tail, newTail) {
			// Reserved the final slot: publish the next block before
			// touching the slot, so waiting producers can proceed.
			if offset+1 == blockCap {
				q.tail.block.Store(next)
				q.tail.index.AddAcqRel(1 << indexShift)
				b.next.Store(next)
			}

			// Write first, then publish. setState preserves a
			// slotDestroy bit a racing retirement may have planted.
			slot := &b.slots[offset]
			slot.data = *elem
			slot.setState(slotWrite)
			return nil
		}

		sw.Once()
		tail = q.tail.index.LoadAcquire()
		b = q.tail.block.Load()
	}
}

// dequeue removes and returns the oldest element.
// Returns ErrEmpty if no element is available, ErrClosed once the
// queue is closed and drained.
func (q *unbounded[T]) dequeue() (T, error) {
	sw := spin.Wait{}
	head := q.head.index.LoadAcquire()
	b := q.head.block.Load()

	for {
		offset := (head >> indexShift) % blockLap

		// Block boundary in transition.
		if offset == blockCap {
			sw.Once()
			head = q.head.index.LoadAcquire()
			b = q.head.block.Load()
			continue
		}

		newHead := head + (1 << indexShift)

		if newHead&hasNextBit == 0 {
			tail := q.tail.index.LoadAcquire()

			// Head caught up with tail: nothing to dequeue.
			if head>>indexShift == tail>>indexShift {
				var zero T
				if tail&closedBit != 0 {
					return zero, ErrClosed
				}
				return zero, ErrEmpty
			}

			// Head and tail in different blocks: remember that this
			// block has a successor.
			if (head>>indexShift)/blockLap != (tail>>indexShift)/blockLap {
				newHead |= hasNextBit
			}
		}

		// The first block is not installed yet.
		if b == nil {
			sw.Once()
			head = q.head.index.LoadAcquire()
			b = q.head.block.Load()
			continue
		}

		if q.head.index.CompareAndSwapAcqRel(head, newHead) {
			// Reserved the final slot: move the head cursor into the
			// next block.
			if offset+1 == blockCap {
				next := b.waitNext()
				nextIndex := (newHead &^ hasNextBit) + (1 << indexShift)
				if next.next.Load() != nil {
					nextIndex |= hasNextBit
				}
				q.head.block.Store(next)
				q.head.index.StoreRelease(nextIndex)
			}

			slot := &b.slots[offset]
			slot.waitWrite()
			elem := slot.data
			var zero T
			slot.data = zero

			if offset+1 == blockCap {
				// The last reader to enter the block starts its
				// retirement.
				b.retire(0)
			} else if slot.setState(slotRead)&slotDestroy != 0 {
				// A retirement was parked on this slot; finish it.
				b.retire(offset + 1)
			}

			return elem, nil
		}

		sw.Once()
		head = q.head.index.LoadAcquire()
		b = q.head.block.Load()
	}
}

// close sets the closed flag. Returns true iff this call performed
// the transition.
func (q *unbounded[T]) close() bool {
	sw := spin.Wait{}
	for {
		tail := q.tail.index.LoadAcquire()
		if tail&closedBit != 0 {
			return false
		}
		if q.tail.index.CompareAndSwapAcqRel(tail, tail|closedBit) {
			return true
		}
		sw.Once()
	}
}

func (q *unbounded[T]) isClosed() bool {
	return q.tail.index.LoadAcquire()&closedBit != 0
}

func (q *unbounded[T]) isEmpty() bool {
	head := q.head.index.LoadAcquire()
	tail := q.tail.index.LoadAcquire()
	return head>>indexShift == tail>>indexShift
}

// length returns the element count from a consistent cursor snapshot.
// Block boundary indices do not hold elements and are subtracted out.
func (q *unbounded[T]) length() int {
	for {
		tail := q.tail.index.LoadAcquire()
		head := q.head.index.LoadAcquire()

		if q.tail.index.LoadAcquire() != tail {
			continue
		}

		// Erase the metadata bits.
		tail &^= (1 << indexShift) - 1
		head &^= (1 << indexShift) - 1

		// Cursors parked on a block boundary belong to the next block.
		if (tail>>indexShift)&(blockLap-1) == blockLap-1 {
			tail += 1 << indexShift
		}
		if (head>>indexShift)&(blockLap-1) == blockLap-1 {
			head += 1 << indexShift
		}

		// Rotate so the head falls into the first block, then drop a
		// boundary index per lap between the cursors.
		lap := (head >> indexShift) / blockLap
		tail -= (lap * blockLap) << indexShift
		head -= (lap * blockLap) << indexShift
		tail >>= indexShift
		head >>= indexShift

		return int(tail - head - tail/blockLap)
	}
}
