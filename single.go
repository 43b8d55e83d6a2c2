// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// State bits for the single-slot engine.
const (
	// singleLocked is held while a producer or consumer is copying
	// the value in or out of the slot.
	singleLocked uint64 = 1 << iota
	// singlePushed is set while the slot holds a value.
	singlePushed
	// singleClosed is set once the queue is closed; never cleared.
	singleClosed
)

// single is a bounded queue specialized for capacity 1: the whole
// handshake collapses into one state word guarding one slot. No
// cursors, no laps.
type single[T any] struct {
	state atomix.Uint64
	_     padShort
	data  T
}

func newSingle[T any]() *single[T] {
	return &single[T]{}
}

// enqueue adds the element if the slot is free.
// Returns ErrFull if occupied, ErrClosed if the queue is closed.
func (q *single[T]) enqueue(elem *T) error {
	// Reserve the slot, keeping it locked while the value is copied.
	if q.state.CompareAndSwapAcqRel(0, singleLocked|singlePushed) {
		q.data = *elem
		q.unlock()
		return nil
	}
	if q.state.LoadAcquire()&singleClosed != 0 {
		return ErrClosed
	}
	return ErrFull
}

// dequeue takes the element out of the slot.
// Returns ErrEmpty if the slot is free, ErrClosed once closed and
// drained.
func (q *single[T]) dequeue() (T, error) {
	sw := spin.Wait{}
	for {
		state := q.state.LoadAcquire()

		if state&singleLocked != 0 {
			// A producer or consumer holds the slot; wait for the
			// handshake to finish.
			sw.Once()
			continue
		}

		if state&singlePushed == 0 {
			var zero T
			if state&singleClosed != 0 {
				return zero, ErrClosed
			}
			return zero, ErrEmpty
		}

		// Take the value, keeping the closed flag intact.
		if q.state.CompareAndSwapAcqRel(state, singleLocked|(state&singleClosed)) {
			elem := q.data
			var zero T
			q.data = zero
			q.unlock()
			return elem, nil
		}
		sw.Once()
	}
}

// unlock clears the lock bit while preserving every other bit; a
// concurrent close may set singleClosed at any moment.
func (q *single[T]) unlock() {
	sw := spin.Wait{}
	for {
		state := q.state.LoadAcquire()
		if q.state.CompareAndSwapAcqRel(state, state&^singleLocked) {
			return
		}
		sw.Once()
	}
}

// close sets the closed flag. Returns true iff this call performed
// the transition.
func (q *single[T]) close() bool {
	sw := spin.Wait{}
	for {
		state := q.state.LoadAcquire()
		if state&singleClosed != 0 {
			return false
		}
		if q.state.CompareAndSwapAcqRel(state, state|singleClosed) {
			return true
		}
		sw.Once()
	}
}

func (q *single[T]) isClosed() bool {
	return q.state.LoadAcquire()&singleClosed != 0
}

func (q *single[T]) isEmpty() bool {
	return q.state.LoadAcquire()&singlePushed == 0
}

func (q *single[T]) isFull() bool {
	return q.state.LoadAcquire()&singlePushed != 0
}

func (q *single[T]) length() int {
	if q.state.LoadAcquire()&singlePushed != 0 {
		return 1
	}
	return 0
}
