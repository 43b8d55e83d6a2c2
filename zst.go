// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cq

import (
	"math"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// zstClosed is the closed flag in the packed state word; the
// remaining bits hold the element count.
const (
	zstClosed     uint64 = 1
	zstCountShift        = 1
)

// zst is a queue of zero-sized elements. Every element is the same
// (zero) value, so no storage is needed; the whole queue collapses
// into one state word packing an element count and the closed flag.
//
// A cap of 0 means unbounded.
type zst[T any] struct {
	state atomix.Uint64
	_     padShort
	cap   uint64
}

func newZst[T any](capacity int) *zst[T] {
	return &zst[T]{cap: uint64(capacity)}
}

// enqueue counts one more element.
// Returns ErrFull at capacity, ErrClosed if the queue is closed.
func (q *zst[T]) enqueue() error {
	sw := spin.Wait{}
	for {
		state := q.state.LoadAcquire()
		if state&zstClosed != 0 {
			return ErrClosed
		}

		count := state >> zstCountShift
		if q.cap != 0 && count >= q.cap {
			return ErrFull
		}
		// Keep the count representable in the packed word.
		if count >= math.MaxUint64>>zstCountShift {
			return ErrFull
		}

		if q.state.CompareAndSwapAcqRel(state, state+(1<<zstCountShift)) {
			return nil
		}
		sw.Once()
	}
}

// dequeue counts one element out and returns the zero value.
// Returns ErrEmpty when the count is zero, ErrClosed once closed and
// drained.
func (q *zst[T]) dequeue() (T, error) {
	sw := spin.Wait{}
	var zero T
	for {
		state := q.state.LoadAcquire()
		if state>>zstCountShift == 0 {
			if state&zstClosed != 0 {
				return zero, ErrClosed
			}
			return zero, ErrEmpty
		}

		if q.state.CompareAndSwapAcqRel(state, state-(1<<zstCountShift)) {
			return zero, nil
		}
		sw.Once()
	}
}

// close sets the closed flag. Returns true iff this call performed
// the transition.
func (q *zst[T]) close() bool {
	sw := spin.Wait{}
	for {
		state := q.state.LoadAcquire()
		if state&zstClosed != 0 {
			return false
		}
		if q.state.CompareAndSwapAcqRel(state, state|zstClosed) {
			return true
		}
		sw.Once()
	}
}

func (q *zst[T]) isClosed() bool {
	return q.state.LoadAcquire()&zstClosed != 0
}

func (q *zst[T]) isEmpty() bool {
	return q.state.LoadAcquire()>>zstCountShift == 0
}

func (q *zst[T]) isFull() bool {
	if q.cap == 0 {
		return false
	}
	return q.state.LoadAcquire()>>zstCountShift >= q.cap
}

func (q *zst[T]) length() int {
	return int(q.state.LoadAcquire() >> zstCountShift)
}

func (q *zst[T]) capacity() int {
	if q.cap == 0 {
		return -1
	}
	return int(q.cap)
}
