// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cq provides a lock-free concurrent FIFO queue with
// cooperative close support.
//
// The package offers one queue type, [Queue], behind two operating
// modes:
//
//   - Bounded: fixed-capacity ring buffer chosen at construction
//   - Unbounded: grows on demand in fixed-size blocks
//
// Both modes are MPMC: any number of goroutines may enqueue, dequeue
// and close concurrently, with no internal lock.
//
// # Quick Start
//
//	q := cq.NewBounded[Event](1024)   // fixed capacity
//	q := cq.NewUnbounded[*Request]()  // grows on demand
//
// # Basic Usage
//
//	q := cq.NewBounded[int](1024)
//
//	// Enqueue (non-blocking)
//	value := 42
//	err := q.Enqueue(&value)
//	if cq.IsWouldBlock(err) {
//	    // Queue is full - handle backpressure
//	}
//
//	// Dequeue (non-blocking)
//	elem, err := q.Dequeue()
//	if cq.IsWouldBlock(err) {
//	    // Queue is empty - try again later
//	}
//
// # Closing
//
// Close transitions the queue into a closed state exactly once:
//
//	if q.Close() {
//	    // this call performed the transition; every other
//	    // concurrent or later call returns false
//	}
//
// After the close takes effect, Enqueue fails with [ErrClosed] while
// elements enqueued before the close remain deliverable. Dequeue
// keeps returning them in order and reports [ErrClosed] only once the
// queue is drained, so a shutdown never loses accepted elements:
//
//	prodWg.Wait() // producers done
//	q.Close()
//	for {
//	    elem, err := q.Dequeue()
//	    if err != nil {
//	        break // cq.IsClosed(err): fully drained
//	    }
//	    process(elem)
//	}
//
// # Error Handling
//
// Operations return semantic errors, not failures. [ErrFull] and
// [ErrEmpty] are transient and wrap [code.hybscloud.com/iox]'s
// ErrWouldBlock; [ErrClosed] is permanent. On any enqueue failure the
// element is untouched and still owned by the caller.
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.Enqueue(&item)
//	    if err == nil {
//	        break
//	    }
//	    if cq.IsClosed(err) {
//	        return err // queue shut down, item still ours
//	    }
//	    backoff.Wait() // full, retry
//	}
//
// # Capacity and Length
//
// Capacity is exact: NewBounded[T](5) holds at most 5 elements, and
// Cap reports 5. Unbounded queues report Cap() == -1 and are never
// full.
//
// Len, IsEmpty, IsFull and IsClosed are point-in-time snapshots. They
// are exact while the queue is quiescent; under concurrent mutation
// they may be stale by the time they return, though Len never exceeds
// the capacity of a bounded queue.
//
// # Blocking
//
// Nothing in this package blocks or waits. Every operation either
// completes or returns a semantic error after a bounded number of
// atomic steps; contended compare-and-swap loops retry through
// [code.hybscloud.com/spin], which escalates from CPU pause to
// scheduler yield. Layer channels or condition variables on top of
// the Full/Empty/Closed signals when waiting semantics are needed.
//
// # Race Detection
//
// Go's race detector cannot track happens-before relationships
// established through atomic memory orderings on separate variables,
// so it may report false positives against the per-slot handshake.
// Concurrent tests are skipped under the race detector via the
// RaceEnabled constant.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause
// instructions.
package cq
