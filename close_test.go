// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cq_test

import (
	"errors"
	"sync"
	"testing"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/cq"
)

// =============================================================================
// Close Protocol
// =============================================================================

// TestCloseIdempotent verifies the open→closed transition happens
// exactly once and never reverts.
func TestCloseIdempotent(t *testing.T) {
	for _, tc := range []struct {
		name string
		q    *cq.Queue[int]
	}{
		{"bounded", cq.NewBounded[int](4)},
		{"single", cq.NewBounded[int](1)},
		{"unbounded", cq.NewUnbounded[int]()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if tc.q.IsClosed() {
				t.Fatal("fresh queue should be open")
			}
			if !tc.q.Close() {
				t.Fatal("first Close should perform the transition")
			}
			if !tc.q.IsClosed() {
				t.Fatal("queue should be closed")
			}
			if tc.q.Close() {
				t.Fatal("second Close should return false")
			}
			if !tc.q.IsClosed() {
				t.Fatal("queue should stay closed")
			}
		})
	}
}

// TestCloseConcurrent races many Close callers; exactly one must win
// the transition.
func TestCloseConcurrent(t *testing.T) {
	if cq.RaceEnabled {
		t.Skip("skip: atomix orderings are invisible to the race detector")
	}

	const callers = 16

	for _, tc := range []struct {
		name string
		q    *cq.Queue[int]
	}{
		{"bounded", cq.NewBounded[int](8)},
		{"unbounded", cq.NewUnbounded[int]()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var wg sync.WaitGroup
			var transitions atomix.Int64

			for range callers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if tc.q.Close() {
						transitions.Add(1)
					}
				}()
			}
			wg.Wait()

			if got := transitions.Load(); got != 1 {
				t.Fatalf("Close transitions: got %d, want 1", got)
			}
			if !tc.q.IsClosed() {
				t.Fatal("queue should be closed")
			}
		})
	}
}

// TestDrainAfterClose verifies that closing never drops accepted
// elements: every element enqueued before the close is still
// delivered in order, and only then does Dequeue report ErrClosed.
func TestDrainAfterClose(t *testing.T) {
	for _, tc := range []struct {
		name string
		q    *cq.Queue[int]
		n    int
	}{
		{"bounded", cq.NewBounded[int](8), 5},
		{"single", cq.NewBounded[int](1), 1},
		{"unbounded", cq.NewUnbounded[int](), 100},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for i := range tc.n {
				v := i
				if err := tc.q.Enqueue(&v); err != nil {
					t.Fatalf("Enqueue(%d): %v", i, err)
				}
			}

			if !tc.q.Close() {
				t.Fatal("Close should perform the transition")
			}

			// No new elements after close.
			v := 999
			if err := tc.q.Enqueue(&v); !errors.Is(err, cq.ErrClosed) {
				t.Fatalf("Enqueue after close: got %v, want ErrClosed", err)
			}

			// Everything enqueued before the close drains in order.
			for i := range tc.n {
				got, err := tc.q.Dequeue()
				if err != nil {
					t.Fatalf("Dequeue(%d) while draining: %v", i, err)
				}
				if got != i {
					t.Fatalf("Dequeue(%d): got %d, want %d", i, got, i)
				}
			}

			// Closed-and-drained: now, and only now, ErrClosed.
			if _, err := tc.q.Dequeue(); !errors.Is(err, cq.ErrClosed) {
				t.Fatalf("Dequeue after drain: got %v, want ErrClosed", err)
			}
			// And it stays that way.
			if _, err := tc.q.Dequeue(); !errors.Is(err, cq.ErrClosed) {
				t.Fatalf("repeated Dequeue after drain: got %v, want ErrClosed", err)
			}
		})
	}
}

// TestDrainAfterCloseZst mirrors TestDrainAfterClose for zero-sized
// element types.
func TestDrainAfterCloseZst(t *testing.T) {
	q := cq.NewUnbounded[struct{}]()
	v := struct{}{}

	for range 3 {
		if err := q.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	if !q.Close() {
		t.Fatal("Close should perform the transition")
	}
	if err := q.Enqueue(&v); !errors.Is(err, cq.ErrClosed) {
		t.Fatalf("Enqueue after close: got %v, want ErrClosed", err)
	}
	for range 3 {
		if _, err := q.Dequeue(); err != nil {
			t.Fatalf("Dequeue while draining: %v", err)
		}
	}
	if _, err := q.Dequeue(); !errors.Is(err, cq.ErrClosed) {
		t.Fatalf("Dequeue after drain: got %v, want ErrClosed", err)
	}
}

// TestCloseEmptyQueue verifies an empty closed queue reports ErrClosed
// immediately.
func TestCloseEmptyQueue(t *testing.T) {
	q := cq.NewUnbounded[int]()
	q.Close()
	if _, err := q.Dequeue(); !errors.Is(err, cq.ErrClosed) {
		t.Fatalf("Dequeue on empty closed queue: got %v, want ErrClosed", err)
	}
}

// TestCloseEnqueueRace races Close against a concurrent Enqueue. The
// element must either be accepted and later dequeued, or rejected with
// ErrClosed — never silently dropped and never both.
func TestCloseEnqueueRace(t *testing.T) {
	if cq.RaceEnabled {
		t.Skip("skip: atomix orderings are invisible to the race detector")
	}

	const rounds = 1000

	for round := range rounds {
		q := cq.NewUnbounded[int]()

		// A resident element so the close never races an empty queue.
		resident := -1
		if err := q.Enqueue(&resident); err != nil {
			t.Fatalf("round %d: Enqueue(resident): %v", round, err)
		}

		var wg sync.WaitGroup
		var enqErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			q.Close()
		}()
		go func() {
			defer wg.Done()
			v := 99
			enqErr = q.Enqueue(&v)
		}()
		wg.Wait()

		// Drain completely and look for the raced element.
		seen99 := false
		for {
			v, err := q.Dequeue()
			if err != nil {
				if !errors.Is(err, cq.ErrClosed) {
					t.Fatalf("round %d: Dequeue: %v", round, err)
				}
				break
			}
			if v == 99 {
				if seen99 {
					t.Fatalf("round %d: element delivered twice", round)
				}
				seen99 = true
			}
		}

		switch {
		case enqErr == nil && !seen99:
			t.Fatalf("round %d: accepted element was dropped", round)
		case enqErr != nil && seen99:
			t.Fatalf("round %d: rejected element was delivered", round)
		case enqErr != nil && !errors.Is(enqErr, cq.ErrClosed):
			t.Fatalf("round %d: Enqueue: got %v, want nil or ErrClosed", round, enqErr)
		}
	}
}
