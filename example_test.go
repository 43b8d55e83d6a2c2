// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cq_test

import (
	"fmt"

	"code.hybscloud.com/cq"
)

// ExampleNewBounded demonstrates a bounded queue with backpressure.
func ExampleNewBounded() {
	q := cq.NewBounded[int](2)

	for i := 1; i <= 3; i++ {
		v := i * 10
		if err := q.Enqueue(&v); err != nil {
			fmt.Println("enqueue", v, "failed:", cq.IsWouldBlock(err))
			continue
		}
		fmt.Println("enqueued", v)
	}

	for {
		v, err := q.Dequeue()
		if err != nil {
			break
		}
		fmt.Println("dequeued", v)
	}

	// Output:
	// enqueued 10
	// enqueued 20
	// enqueue 30 failed: true
	// dequeued 10
	// dequeued 20
}

// ExampleNewUnbounded demonstrates growth beyond any fixed capacity.
func ExampleNewUnbounded() {
	q := cq.NewUnbounded[string]()

	for _, s := range []string{"a", "b", "c"} {
		q.Enqueue(&s)
	}

	fmt.Println("len:", q.Len())
	fmt.Println("cap:", q.Cap())
	fmt.Println("full:", q.IsFull())

	// Output:
	// len: 3
	// cap: -1
	// full: false
}

// ExampleQueue_Close demonstrates the close protocol: no new
// elements, but everything accepted before the close still drains.
func ExampleQueue_Close() {
	q := cq.NewUnbounded[int]()

	for i := 1; i <= 3; i++ {
		v := i
		q.Enqueue(&v)
	}

	fmt.Println("closed by this call:", q.Close())
	fmt.Println("closed by this call:", q.Close())

	v := 4
	fmt.Println("enqueue after close:", cq.IsClosed(q.Enqueue(&v)))

	for {
		elem, err := q.Dequeue()
		if err != nil {
			fmt.Println("drained:", cq.IsClosed(err))
			break
		}
		fmt.Println("dequeued", elem)
	}

	// Output:
	// closed by this call: true
	// closed by this call: false
	// enqueue after close: true
	// dequeued 1
	// dequeued 2
	// dequeued 3
	// drained: true
}
