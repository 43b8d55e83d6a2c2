// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cq

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrFull indicates an Enqueue could not proceed because the queue is
// at capacity. The element was not consumed; the caller still owns it
// and may retry.
//
// ErrFull is a transient control flow signal, not a failure. It wraps
// [iox.ErrWouldBlock] for ecosystem consistency, so both
// [IsWouldBlock] and errors.Is against iox.ErrWouldBlock classify it.
//
// Unbounded queues never return ErrFull.
var ErrFull = fmt.Errorf("%w: queue full", iox.ErrWouldBlock)

// ErrEmpty indicates a Dequeue could not proceed because no element is
// currently available. Like [ErrFull] it is transient and wraps
// [iox.ErrWouldBlock].
var ErrEmpty = fmt.Errorf("%w: queue empty", iox.ErrWouldBlock)

// ErrClosed indicates the queue has been closed.
//
// For Enqueue it is returned as soon as Close has taken effect; the
// element was not consumed and the caller still owns it. For Dequeue
// it is returned only once the queue is both closed and fully drained:
// elements enqueued before the close remain deliverable.
//
// Unlike ErrFull and ErrEmpty, ErrClosed is permanent for the queue
// instance and does not wrap iox.ErrWouldBlock: retrying cannot
// succeed.
var ErrClosed = errors.New("cq: queue closed")

// IsWouldBlock reports whether err is a transient signal (queue full
// or empty) that the caller should retry, typically with backoff.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsClosed reports whether err indicates a closed queue.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsSemantic reports whether err is a control flow signal rather than
// a failure. True for ErrFull, ErrEmpty and ErrClosed.
func IsSemantic(err error) bool {
	return iox.IsSemantic(err) || errors.Is(err, ErrClosed)
}
