/*
 * MIT License
 *
 * Copyright (c) 2026 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package socket

import (
	"errors"
	"fmt"
)

// Reasons delivered through Protocol.ConnectionLost / ClientFactory's
// failure and loss callbacks. Exactly one of these - or a system error
// wrapped with WrapSystemError - ever reaches application code; everything
// ErrorFilter recognizes as local teardown noise is suppressed first.
var (
	// ErrConnectionDone means the connection closed cleanly: either the
	// peer closed first, or a LoseConnection initiated by this side
	// finished flushing and shutting down without error.
	ErrConnectionDone = errors.New("connection: done")

	// ErrConnectionAbort means AbortConnection was called: any queued,
	// unsent data was discarded and the socket was closed without
	// waiting for a graceful TLS shutdown to complete.
	ErrConnectionAbort = errors.New("connection: aborted")

	// ErrUserAbort means StopConnecting cancelled an outbound attempt
	// before it reached MakeConnection.
	ErrUserAbort = errors.New("connection: user aborted before connecting")

	// ErrTimeout means a connect attempt did not complete within its
	// configured deadline.
	ErrTimeout = errors.New("connection: timed out")

	// ErrNotConnecting is returned by StopConnecting when the attempt it
	// names has already resolved.
	ErrNotConnecting = errors.New("connection: not connecting")

	// errSystem is the sentinel WrapSystemError chains onto, so callers
	// can recognize a wrapped operational error with errors.Is without
	// caring about the underlying cause.
	errSystem = errors.New("connection: system error")
)

// WrapSystemError wraps a transport-level error (anything ErrorFilter did
// not recognize as local teardown noise) as a ConnectionLost reason.
// errors.Is(reason, err) and errors.Unwrap(reason) both reach the original
// cause; errors.Is(reason, errSystem-class) is exposed through IsSystemError.
func WrapSystemError(cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errSystem, cause)
}

// IsSystemError reports whether reason was produced by WrapSystemError, as
// opposed to being one of the fixed sentinels above.
func IsSystemError(reason error) bool {
	return errors.Is(reason, errSystem)
}
