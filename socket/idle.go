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
	"net"
	"time"

	"github.com/nabbar/reactor/reactor"
)

// NewIdleInfo wraps onInfo so that every lifecycle transition it observes -
// a read arming, bytes handed to the protocol, a write starting - resets an
// idle timer; if the timer ever fires without a transition in between,
// abort runs on the reactor thread. A non-positive d disables the timer and
// onInfo is returned unchanged, so the wrap is free when idle timeouts are
// not configured.
//
// Every call this returns, and abort itself, is only ever invoked from the
// reactor thread (FuncInfo is an info() call from inside a Conn method, and
// CallLater posts through the same reactor), so the captured DelayedCall
// needs no locking.
func NewIdleInfo(r *reactor.Reactor, d time.Duration, onInfo FuncInfo, abort func()) FuncInfo {
	if d <= 0 {
		return onInfo
	}

	var dc *reactor.DelayedCall
	reset := func() {
		if dc != nil {
			dc.Cancel()
		}
		dc = r.CallLater(d, abort)
	}
	reset()

	return func(local, remote net.Addr, state ConnState) {
		reset()
		if onInfo != nil {
			onInfo(local, remote, state)
		}
	}
}
