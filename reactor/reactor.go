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

// Package reactor provides the single-threaded scheduling primitives every
// connection, listener and connector in the socket packages is built on: a
// serialized callback queue and one-shot delayed calls. Every callback
// submitted through a Reactor - whether posted directly or fired by a timer -
// runs on the same goroutine, one at a time, so connection state transitions
// never race each other.
//
// The reactor itself never issues blocking socket syscalls. Those run on
// their own goroutines (one per outstanding read, write, accept, connect or
// handshake) and report completion back to the reactor by posting a
// callback. This is the idiomatic Go analogue of an asynchronous I/O
// executor: Go's net package has no non-blocking submit/complete API, so the
// "suspension point" the design calls for is implemented as a goroutine that
// blocks on exactly one syscall and then hands control back to the reactor
// thread.
package reactor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Callback is a unit of work executed on the reactor thread.
type Callback func()

// Reactor is the event loop: it owns the callback queue and the timer
// bookkeeping used by every connection, listener and connector it hosts.
type Reactor struct {
	queue   chan Callback
	running atomic.Bool
	started chan struct{}
	stopped chan struct{}

	mu   sync.Mutex
	stop context.CancelFunc
}

// New builds a Reactor. The queue depth bounds how many pending callbacks may
// be in flight before Post blocks; a depth of 0 or less uses a sensible
// default.
func New(queueDepth int) *Reactor {
	if queueDepth <= 0 {
		queueDepth = 256
	}
	return &Reactor{
		queue: make(chan Callback, queueDepth),
	}
}

// IsRunning reports whether Run is currently executing the loop.
func (r *Reactor) IsRunning() bool {
	return r.running.Load()
}

// Run drives the event loop until ctx is cancelled or Stop is called. It
// returns ErrReactorAlreadyRunning if the reactor is already looping.
//
// Run is the only goroutine that ever executes a Callback: this is what
// makes connection state transitions atomic with respect to one another.
func (r *Reactor) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrReactorAlreadyRunning
	}

	r.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	r.stop = cancel
	r.started = make(chan struct{})
	r.stopped = make(chan struct{})
	close(r.started)
	r.mu.Unlock()

	defer func() {
		r.running.Store(false)
		close(r.stopped)
	}()

	for {
		select {
		case <-loopCtx.Done():
			r.drain()
			return nil
		case fn := <-r.queue:
			if fn != nil {
				fn()
			}
		}
	}
}

// drain runs any callback already queued at shutdown time so that deferred
// "close from callback" continuations (see Post) are not silently dropped.
func (r *Reactor) drain() {
	for {
		select {
		case fn := <-r.queue:
			if fn != nil {
				fn()
			}
		default:
			return
		}
	}
}

// Stop requests the loop started by Run to exit. It is safe to call before
// Run, concurrently with Run, or after Run has already returned.
func (r *Reactor) Stop() {
	r.mu.Lock()
	stop := r.stop
	r.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Post enqueues fn to run on the reactor thread at the next opportunity. It
// is the mechanism every other goroutine uses to hand a completion (read
// done, write done, accept done, timer fired...) back to the serialized
// state machine, and the mechanism the state machine itself uses to defer a
// "close from inside this callback" to the next turn instead of re-entering
// a close path that is still unwinding.
//
// Post is safe to call from any goroutine, including the reactor's own.
func (r *Reactor) Post(fn Callback) {
	if fn == nil {
		return
	}
	r.queue <- fn
}

// TryPost enqueues fn without blocking. It reports false if the queue is
// full; it does not check whether the loop is running, so fn posted before
// Run starts waits in the queue. Used by teardown paths that must not block
// a completion goroutine indefinitely.
func (r *Reactor) TryPost(fn Callback) bool {
	if fn == nil {
		return true
	}
	select {
	case r.queue <- fn:
		return true
	default:
		return false
	}
}

// CallLater schedules fn to run on the reactor thread no earlier than d from
// now. The returned DelayedCall can be cancelled before it fires; a fired or
// cancelled call is inert. d must be positive.
func (r *Reactor) CallLater(d time.Duration, fn Callback) *DelayedCall {
	dc := &DelayedCall{reactor: r, fn: fn}
	dc.timer = time.AfterFunc(d, dc.fire)
	return dc
}

// DelayedCall is a handle to a single-shot timer registered through
// CallLater. It mirrors Twisted's IDelayedCall: Cancel renders it inert,
// Cancelled reports whether it is dead (fired or cancelled), and Active is
// the negation of Cancelled before firing.
type DelayedCall struct {
	reactor   *Reactor
	fn        Callback
	timer     *time.Timer
	fired     atomic.Bool
	cancelled atomic.Bool
}

// Cancel stops the timer if it has not already fired. Cancelling an already
// dead DelayedCall is a no-op, never an error: only a caller that holds two
// independent references and races itself could observe AlreadyCancelled,
// which is why Cancel itself never returns one - see CancelStrict.
func (d *DelayedCall) Cancel() {
	if d.cancelled.CompareAndSwap(false, true) {
		d.timer.Stop()
	}
}

// CancelStrict behaves like Cancel but reports ErrAlreadyCancelled when the
// call was already dead, for callers that must distinguish "I cancelled it"
// from "someone else already did".
func (d *DelayedCall) CancelStrict() error {
	if d.fired.Load() || !d.cancelled.CompareAndSwap(false, true) {
		return ErrAlreadyCancelled
	}
	d.timer.Stop()
	return nil
}

// Cancelled reports whether this call is dead: either fired or cancelled.
func (d *DelayedCall) Cancelled() bool {
	return d.cancelled.Load() || d.fired.Load()
}

// Active reports whether the call may still fire.
func (d *DelayedCall) Active() bool {
	return !d.Cancelled()
}

func (d *DelayedCall) fire() {
	if d.cancelled.Load() {
		return
	}
	if !d.fired.CompareAndSwap(false, true) {
		return
	}
	d.reactor.Post(d.fn)
}
