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

package reactor_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nabbar/reactor/reactor"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestReactor(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reactor Suite")
}

var _ = Describe("Reactor", func() {
	var (
		x context.Context
		n context.CancelFunc
	)

	BeforeEach(func() {
		x, n = context.WithTimeout(context.Background(), 5*time.Second)
	})

	AfterEach(func() {
		n()
	})

	It("runs posted callbacks on the loop goroutine", func() {
		r := reactor.New(0)
		go func() { _ = r.Run(x) }()
		Eventually(r.IsRunning).Should(BeTrue())

		done := make(chan struct{})
		r.Post(func() { close(done) })

		Eventually(done).Should(BeClosed())

		r.Stop()
		Eventually(r.IsRunning).Should(BeFalse())
	})

	It("rejects a second concurrent Run", func() {
		r := reactor.New(0)
		go func() { _ = r.Run(x) }()
		Eventually(r.IsRunning).Should(BeTrue())

		err := r.Run(x)
		Expect(err).To(MatchError(reactor.ErrReactorAlreadyRunning))

		r.Stop()
	})

	It("fires a CallLater no earlier than the requested delay", func() {
		r := reactor.New(0)
		go func() { _ = r.Run(x) }()
		Eventually(r.IsRunning).Should(BeTrue())
		defer r.Stop()

		start := time.Now()
		fired := make(chan time.Time, 1)
		r.CallLater(100*time.Millisecond, func() { fired <- time.Now() })

		var when time.Time
		Eventually(fired, time.Second).Should(Receive(&when))
		Expect(when.Sub(start)).To(BeNumerically(">=", 90*time.Millisecond))
	})

	It("never fires a cancelled DelayedCall", func() {
		r := reactor.New(0)
		go func() { _ = r.Run(x) }()
		Eventually(r.IsRunning).Should(BeTrue())
		defer r.Stop()

		var fired atomic.Bool
		dc := r.CallLater(50*time.Millisecond, func() { fired.Store(true) })
		dc.Cancel()

		Consistently(fired.Load, 150*time.Millisecond, 10*time.Millisecond).Should(BeFalse())
		Expect(dc.Cancelled()).To(BeTrue())
	})

	It("treats a double cancel as a no-op, not an error", func() {
		r := reactor.New(0)
		go func() { _ = r.Run(x) }()
		Eventually(r.IsRunning).Should(BeTrue())
		defer r.Stop()

		dc := r.CallLater(50*time.Millisecond, func() {})
		dc.Cancel()
		Expect(func() { dc.Cancel() }).ToNot(Panic())

		err := dc.CancelStrict()
		Expect(err).To(MatchError(reactor.ErrAlreadyCancelled))
	})

	It("stops cleanly and restarts fresh afterwards", func() {
		r := reactor.New(0)
		go func() { _ = r.Run(x) }()
		Eventually(r.IsRunning).Should(BeTrue())

		r.Stop()
		Eventually(r.IsRunning).Should(BeFalse())

		x2, n2 := context.WithTimeout(context.Background(), 2*time.Second)
		defer n2()
		go func() { _ = r.Run(x2) }()
		Eventually(r.IsRunning).Should(BeTrue())
		r.Stop()
	})
})
