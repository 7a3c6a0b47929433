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

package socket_test

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/nabbar/reactor/reactor"
	"github.com/nabbar/reactor/socket"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSocket(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Socket Suite")
}

type fakeProtocol struct {
	made chan socket.Connection
	data chan []byte
	lost chan error
}

func newFakeProtocol() *fakeProtocol {
	return &fakeProtocol{
		made: make(chan socket.Connection, 1),
		data: make(chan []byte, 16),
		lost: make(chan error, 1),
	}
}

func (f *fakeProtocol) MakeConnection(c socket.Connection) { f.made <- c }
func (f *fakeProtocol) DataReceived(p []byte) {
	cp := append([]byte(nil), p...)
	f.data <- cp
}
func (f *fakeProtocol) ConnectionLost(reason error) { f.lost <- reason }

var _ = Describe("ConnState", func() {
	It("renders the documented label for every known state", func() {
		Expect(socket.ConnectionDial.String()).To(Equal("Dial Connection"))
		Expect(socket.ConnectionNew.String()).To(Equal("New Connection"))
		Expect(socket.ConnectionRead.String()).To(Equal("Read Incoming Stream"))
		Expect(socket.ConnectionCloseRead.String()).To(Equal("Close Incoming Stream"))
		Expect(socket.ConnectionHandler.String()).To(Equal("Run HandlerFunc"))
		Expect(socket.ConnectionWrite.String()).To(Equal("Write Outgoing Steam"))
		Expect(socket.ConnectionCloseWrite.String()).To(Equal("Close Outgoing Stream"))
		Expect(socket.ConnectionClose.String()).To(Equal("Close Connection"))
		Expect(socket.ConnectionHandshake.String()).To(Equal("TLS Handshake"))
	})

	It("falls back to a default label for an unknown state", func() {
		Expect(socket.ConnState(255).String()).To(Equal("unknown connection state"))
	})
})

var _ = Describe("ErrorFilter", func() {
	It("passes nil through unchanged", func() {
		Expect(socket.ErrorFilter(nil)).To(BeNil())
	})

	It("swallows an error produced by a socket this package already closed", func() {
		c1, c2 := net.Pipe()
		defer c2.Close()
		_ = c1.Close()

		_, err := c1.Read(make([]byte, 1))
		Expect(err).To(HaveOccurred())
		Expect(socket.ErrorFilter(err)).To(BeNil())
	})

	It("passes a genuine error through unchanged", func() {
		Expect(socket.ErrorFilter(errors.New("boom"))).To(MatchError("boom"))
	})
})

var _ = Describe("Conn", func() {
	var (
		rct    *reactor.Reactor
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		rct = reactor.New(0)
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		go func() { _ = rct.Run(ctx) }()
		Eventually(rct.IsRunning).Should(BeTrue())
	})

	AfterEach(func() {
		rct.Stop()
		cancel()
	})

	It("delivers inbound data and carries outbound writes to the peer", func() {
		local, remote := net.Pipe()
		proto := newFakeProtocol()

		rct.Post(func() {
			c := socket.NewConn(rct, local, nil, proto, 0, nil, nil)
			c.Start()
		})

		var conn socket.Connection
		Eventually(proto.made).Should(Receive(&conn))

		_, err := remote.Write([]byte("ping"))
		Expect(err).NotTo(HaveOccurred())

		var data []byte
		Eventually(proto.data).Should(Receive(&data))
		Expect(string(data)).To(Equal("ping"))

		rct.Post(func() { _ = conn.Write([]byte("pong")) })

		buf := make([]byte, 4)
		_, err = io.ReadFull(remote, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf)).To(Equal("pong"))

		rct.Post(func() { conn.LoseConnection() })

		var reason error
		Eventually(proto.lost, time.Second).Should(Receive(&reason))
		Expect(reason).To(MatchError(socket.ErrConnectionDone))
	})

	It("flushes a queued write before closing on LoseConnection", func() {
		local, remote := net.Pipe()
		proto := newFakeProtocol()

		rct.Post(func() {
			c := socket.NewConn(rct, local, nil, proto, 0, nil, nil)
			c.Start()
		})

		var conn socket.Connection
		Eventually(proto.made).Should(Receive(&conn))

		rct.Post(func() {
			_ = conn.Write([]byte("queued"))
			conn.LoseConnection()
		})

		buf := make([]byte, 6)
		_, err := io.ReadFull(remote, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf)).To(Equal("queued"))
	})

	It("reports AbortConnection as the delivered reason", func() {
		local, remote := net.Pipe()
		defer remote.Close()
		proto := newFakeProtocol()

		rct.Post(func() {
			c := socket.NewConn(rct, local, nil, proto, 0, nil, nil)
			c.Start()
		})

		var conn socket.Connection
		Eventually(proto.made).Should(Receive(&conn))

		rct.Post(func() {
			_ = conn.Write([]byte("queued"))
			conn.AbortConnection()
		})

		var reason error
		Eventually(proto.lost, time.Second).Should(Receive(&reason))
		Expect(reason).To(MatchError(socket.ErrConnectionAbort))
	})

	It("reports a clean peer close as ErrConnectionDone", func() {
		local, remote := net.Pipe()
		proto := newFakeProtocol()

		rct.Post(func() {
			c := socket.NewConn(rct, local, nil, proto, 0, nil, nil)
			c.Start()
		})
		Eventually(proto.made).Should(Receive())

		_ = remote.Close()

		var reason error
		Eventually(proto.lost, time.Second).Should(Receive(&reason))
		Expect(reason).To(MatchError(socket.ErrConnectionDone))
	})
})
