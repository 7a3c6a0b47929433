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

package server_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/nabbar/reactor/network/protocol"
	"github.com/nabbar/reactor/reactor"
	"github.com/nabbar/reactor/socket"
	"github.com/nabbar/reactor/socket/config"
	"github.com/nabbar/reactor/socket/server"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Server Suite")
}

type echoProtocol struct {
	made chan socket.Connection
	data chan []byte
	lost chan error
}

func newEchoProtocol() *echoProtocol {
	return &echoProtocol{
		made: make(chan socket.Connection, 1),
		data: make(chan []byte, 16),
		lost: make(chan error, 1),
	}
}

func (p *echoProtocol) MakeConnection(c socket.Connection) { p.made <- c }
func (p *echoProtocol) DataReceived(b []byte) {
	cp := append([]byte(nil), b...)
	p.data <- cp
}
func (p *echoProtocol) ConnectionLost(reason error) { p.lost <- reason }

type stubFactory struct {
	started  chan struct{}
	stopped  chan struct{}
	protocol func(peer net.Addr) socket.Protocol
}

func newStubFactory(build func(peer net.Addr) socket.Protocol) *stubFactory {
	return &stubFactory{
		started:  make(chan struct{}, 1),
		stopped:  make(chan struct{}, 1),
		protocol: build,
	}
}

func (f *stubFactory) DoStart() { f.started <- struct{}{} }
func (f *stubFactory) DoStop()  { f.stopped <- struct{}{} }
func (f *stubFactory) BuildProtocol(peer net.Addr) socket.Protocol {
	return f.protocol(peer)
}

var _ = Describe("Listener", func() {
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

	It("accepts a connection and drives it through a built protocol", func() {
		proto := newEchoProtocol()
		factory := newStubFactory(func(net.Addr) socket.Protocol { return proto })

		ln := server.New(rct, config.Server{
			Network: protocol.NetworkTCP,
			Address: "127.0.0.1:0",
		}, factory, nil, nil)

		Expect(ln.StartListening()).To(Succeed())
		Eventually(factory.started).Should(Receive())
		defer func() { _ = ln.StopListening() }()

		addr := ln.Addr()
		Expect(addr).NotTo(BeNil())

		conn, err := net.Dial("tcp", addr.String())
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		Eventually(proto.made).Should(Receive())

		_, err = conn.Write([]byte("hello"))
		Expect(err).NotTo(HaveOccurred())

		var data []byte
		Eventually(proto.data).Should(Receive(&data))
		Expect(string(data)).To(Equal("hello"))
	})

	It("refuses a connection when the factory returns a nil protocol", func() {
		factory := newStubFactory(func(net.Addr) socket.Protocol { return nil })

		ln := server.New(rct, config.Server{
			Network: protocol.NetworkTCP,
			Address: "127.0.0.1:0",
		}, factory, nil, nil)

		Expect(ln.StartListening()).To(Succeed())
		defer func() { _ = ln.StopListening() }()

		conn, err := net.Dial("tcp", ln.Addr().String())
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		buf := make([]byte, 1)
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		_, err = conn.Read(buf)
		Expect(err).To(HaveOccurred())
	})

	It("returns ErrAlreadyListening on a second StartListening call", func() {
		factory := newStubFactory(func(net.Addr) socket.Protocol { return newEchoProtocol() })
		ln := server.New(rct, config.Server{
			Network: protocol.NetworkTCP,
			Address: "127.0.0.1:0",
		}, factory, nil, nil)

		Expect(ln.StartListening()).To(Succeed())
		defer func() { _ = ln.StopListening() }()

		Expect(ln.StartListening()).To(MatchError(server.ErrAlreadyListening))
	})

	It("returns ErrNotListening from StopListening before StartListening", func() {
		factory := newStubFactory(func(net.Addr) socket.Protocol { return newEchoProtocol() })
		ln := server.New(rct, config.Server{
			Network: protocol.NetworkTCP,
			Address: "127.0.0.1:0",
		}, factory, nil, nil)

		Expect(ln.StopListening()).To(MatchError(server.ErrNotListening))
	})

	It("survives the listener being closed while the accept loop is blocked", func() {
		factory := newStubFactory(func(net.Addr) socket.Protocol { return newEchoProtocol() })
		ln := server.New(rct, config.Server{
			Network: protocol.NetworkTCP,
			Address: "127.0.0.1:0",
		}, factory, nil, nil)

		Expect(ln.StartListening()).To(Succeed())
		Expect(ln.StopListening()).To(Succeed())
		Eventually(factory.stopped).Should(Receive())
	})
})
