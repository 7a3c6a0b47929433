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

package client_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/nabbar/reactor/duration"
	"github.com/nabbar/reactor/network/protocol"
	"github.com/nabbar/reactor/reactor"
	"github.com/nabbar/reactor/socket"
	"github.com/nabbar/reactor/socket/client"
	"github.com/nabbar/reactor/socket/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Client Suite")
}

type recordingProtocol struct {
	made chan socket.Connection
	data chan []byte
	lost chan error
}

func newRecordingProtocol() *recordingProtocol {
	return &recordingProtocol{
		made: make(chan socket.Connection, 1),
		data: make(chan []byte, 16),
		lost: make(chan error, 1),
	}
}

func (p *recordingProtocol) MakeConnection(c socket.Connection) { p.made <- c }
func (p *recordingProtocol) DataReceived(b []byte) {
	cp := append([]byte(nil), b...)
	p.data <- cp
}
func (p *recordingProtocol) ConnectionLost(reason error) { p.lost <- reason }

type stubClientFactory struct {
	proto              *recordingProtocol
	startedConnecting  chan socket.Connector
	connectionFailed   chan error
	connectionLost     chan error
}

func newStubClientFactory(proto *recordingProtocol) *stubClientFactory {
	return &stubClientFactory{
		proto:             proto,
		startedConnecting: make(chan socket.Connector, 1),
		connectionFailed:  make(chan error, 1),
		connectionLost:    make(chan error, 1),
	}
}

func (f *stubClientFactory) DoStart() {}
func (f *stubClientFactory) DoStop()  {}
func (f *stubClientFactory) BuildProtocol(net.Addr) socket.Protocol { return f.proto }
func (f *stubClientFactory) StartedConnecting(c socket.Connector)   { f.startedConnecting <- c }
func (f *stubClientFactory) ClientConnectionFailed(c socket.Connector, reason error) {
	f.connectionFailed <- reason
}
func (f *stubClientFactory) ClientConnectionLost(c socket.Connector, reason error) {
	f.connectionLost <- reason
}

var _ = Describe("Connector", func() {
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

	It("connects, exchanges data, and reports ClientConnectionLost on a graceful peer close", func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()

		accepted := make(chan net.Conn, 1)
		go func() {
			c, _ := ln.Accept()
			accepted <- c
		}()

		proto := newRecordingProtocol()
		factory := newStubClientFactory(proto)

		c := client.New(rct, config.Client{
			Network: protocol.NetworkTCP,
			Address: ln.Addr().String(),
		}, factory, nil, nil)

		Expect(c.StartConnecting()).To(Succeed())
		Eventually(factory.startedConnecting).Should(Receive())
		Eventually(proto.made).Should(Receive())

		var peer net.Conn
		Eventually(accepted).Should(Receive(&peer))
		defer peer.Close()

		_, err = peer.Write([]byte("hi"))
		Expect(err).NotTo(HaveOccurred())

		var data []byte
		Eventually(proto.data).Should(Receive(&data))
		Expect(string(data)).To(Equal("hi"))

		_ = peer.Close()

		var reason error
		Eventually(factory.connectionLost, time.Second).Should(Receive(&reason))
		Expect(reason).To(MatchError(socket.ErrConnectionDone))
	})

	It("reports ClientConnectionFailed when the peer refuses the connection", func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		addr := ln.Addr().String()
		Expect(ln.Close()).To(Succeed())

		proto := newRecordingProtocol()
		factory := newStubClientFactory(proto)

		c := client.New(rct, config.Client{
			Network: protocol.NetworkTCP,
			Address: addr,
		}, factory, nil, nil)

		Expect(c.StartConnecting()).To(Succeed())

		var reason error
		Eventually(factory.connectionFailed, time.Second).Should(Receive(&reason))
		Expect(reason).To(HaveOccurred())
		Consistently(proto.made).ShouldNot(Receive())
	})

	It("reports ErrUserAbort when StopConnecting cancels an in-flight attempt", func() {
		proto := newRecordingProtocol()
		factory := newStubClientFactory(proto)

		c := client.New(rct, config.Client{
			Network: protocol.NetworkTCP,
			Address: "10.255.255.1:80",
			Timeout: duration.Duration(5 * time.Second),
		}, factory, nil, nil)

		Expect(c.StartConnecting()).To(Succeed())
		Eventually(factory.startedConnecting).Should(Receive())

		Expect(c.StopConnecting()).To(Succeed())

		var reason error
		Eventually(factory.connectionFailed, time.Second).Should(Receive(&reason))
		Expect(reason).To(MatchError(socket.ErrUserAbort))
	})

	It("returns ErrAlreadyConnecting from a second StartConnecting call", func() {
		proto := newRecordingProtocol()
		factory := newStubClientFactory(proto)

		c := client.New(rct, config.Client{
			Network: protocol.NetworkTCP,
			Address: "10.255.255.1:80",
			Timeout: duration.Duration(time.Second),
		}, factory, nil, nil)

		Expect(c.StartConnecting()).To(Succeed())
		Expect(c.StartConnecting()).To(MatchError(client.ErrAlreadyConnecting))
		_ = c.StopConnecting()
	})

	It("allows a fresh StartConnecting after StopConnecting returns it to Disconnected", func() {
		proto := newRecordingProtocol()
		factory := newStubClientFactory(proto)

		c := client.New(rct, config.Client{
			Network: protocol.NetworkTCP,
			Address: "10.255.255.1:80",
			Timeout: duration.Duration(5 * time.Second),
		}, factory, nil, nil)

		Expect(c.StartConnecting()).To(Succeed())
		Eventually(factory.startedConnecting).Should(Receive())
		Expect(c.StopConnecting()).To(Succeed())

		var reason error
		Eventually(factory.connectionFailed, time.Second).Should(Receive(&reason))
		Expect(reason).To(MatchError(socket.ErrUserAbort))

		Expect(c.StartConnecting()).To(Succeed())
		Eventually(factory.startedConnecting).Should(Receive())
		Expect(c.StopConnecting()).To(Succeed())
	})
})
