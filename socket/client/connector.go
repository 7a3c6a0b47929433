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

// Package client drives a single outbound connection attempt: resolve and
// dial, optionally negotiate TLS, then hand the result to the same
// socket.Conn state machine a server Listener hands an accepted socket to.
// One Connector represents one attempt; StartedConnecting/
// ClientConnectionFailed/ClientConnectionLost on the factory mirror the
// three ways that attempt can end.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/nabbar/reactor/certificates"
	"github.com/nabbar/reactor/network/protocol"
	"github.com/nabbar/reactor/reactor"
	"github.com/nabbar/reactor/socket"
	"github.com/nabbar/reactor/socket/config"
)

type connState uint8

const (
	stateIdle connState = iota
	stateConnecting
	stateConnected
)

// Connector is the socket.Connector handle passed to a ClientFactory's
// StartedConnecting. It is safe to call StopConnecting from any goroutine;
// every other observable effect (the factory callbacks, the resulting
// socket.Conn) runs on the reactor thread.
type Connector struct {
	rct         *reactor.Reactor
	network     protocol.NetworkProtocol
	address     string
	factory     socket.ClientFactory
	tlsCfg      certificates.TLSConfig
	serverName  string
	bufSize     int
	timeout     time.Duration
	idleTimeout time.Duration

	onInfo socket.FuncInfo
	onErr  socket.FuncError

	mu      sync.Mutex
	state   connState
	started bool
	cancel  context.CancelFunc
}

// New builds a Connector from a validated client configuration. It does not
// dial until StartConnecting is called.
func New(r *reactor.Reactor, cfg config.Client, factory socket.ClientFactory, onInfo socket.FuncInfo, onErr socket.FuncError) *Connector {
	c := &Connector{
		rct:     r,
		network: cfg.Network,
		address: cfg.Address,
		factory: factory,
		bufSize: cfg.BufferSize,
		timeout: cfg.Timeout.Time(),
		onInfo:  onInfo,
		onErr:   onErr,
	}
	if cfg.TLS.Enabled {
		c.tlsCfg = cfg.TLSConfig().New()
		c.serverName = cfg.TLS.ServerName
	}
	if d := cfg.ConIdleTimeout.Time(); d > 0 {
		c.idleTimeout = d
	}
	return c
}

// StartConnecting begins the attempt: it notifies the factory synchronously
// via StartedConnecting, then dials on its own goroutine. It returns
// ErrAlreadyConnecting if an attempt on this Connector is already in
// flight or has produced a connection that is still open; once an attempt
// has failed or its connection has been lost, a new attempt may start.
func (c *Connector) StartConnecting() error {
	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return ErrAlreadyConnecting
	}
	c.state = stateConnecting

	needStart := !c.started
	if needStart {
		c.started = true
	}

	ctx := context.Background()
	if c.timeout > 0 {
		ctx, c.cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		ctx, c.cancel = context.WithCancel(ctx)
	}
	c.mu.Unlock()

	if needStart {
		c.factory.DoStart()
	}

	c.factory.StartedConnecting(c)

	go func() {
		var d net.Dialer
		conn, err := d.DialContext(ctx, c.network.Code(), c.address)
		c.rct.Post(func() { c.onDialDone(conn, err) })
	}()
	return nil
}

// StopConnecting implements socket.Connector. Cancelling an attempt that
// has already resolved (successfully or not) returns ErrNotConnecting.
func (c *Connector) StopConnecting() error {
	c.mu.Lock()
	if c.state != stateConnecting {
		c.mu.Unlock()
		return socket.ErrNotConnecting
	}
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// settle returns the connector to Disconnected before the factory is told
// the attempt ended, then - if the factory did not start a new attempt from
// inside that very callback - stops the factory. This mirrors
// connection_failed/connection_lost in the design: both are "symmetric"
// except for which ClientFactory method they call.
func (c *Connector) settle(notify func()) {
	c.mu.Lock()
	c.state = stateIdle
	c.mu.Unlock()

	notify()

	c.mu.Lock()
	stillIdle := c.state == stateIdle
	if stillIdle {
		c.started = false
	}
	c.mu.Unlock()

	if stillIdle {
		c.factory.DoStop()
	}
}

// onDialDone runs on the reactor thread.
func (c *Connector) onDialDone(conn net.Conn, err error) {
	if err != nil {
		reason := classifyDialErr(err)
		c.settle(func() { c.factory.ClientConnectionFailed(c, reason) })
		return
	}

	proto := c.factory.BuildProtocol(conn.RemoteAddr())
	if proto == nil {
		// The dial itself succeeded - this is a refusal after Connected,
		// not a failed attempt, so it is reported through the same
		// ClientConnectionLost path a normal post-handoff close uses.
		_ = conn.Close()
		c.settle(func() { c.factory.ClientConnectionLost(c, socket.ErrConnectionDone) })
		return
	}

	onInfo := c.onInfo
	var sc *socket.Conn
	if c.idleTimeout > 0 {
		onInfo = socket.NewIdleInfo(c.rct, c.idleTimeout, c.onInfo, func() {
			if sc != nil {
				sc.AbortConnection()
			}
		})
	}

	if c.tlsCfg != nil {
		tc := tls.Client(conn, c.tlsCfg.TlsConfig(c.serverName))
		sc = socket.NewConn(c.rct, tc, tc, proto, c.bufSize, onInfo, c.onErr)
	} else {
		sc = socket.NewConn(c.rct, conn, nil, proto, c.bufSize, onInfo, c.onErr)
	}

	connector := c
	sc.OnLost(func(reason error) {
		connector.settle(func() { connector.factory.ClientConnectionLost(connector, reason) })
	})

	c.mu.Lock()
	c.state = stateConnected
	c.mu.Unlock()
	sc.Start()
}

// classifyDialErr turns a DialContext failure into the vocabulary
// ClientConnectionFailed reports: ErrUserAbort for an attempt this
// Connector's own StopConnecting cancelled, ErrTimeout for one its own
// configured deadline cut short, and the wrapped cause for everything else.
func classifyDialErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return socket.ErrUserAbort
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return socket.ErrTimeout
	}
	return socket.WrapSystemError(err)
}
