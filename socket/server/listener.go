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

// Package server hosts the accept loop shared by every transport this
// module listens on: plain TCP, TLS-over-TCP, and local UNIX-domain stream
// sockets. A single Listener drives all three, since Go's net.Listener
// already unifies them behind one Accept loop - the only thing that differs
// per transport is how the bind address is shaped and whether accepted
// sockets get wrapped in a TLS server handshake.
package server

import (
	"crypto/tls"
	"net"
	"os"
	"sync"
	"time"

	"github.com/nabbar/reactor/certificates"
	"github.com/nabbar/reactor/network/protocol"
	"github.com/nabbar/reactor/reactor"
	"github.com/nabbar/reactor/socket"
	"github.com/nabbar/reactor/socket/config"
)

// Listener binds one acceptor and runs its accept loop: each accepted
// socket is handed a protocol from the factory, wrapped in a TLS server
// handshake when a TLS context is configured, and driven by the same
// socket.Conn state machine a Connector hands off to on the client side.
type Listener struct {
	rct         *reactor.Reactor
	network     protocol.NetworkProtocol
	address     string
	factory     socket.Factory
	tlsCfg      certificates.TLSConfig
	bufSize     int
	idleTimeout time.Duration

	permFile  os.FileMode
	groupPerm int
	hasPerm   bool

	onInfo socket.FuncInfo
	onErr  socket.FuncError

	mu        sync.Mutex
	ln        net.Listener
	connected bool
}

// New builds a Listener from a validated server configuration. factory is
// exclusively owned by the Listener from this point: StartListening calls
// its DoStart, StopListening its DoStop.
func New(r *reactor.Reactor, cfg config.Server, factory socket.Factory, onInfo socket.FuncInfo, onErr socket.FuncError) *Listener {
	l := &Listener{
		rct:     r,
		network: cfg.Network,
		address: cfg.Address,
		factory: factory,
		bufSize: cfg.BufferSize,
		onInfo:  onInfo,
		onErr:   onErr,
	}
	if cfg.TLS.Enabled {
		l.tlsCfg = cfg.TLSConfig().New()
	}
	if d := cfg.ConIdleTimeout.Time(); d > 0 {
		l.idleTimeout = d
	}
	if cfg.PermFile != 0 {
		l.permFile = cfg.PermFile.FileMode()
		l.hasPerm = true
	}
	l.groupPerm = cfg.GroupPerm
	return l
}

// Connected reports whether the listener is currently bound and accepting.
func (l *Listener) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Addr returns the bound local address, or nil before StartListening
// succeeds.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// StartListening resolves the bind endpoint, opens the acceptor, starts the
// factory, and launches the accept loop goroutine. It must be called at
// most once per Listener; calling it again while already bound returns
// ErrAlreadyListening.
func (l *Listener) StartListening() error {
	l.mu.Lock()
	if l.connected {
		l.mu.Unlock()
		return ErrAlreadyListening
	}

	if l.network.IsUnix() {
		_ = os.Remove(l.address)
	}

	ln, err := net.Listen(l.network.Code(), l.address)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	l.ln = ln
	l.mu.Unlock()

	if l.network.IsUnix() && l.hasPerm {
		_ = os.Chmod(l.address, l.permFile)
		if l.groupPerm >= 0 {
			_ = os.Chown(l.address, -1, l.groupPerm)
		}
	}

	l.factory.DoStart()

	l.mu.Lock()
	l.connected = true
	l.mu.Unlock()

	go l.acceptLoop(ln)
	return nil
}

// StopListening closes the acceptor and stops the factory. The accept loop
// goroutine's in-flight Accept unblocks with a "use of closed network
// connection" error, which acceptLoop recognizes as its own teardown signal
// and exits without logging.
func (l *Listener) StopListening() error {
	l.mu.Lock()
	if !l.connected {
		l.mu.Unlock()
		return ErrNotListening
	}
	ln := l.ln
	l.connected = false
	l.mu.Unlock()

	err := ln.Close()
	l.factory.DoStop()
	return err
}

// acceptLoop runs on its own goroutine, blocked on exactly one syscall at a
// time (net.Listener.Accept), and posts every completion back to the
// reactor thread - the same suspension-point pattern Conn uses for reads,
// writes, and handshakes.
func (l *Listener) acceptLoop(ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			if socket.IsAbortedOp(err) {
				return
			}
			l.rct.Post(func() { l.onAcceptError(err) })
			continue
		}
		l.rct.Post(func() { l.onAccept(c) })
	}
}

// onAcceptError runs on the reactor thread. A transient accept failure
// never tears the listener down; only StopListening does that.
func (l *Listener) onAcceptError(err error) {
	if l.onErr != nil {
		l.onErr(err)
	}
}

// onAccept runs on the reactor thread. A nil protocol from the factory
// refuses the connection: it is closed without ever calling MakeConnection.
func (l *Listener) onAccept(c net.Conn) {
	proto := l.factory.BuildProtocol(c.RemoteAddr())
	if proto == nil {
		_ = c.Close()
		return
	}

	onInfo := l.onInfo
	var conn *socket.Conn
	if l.idleTimeout > 0 {
		onInfo = socket.NewIdleInfo(l.rct, l.idleTimeout, l.onInfo, func() {
			if conn != nil {
				conn.AbortConnection()
			}
		})
	}

	if l.tlsCfg != nil {
		tc := tls.Server(c, l.tlsCfg.TlsConfig(""))
		conn = socket.NewConn(l.rct, tc, tc, proto, l.bufSize, onInfo, l.onErr)
	} else {
		conn = socket.NewConn(l.rct, c, nil, proto, l.bufSize, onInfo, l.onErr)
	}
	conn.Start()
}
