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
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"time"

	"github.com/nabbar/reactor/buffer"
	"github.com/nabbar/reactor/reactor"
)

// abortCloseDeadline bounds how long AbortConnection will let a close_notify
// write block before the socket is torn down regardless.
const abortCloseDeadline = 2 * time.Second

// Conn drives one stream connection's lifecycle: the six boolean flags from
// the design (connected, disconnecting, disconnected, reading, writing,
// errored) plus the three that only matter for TLS (sslAccepting,
// sslAccepted, sslShutting). Every exported method and every unexported one
// below is only ever called on its Reactor's goroutine; the handful of
// goroutines Conn itself spawns (one per outstanding read, write, handshake
// or close) never touch this state directly - they only call conn.Read/
// Write/Close/HandshakeContext and post their result back.
type Conn struct {
	rct  *reactor.Reactor
	conn net.Conn
	tls  *tls.Conn // non-nil when this connection negotiates TLS

	proto   Protocol
	onInfo  FuncInfo
	onErr   FuncError
	bufSize int

	rbuf *buffer.MessageBuffer
	wbuf *buffer.MessageBuffer

	connected     bool
	disconnecting bool
	disconnected  bool
	reading       bool
	writing       bool
	errored       bool

	sslAccepting bool
	sslAccepted  bool
	sslShutting  bool

	closing bool
	pending int

	reason        error
	lostDelivered bool
	lostHook      func(error)

	noDelay   bool
	keepAlive bool

	hsCancel context.CancelFunc
}

// NewConn builds a Conn around an already-accepted or already-dialed
// transport connection. When tlsConn is non-nil it must be the same
// connection as conn (i.e. conn, wrapped by tls.Server or tls.Client); Start
// then runs the handshake before the first read. bufSize <= 0 uses
// DefaultBufferSize.
func NewConn(r *reactor.Reactor, conn net.Conn, tlsConn *tls.Conn, proto Protocol, bufSize int, onInfo FuncInfo, onErr FuncError) *Conn {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Conn{
		rct:     r,
		conn:    conn,
		tls:     tlsConn,
		proto:   proto,
		onInfo:  onInfo,
		onErr:   onErr,
		bufSize: bufSize,
		rbuf:    buffer.New(bufSize),
		wbuf:    buffer.New(bufSize),
		noDelay: true,
	}
}

// OnLost registers fn to run immediately after ConnectionLost is delivered
// to the protocol, with the same reason. Connectors use this to relay
// ClientConnectionLost to their factory without the protocol needing to
// know a connector is involved at all.
func (c *Conn) OnLost(fn func(reason error)) {
	c.lostHook = fn
}

// rawConn unwraps to the underlying transport connection - the one a type
// switch on *net.TCPConn/*net.UnixConn actually recognizes - regardless of
// whether this Conn is running TLS over it.
func (c *Conn) rawConn() net.Conn {
	if c.tls != nil {
		return c.tls.NetConn()
	}
	return c.conn
}

// Reactor returns the reactor driving this connection.
func (c *Conn) Reactor() *reactor.Reactor { return c.rct }

// SetNoDelay toggles Nagle's algorithm on the underlying TCP socket. It is
// ignored on a UNIX-domain connection, per the design's "no_delay setter is
// ignored" rule.
func (c *Conn) SetNoDelay(enable bool) error {
	if tc, ok := c.rawConn().(*net.TCPConn); ok {
		if err := tc.SetNoDelay(enable); err != nil {
			return err
		}
		c.noDelay = enable
	}
	return nil
}

// NoDelay reports the last value SetNoDelay was given (true by default,
// matching net.Dial's own default). A UNIX-domain connection always reports
// true, as a no-op getter.
func (c *Conn) NoDelay() bool {
	if _, ok := c.rawConn().(*net.UnixConn); ok {
		return true
	}
	return c.noDelay
}

// SetKeepAlive toggles TCP keep-alive probes on the underlying socket. It is
// a no-op on a UNIX-domain connection.
func (c *Conn) SetKeepAlive(enable bool) error {
	if tc, ok := c.rawConn().(*net.TCPConn); ok {
		if err := tc.SetKeepAlive(enable); err != nil {
			return err
		}
		c.keepAlive = enable
	}
	return nil
}

// KeepAlive reports the last value SetKeepAlive was given.
func (c *Conn) KeepAlive() bool {
	return c.keepAlive
}

// Start must be called once, on the reactor thread, after construction. It
// delivers MakeConnection and then either begins the TLS handshake or the
// read loop.
func (c *Conn) Start() {
	c.connected = true
	c.proto.MakeConnection(c)
	if c.disconnecting {
		// AbortConnection/LoseConnection called synchronously from
		// inside MakeConnection itself.
		c.beginClose()
		return
	}
	if c.tls != nil {
		c.beginHandshake()
	} else {
		c.startRead()
	}
}

func (c *Conn) LocalAddr() net.Addr  { return c.conn.LocalAddr() }
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *Conn) info(s ConnState) {
	if c.onInfo != nil {
		c.onInfo(c.conn.LocalAddr(), c.conn.RemoteAddr(), s)
	}
}

func (c *Conn) notifyErr(err error) {
	if c.onErr != nil && err != nil {
		c.onErr(err)
	}
}

// Write queues p for transmission; see the Connection interface doc.
func (c *Conn) Write(p []byte) error {
	if c.disconnecting || c.disconnected {
		return ErrConnectionDone
	}
	if len(p) == 0 {
		return nil
	}
	c.wbuf.Append(p)
	c.maybeStartWrite()
	return nil
}

// LoseConnection implements the Connection interface.
func (c *Conn) LoseConnection() {
	if c.disconnecting || c.disconnected {
		return
	}
	c.disconnecting = true
	if c.reason == nil {
		c.reason = ErrConnectionDone
	}
	if c.writing || c.wbuf.Len() > 0 {
		// onWriteDone starts the close once the queue has drained.
		return
	}
	c.beginClose()
}

// AbortConnection implements the Connection interface.
func (c *Conn) AbortConnection() {
	if c.disconnected {
		return
	}
	c.disconnecting = true
	c.reason = ErrConnectionAbort
	c.wbuf.Reset()
	if c.sslAccepting && c.hsCancel != nil {
		c.hsCancel()
	}
	_ = c.conn.SetDeadline(time.Now().Add(abortCloseDeadline))
	c.beginClose()
}

func (c *Conn) beginHandshake() {
	c.sslAccepting = true
	c.info(ConnectionHandshake)

	ctx, cancel := context.WithCancel(context.Background())
	c.hsCancel = cancel
	c.pending++

	hs := c.tls
	go func() {
		err := hs.HandshakeContext(ctx)
		c.rct.Post(func() { c.onHandshakeDone(err) })
	}()
}

func (c *Conn) onHandshakeDone(err error) {
	c.pending--
	c.hsCancel = nil

	if err != nil {
		if !isAbortedOp(err) && c.reason == nil {
			c.reason = WrapSystemError(err)
			c.errored = true
			c.notifyErr(err)
		}
		c.disconnecting = true
		c.beginClose()
		return
	}

	c.sslAccepting = false
	c.sslAccepted = true

	if c.disconnecting {
		c.beginClose()
		return
	}

	c.startRead()
	c.maybeStartWrite()
}

func (c *Conn) startRead() {
	if c.reading || c.disconnecting || c.disconnected {
		return
	}
	c.reading = true
	c.rbuf.EnsureFree(c.bufSize)
	tail := c.rbuf.WriteTail()

	conn := c.conn
	c.pending++
	c.info(ConnectionRead)
	go func() {
		n, err := conn.Read(tail)
		c.rct.Post(func() { c.onReadDone(n, err) })
	}()
}

func classifyReadErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		// A short read - the peer vanished without a clean shutdown
		// indicator - is reported exactly like a clean close, never as
		// an operational error.
		return ErrConnectionDone
	}
	return WrapSystemError(err)
}

func (c *Conn) onReadDone(n int, err error) {
	c.pending--
	c.reading = false

	if n > 0 && !c.disconnected {
		c.rbuf.WriteCompleted(n)
		data := c.rbuf.Unread()
		cp := make([]byte, len(data))
		copy(cp, data)
		c.rbuf.ReadCompleted(c.rbuf.Len())

		c.info(ConnectionHandler)
		c.proto.DataReceived(cp)
	}

	if err == nil {
		if !c.disconnecting {
			c.startRead()
		}
		return
	}

	if !isAbortedOp(err) {
		reason := classifyReadErr(err)
		if c.reason == nil {
			c.reason = reason
		}
		if IsSystemError(reason) {
			c.errored = true
			c.notifyErr(err)
		}
	}
	c.disconnecting = true
	c.info(ConnectionCloseRead)
	c.beginClose()
}

func (c *Conn) maybeStartWrite() {
	if c.writing || c.disconnected || c.wbuf.Len() == 0 {
		return
	}
	if c.tls != nil && !c.sslAccepted {
		// queued until the handshake completes; flushed from
		// onHandshakeDone.
		return
	}

	data := c.wbuf.Unread()
	cp := make([]byte, len(data))
	copy(cp, data)

	conn := c.conn
	c.writing = true
	c.pending++
	c.info(ConnectionWrite)
	go func() {
		n, err := conn.Write(cp)
		c.rct.Post(func() { c.onWriteDone(n, err) })
	}()
}

func (c *Conn) onWriteDone(n int, err error) {
	c.pending--
	c.writing = false

	if n > 0 {
		c.wbuf.ReadCompleted(n)
	}

	if err != nil {
		if !isAbortedOp(err) && c.reason == nil {
			c.reason = WrapSystemError(err)
			c.errored = true
			c.notifyErr(err)
		}
		c.wbuf.Reset()
		c.disconnecting = true
		c.beginClose()
		return
	}

	if c.disconnecting && c.wbuf.Len() == 0 {
		c.info(ConnectionCloseWrite)
		c.beginClose()
		return
	}
	c.maybeStartWrite()
}

// beginClose is idempotent: it spawns the single goroutine that closes the
// transport (which, for an established TLS session, first attempts a
// close_notify) and is safe to call from any of the error paths above as
// well as from LoseConnection/AbortConnection once they've decided the
// connection is going down.
func (c *Conn) beginClose() {
	if c.sslAccepting && c.hsCancel != nil {
		c.hsCancel()
		c.hsCancel = nil
	}
	if c.closing {
		c.maybeFinalize()
		return
	}
	c.closing = true
	if c.tls != nil && c.sslAccepted {
		c.sslShutting = true
	}

	conn := c.conn
	c.pending++
	c.info(ConnectionClose)
	go func() {
		err := conn.Close()
		c.rct.Post(func() { c.onCloseDone(err) })
	}()
}

func (c *Conn) onCloseDone(err error) {
	c.pending--
	if err != nil && !isAbortedOp(err) && c.reason == nil {
		c.reason = WrapSystemError(err)
	}
	c.maybeFinalize()
}

func (c *Conn) maybeFinalize() {
	if c.disconnecting && c.pending == 0 && !c.disconnected {
		c.finalize()
	}
}

func (c *Conn) finalize() {
	c.disconnected = true
	reason := c.reason
	if reason == nil {
		reason = ErrConnectionDone
	}
	if !c.lostDelivered {
		c.lostDelivered = true
		c.proto.ConnectionLost(reason)
		if c.lostHook != nil {
			c.lostHook(reason)
		}
	}
}
