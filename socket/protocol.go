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

import "net"

// Connection is the handle a Protocol receives in MakeConnection. Every
// method is only ever safe to call from the reactor thread - i.e. from
// within a Protocol callback - since that is the only goroutine allowed to
// touch connection state.
type Connection interface {
	// Write queues p for transmission. It never blocks: bytes are copied
	// into the connection's outbound buffer and the actual write happens
	// on a goroutine of its own. A non-nil error here means the
	// connection is already on its way down and p was dropped.
	Write(p []byte) error

	// LoseConnection starts a graceful shutdown: any data already queued
	// is flushed first, then (for TLS) a close_notify is attempted, then
	// the socket is closed. ConnectionLost is eventually delivered with
	// ErrConnectionDone absent an intervening error.
	LoseConnection()

	// AbortConnection tears the connection down immediately, discarding
	// any queued but unsent data. ConnectionLost is delivered with
	// ErrConnectionAbort.
	AbortConnection()

	LocalAddr() net.Addr
	RemoteAddr() net.Addr

	// NoDelay and SetNoDelay expose Nagle's algorithm control on the
	// underlying TCP socket. On a UNIX-domain connection NoDelay always
	// reports true and SetNoDelay is a no-op.
	NoDelay() bool
	SetNoDelay(enable bool) error

	// KeepAlive and SetKeepAlive expose TCP keep-alive control on the
	// underlying socket.
	KeepAlive() bool
	SetKeepAlive(enable bool) error
}

// Protocol is implemented by application code. Its three methods are always
// invoked from the reactor thread, in the order MakeConnection,
// zero-or-more DataReceived, ConnectionLost - and never after
// ConnectionLost has been delivered.
type Protocol interface {
	// MakeConnection is called once a transport-level connection exists.
	// For a TLS connection it fires before the handshake completes, so a
	// Protocol that calls c.Write from here is queuing data to be flushed
	// once the handshake succeeds, not sending it immediately.
	MakeConnection(c Connection)

	// DataReceived is called once per inbound read that yields at least
	// one byte, with a view onto that data valid only for the duration of
	// the call.
	DataReceived(p []byte)

	// ConnectionLost is called exactly once, with the reason the
	// connection ended. reason is one of ErrConnectionDone,
	// ErrConnectionAbort, ErrUserAbort, ErrTimeout, or a wrapped system
	// error - see ErrorFilter for what never reaches here.
	ConnectionLost(reason error)
}

// Factory builds one Protocol per accepted (server) or established (client)
// connection.
type Factory interface {
	// DoStart is called once, before the first connection is accepted or
	// attempted.
	DoStart()

	// DoStop is called once the factory's producer stops: a Listener calls
	// it from StopListening, without waiting for connections it already
	// accepted to close; a Connector calls it once its attempt or
	// connection has ended and no new attempt was started from the
	// notifying callback.
	DoStop()

	// BuildProtocol returns the Protocol to drive a new connection from
	// peer. Returning nil refuses the connection: it is closed
	// immediately without a MakeConnection/ConnectionLost pair.
	BuildProtocol(peer net.Addr) Protocol
}

// Connector is the handle a ClientFactory receives for a connection attempt
// still in progress; it is the only way to cancel one before it succeeds or
// fails on its own.
type Connector interface {
	// StopConnecting cancels an in-progress connection attempt. It
	// returns ErrNotConnecting if the attempt has already resolved one
	// way or the other.
	StopConnecting() error
}

// ClientFactory extends Factory with the notifications specific to
// outbound, possibly-reconnecting, connection attempts.
type ClientFactory interface {
	Factory

	// StartedConnecting is called once a connection attempt begins,
	// before it is known to succeed or fail.
	StartedConnecting(c Connector)

	// ClientConnectionFailed is called when an attempt never reached
	// MakeConnection - DNS failure, refused connection, timeout, or
	// explicit StopConnecting. A TLS handshake runs after MakeConnection,
	// so a handshake failure is reported through ClientConnectionLost.
	ClientConnectionFailed(c Connector, reason error)

	// ClientConnectionLost is called instead of ClientConnectionFailed
	// when the attempt succeeded and later ended; reason has the same
	// vocabulary as Protocol.ConnectionLost.
	ClientConnectionLost(c Connector, reason error)
}
