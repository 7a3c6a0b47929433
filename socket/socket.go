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

// Package socket holds the transport-agnostic contracts and the shared
// connection state machine that the server and client packages build on: the protocol/factory programming model, the connection
// lifecycle, and the small vocabulary (ConnState, error filtering) used to
// observe it.
package socket

import (
	"errors"
	"io"
	"net"
	"strings"
)

// DefaultBufferSize is the initial capacity handed to a connection's read
// buffer when its configuration does not override it.
const DefaultBufferSize = 32 * 1024

// EOL is the line terminator recognized by line-oriented protocols built on
// top of a Connection; the reactor itself never frames on it.
const EOL = '\n'

// ConnState identifies a phase in a connection's life, for observability
// only - it has no bearing on the state machine's behavior. FuncInfo hooks
// receive it on every transition worth reporting.
type ConnState uint8

const (
	ConnectionDial ConnState = iota
	ConnectionNew
	ConnectionRead
	ConnectionCloseRead
	ConnectionHandler
	ConnectionWrite
	ConnectionCloseWrite
	ConnectionClose
	ConnectionHandshake
)

func (s ConnState) String() string {
	switch s {
	case ConnectionDial:
		return "Dial Connection"
	case ConnectionNew:
		return "New Connection"
	case ConnectionRead:
		return "Read Incoming Stream"
	case ConnectionCloseRead:
		return "Close Incoming Stream"
	case ConnectionHandler:
		return "Run HandlerFunc"
	case ConnectionWrite:
		return "Write Outgoing Steam"
	case ConnectionCloseWrite:
		return "Close Outgoing Stream"
	case ConnectionClose:
		return "Close Connection"
	case ConnectionHandshake:
		return "TLS Handshake"
	default:
		return "unknown connection state"
	}
}

// FuncError reports one or more operational errors observed by a connection,
// listener or connector. It is never called with operation_aborted-class
// errors: those are recoverable locally and are not logged (see
// ErrorFilter).
type FuncError func(errs ...error)

// FuncInfo reports a connection-lifecycle transition, for logging or
// monitoring. local may be nil for a connection that has not yet completed
// its handshake/connect step.
type FuncInfo func(local, remote net.Addr, state ConnState)

// ErrorFilter recognizes errors produced by the runtime's own teardown path
// - a socket this package itself just closed - and swallows them, since
// they carry no information the caller doesn't already have from the
// connectionLost reason. Any other error passes through unchanged,
// including a nil one.
func ErrorFilter(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	if strings.Contains(err.Error(), "use of closed network connection") {
		return nil
	}
	return err
}

// IsAbortedOp is the exported form of isAbortedOp, for the listener and
// connector packages classifying their own Accept/Dial errors the same way
// Conn classifies its Read/Write/Close errors.
func IsAbortedOp(err error) bool {
	return isAbortedOp(err)
}

// isAbortedOp reports whether err is the local side's own cancellation
// signal - closing a conn out from under a blocked Read/Write/handshake -
// rather than a genuine peer or transport failure. It is the Go analogue of
// the design's operation_aborted: never surfaced to the protocol, never
// logged.
func isAbortedOp(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}
