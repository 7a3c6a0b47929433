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

// Package logging wires the reactor's socket.FuncInfo / socket.FuncError
// hook points to logrus, the same logging library the rest of this module's
// ambient stack is built on. Neither hook is mandatory - a caller that wants
// no logging at all simply passes nil for both - but when one is wanted,
// these constructors save writing the field mapping by hand.
package logging

import (
	"net"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/reactor/socket"
)

// Field names applied to every entry these adapters emit, mirroring the
// fixed vocabulary (FieldError, FieldData, ...) the module's other
// ambient-stack packages use for structured fields.
const (
	FieldLocal   = "local_addr"
	FieldRemote  = "remote_addr"
	FieldState   = "conn_state"
	FieldNetwork = "network"
)

// NewInfoHook returns a socket.FuncInfo that logs each connection lifecycle
// transition at Debug level. log may be nil, in which case logrus.StandardLogger
// is used.
func NewInfoHook(log *logrus.Logger) socket.FuncInfo {
	return func(local, remote net.Addr, state socket.ConnState) {
		entry := logrusEntry(log)
		if local != nil {
			entry = entry.WithField(FieldLocal, local.String())
		}
		if remote != nil {
			entry = entry.WithField(FieldRemote, remote.String())
		}
		entry.WithField(FieldState, state.String()).Debug("connection state transition")
	}
}

// NewErrorHook returns a socket.FuncError that logs every reported error at
// Error level. socket itself never calls this with an operation_aborted-class
// error (see socket.ErrorFilter / socket.IsAbortedOp) - those are always
// filtered out before reaching a FuncError hook.
func NewErrorHook(log *logrus.Logger) socket.FuncError {
	return func(errs ...error) {
		entry := logrusEntry(log)
		for _, err := range errs {
			if err == nil {
				continue
			}
			entry.WithError(err).Error("connection error")
		}
	}
}

func logrusEntry(log *logrus.Logger) *logrus.Entry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return logrus.NewEntry(log)
}
