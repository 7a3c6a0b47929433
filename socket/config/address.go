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

package config

import (
	"net"

	"github.com/nabbar/reactor/network/protocol"
)

// validateAddress confirms addr is valid for net, without dialing or
// binding: a TCP address must parse with ResolveTCPAddr (which looks a host
// name up through DNS), a Unix address is any non-empty path.
func validateAddress(net_ protocol.NetworkProtocol, addr string) error {
	if addr == "" {
		return ErrorAddressEmpty.Error(nil)
	}

	if net_.IsUnix() {
		return nil
	}

	if !net_.IsStream() {
		return ErrorNetworkUnsupported.Error(nil)
	}

	if _, e := net.ResolveTCPAddr(net_.Code(), addr); e != nil {
		err := ErrorAddressInvalid.Error(nil)
		err.Add(e)
		return err
	}

	return nil
}
