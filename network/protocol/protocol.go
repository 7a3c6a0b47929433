/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package protocol enumerates the network transport identities recognized by
// the reactor: the string each one maps to is the exact value accepted by
// net.Dial / net.Listen for that transport.
package protocol

import "strings"

// NetworkProtocol identifies a transport family understood by the socket
// packages. The zero value, NetworkEmpty, never resolves to a usable
// transport.
type NetworkProtocol uint8

const (
	NetworkEmpty NetworkProtocol = iota
	NetworkUnix
	NetworkTCP
	NetworkTCP4
	NetworkTCP6
	NetworkUDP
	NetworkUDP4
	NetworkUDP6
	NetworkIP
	NetworkIP4
	NetworkIP6
	NetworkUnixGram
)

// String returns the lowercase transport name, or "" for an unrecognized value.
func (n NetworkProtocol) String() string {
	switch n {
	case NetworkUnix:
		return "unix"
	case NetworkTCP:
		return "tcp"
	case NetworkTCP4:
		return "tcp4"
	case NetworkTCP6:
		return "tcp6"
	case NetworkUDP:
		return "udp"
	case NetworkUDP4:
		return "udp4"
	case NetworkUDP6:
		return "udp6"
	case NetworkIP:
		return "ip"
	case NetworkIP4:
		return "ip4"
	case NetworkIP6:
		return "ip6"
	case NetworkUnixGram:
		return "unixgram"
	default:
		return ""
	}
}

// Code is the value to hand to net.Dial / net.Listen / net.ResolveXAddr for
// this protocol. It is kept distinct from String for callers who want a
// network string specifically, even though the two currently agree.
func (n NetworkProtocol) Code() string {
	return n.String()
}

// IsStream reports whether the protocol carries a byte stream (as opposed to
// datagrams). The reactor only ever drives stream transports.
func (n NetworkProtocol) IsStream() bool {
	switch n {
	case NetworkTCP, NetworkTCP4, NetworkTCP6, NetworkUnix:
		return true
	default:
		return false
	}
}

// IsUnix reports whether the protocol addresses a filesystem path instead of
// a host:port pair.
func (n NetworkProtocol) IsUnix() bool {
	return n == NetworkUnix || n == NetworkUnixGram
}

func (n NetworkProtocol) Int() int {
	if n > NetworkUnixGram {
		return 0
	}
	return int(n)
}

func (n NetworkProtocol) Int64() int64 {
	return int64(n.Int())
}

func (n NetworkProtocol) Uint() uint {
	return uint(n.Int())
}

func (n NetworkProtocol) Uint8() uint8 {
	return uint8(n.Int())
}

// Parse resolves a protocol name, case-insensitively, into a NetworkProtocol.
// An unrecognized name resolves to NetworkEmpty.
func Parse(s string) NetworkProtocol {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unix":
		return NetworkUnix
	case "tcp":
		return NetworkTCP
	case "tcp4":
		return NetworkTCP4
	case "tcp6":
		return NetworkTCP6
	case "udp":
		return NetworkUDP
	case "udp4":
		return NetworkUDP4
	case "udp6":
		return NetworkUDP6
	case "ip":
		return NetworkIP
	case "ip4":
		return NetworkIP4
	case "ip6":
		return NetworkIP6
	case "unixgram":
		return NetworkUnixGram
	default:
		return NetworkEmpty
	}
}

// ParseInt64 resolves the ordinal produced by Int64 back into a NetworkProtocol.
func ParseInt64(i int64) NetworkProtocol {
	if i < 0 || i > int64(NetworkUnixGram) {
		return NetworkEmpty
	}
	return NetworkProtocol(i)
}

// MarshalText implements encoding.TextMarshaler so the protocol can be used
// directly as a config field (json/yaml/toml/mapstructure all fall back to it).
func (n NetworkProtocol) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *NetworkProtocol) UnmarshalText(b []byte) error {
	*n = Parse(string(b))
	return nil
}
