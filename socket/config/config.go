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

// Package config holds the declarative, (un)marshalable configuration for
// every server and client this module builds: network/address selection,
// optional TLS, idle/connect timeouts and buffer sizing. Values are meant to
// be loaded from JSON/YAML/TOML/CBOR config files via the same struct tags
// the rest of the module's ambient types use, then turned into a running
// listener or connector with socket/server and socket/client.
package config

import (
	"fmt"

	libval "github.com/go-playground/validator/v10"

	"github.com/nabbar/reactor/certificates"
	"github.com/nabbar/reactor/duration"
	liberr "github.com/nabbar/reactor/errors"
	"github.com/nabbar/reactor/network/protocol"
	"github.com/nabbar/reactor/perm"
)

// TLS controls whether a server or client negotiates TLS over its stream
// transport, and with what certificate/cipher/curve policy.
type TLS struct {
	Enabled bool                 `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`
	Config  certificates.Config  `mapstructure:"config" json:"config" yaml:"config" toml:"config"`
	ServerName string            `mapstructure:"serverName" json:"serverName" yaml:"serverName" toml:"serverName"`
}

func (t TLS) tlsConfig() *certificates.Config {
	cfg := t.Config
	return &cfg
}

// Server is the configuration for a single listener: the network it binds,
// the address it binds on, and the optional TLS and lifecycle policy
// applied to every connection it accepts.
type Server struct {
	Network protocol.NetworkProtocol `mapstructure:"network" json:"network" yaml:"network" toml:"network" validate:"required"`
	Address string                   `mapstructure:"address" json:"address" yaml:"address" toml:"address" validate:"required"`
	TLS     TLS                      `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`

	// PermFile and GroupPerm only apply to NetworkUnix: the mode and
	// group ownership applied to the socket file once bound.
	PermFile  perm.Perm `mapstructure:"permFile" json:"permFile" yaml:"permFile" toml:"permFile"`
	GroupPerm int       `mapstructure:"groupPerm" json:"groupPerm" yaml:"groupPerm" toml:"groupPerm"`

	// ConIdleTimeout, when non-zero, aborts a connection that neither
	// reads nor writes for that long.
	ConIdleTimeout duration.Duration `mapstructure:"conIdleTimeout" json:"conIdleTimeout" yaml:"conIdleTimeout" toml:"conIdleTimeout"`

	// BufferSize overrides DefaultBufferSize for every connection this
	// server accepts; 0 keeps the default.
	BufferSize int `mapstructure:"bufferSize" json:"bufferSize" yaml:"bufferSize" toml:"bufferSize"`
}

// Validate checks struct tags with go-playground/validator and, for stream
// transports, confirms Address parses for Network. It never dials or binds.
func (s Server) Validate() liberr.Error {
	err := ErrorValidatorError.Error(nil)

	if er := libval.New().Struct(s); er != nil {
		if e, ok := er.(*libval.InvalidValidationError); ok {
			err.Add(e)
		}
		for _, e := range er.(libval.ValidationErrors) {
			//nolint goerr113
			err.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.StructNamespace(), e.ActualTag()))
		}
	}

	if e := validateAddress(s.Network, s.Address); e != nil {
		err.Add(e)
	}

	if err.HasParent() {
		return err
	}
	return nil
}

// TLSConfig returns a copy of the certificates.Config this server's TLS
// policy describes, or nil when TLS is disabled.
func (s Server) TLSConfig() *certificates.Config {
	if !s.TLS.Enabled {
		return nil
	}
	return s.TLS.tlsConfig()
}

// Client is the configuration for a single outbound connection attempt.
type Client struct {
	Network protocol.NetworkProtocol `mapstructure:"network" json:"network" yaml:"network" toml:"network" validate:"required"`
	Address string                   `mapstructure:"address" json:"address" yaml:"address" toml:"address" validate:"required"`
	TLS     TLS                      `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`

	// Timeout bounds how long a connection attempt (DNS + dial) may run
	// before it is reported as ErrTimeout. A TLS handshake that follows
	// the dial is not covered by it.
	Timeout duration.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" toml:"timeout"`

	// ConIdleTimeout, when non-zero, aborts a connection that neither
	// reads nor writes for that long.
	ConIdleTimeout duration.Duration `mapstructure:"conIdleTimeout" json:"conIdleTimeout" yaml:"conIdleTimeout" toml:"conIdleTimeout"`

	BufferSize int `mapstructure:"bufferSize" json:"bufferSize" yaml:"bufferSize" toml:"bufferSize"`
}

func (c Client) Validate() liberr.Error {
	err := ErrorValidatorError.Error(nil)

	if er := libval.New().Struct(c); er != nil {
		if e, ok := er.(*libval.InvalidValidationError); ok {
			err.Add(e)
		}
		for _, e := range er.(libval.ValidationErrors) {
			//nolint goerr113
			err.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.StructNamespace(), e.ActualTag()))
		}
	}

	if e := validateAddress(c.Network, c.Address); e != nil {
		err.Add(e)
	}

	if err.HasParent() {
		return err
	}
	return nil
}

func (c Client) TLSConfig() *certificates.Config {
	if !c.TLS.Enabled {
		return nil
	}
	return c.TLS.tlsConfig()
}
