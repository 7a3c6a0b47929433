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

package config_test

import (
	"testing"

	"github.com/nabbar/reactor/network/protocol"
	"github.com/nabbar/reactor/socket/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Socket Config Suite")
}

var _ = Describe("Server", func() {
	It("validates a minimal TCP configuration", func() {
		cfg := config.Server{
			Network: protocol.NetworkTCP,
			Address: "127.0.0.1:0",
		}
		Expect(cfg.Validate()).To(BeNil())
	})

	It("validates a Unix configuration by path alone", func() {
		cfg := config.Server{
			Network: protocol.NetworkUnix,
			Address: "/tmp/reactor-test.sock",
		}
		Expect(cfg.Validate()).To(BeNil())
	})

	It("rejects a missing address", func() {
		cfg := config.Server{Network: protocol.NetworkTCP}
		Expect(cfg.Validate()).ToNot(BeNil())
	})

	It("rejects an address that does not resolve for TCP", func() {
		cfg := config.Server{
			Network: protocol.NetworkTCP,
			Address: "not a valid address",
		}
		Expect(cfg.Validate()).ToNot(BeNil())
	})

	It("reports no TLSConfig when TLS is disabled", func() {
		cfg := config.Server{Network: protocol.NetworkTCP, Address: "127.0.0.1:0"}
		Expect(cfg.TLSConfig()).To(BeNil())
	})

	It("builds a TLSConfig when TLS is enabled", func() {
		cfg := config.Server{Network: protocol.NetworkTCP, Address: "127.0.0.1:0"}
		cfg.TLS.Enabled = true
		Expect(cfg.TLSConfig()).ToNot(BeNil())
	})
})

var _ = Describe("Client", func() {
	It("validates a minimal TCP configuration", func() {
		cfg := config.Client{
			Network: protocol.NetworkTCP,
			Address: "127.0.0.1:9",
		}
		Expect(cfg.Validate()).To(BeNil())
	})

	It("rejects an empty network", func() {
		cfg := config.Client{Address: "127.0.0.1:9"}
		Expect(cfg.Validate()).ToNot(BeNil())
	})
})
