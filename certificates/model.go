/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package certificates

import (
	"crypto/tls"
	"io"

	tlsaut "github.com/nabbar/reactor/certificates/auth"
	tlscas "github.com/nabbar/reactor/certificates/ca"
	tlscrt "github.com/nabbar/reactor/certificates/certs"
	tlscpr "github.com/nabbar/reactor/certificates/cipher"
	tlscrv "github.com/nabbar/reactor/certificates/curves"
	tlsvrs "github.com/nabbar/reactor/certificates/tlsversion"
)

// config is the concrete TLSConfig: every listener and connector in the
// socket packages builds its *tls.Config through one of these, shared
// (reference-counted by the caller) across every connection it serves.
type config struct {
	rand io.Reader

	cert       []tlscrt.Cert
	cipherList []tlscpr.Cipher
	curveList  []tlscrv.Curves

	caRoot []tlscas.Cert

	clientAuth tlsaut.ClientAuth
	clientCA   []tlscas.Cert

	tlsMinVersion tlsvrs.Version
	tlsMaxVersion tlsvrs.Version

	dynSizingDisabled     bool
	ticketSessionDisabled bool
}

func (o *config) RegisterRand(rand io.Reader) {
	o.rand = rand
}

func (o *config) SetVersionMin(v tlsvrs.Version) {
	o.tlsMinVersion = v
}

func (o *config) GetVersionMin() tlsvrs.Version {
	return o.tlsMinVersion
}

func (o *config) SetVersionMax(v tlsvrs.Version) {
	o.tlsMaxVersion = v
}

func (o *config) GetVersionMax() tlsvrs.Version {
	return o.tlsMaxVersion
}

func (o *config) SetCipherList(c []tlscpr.Cipher) {
	o.cipherList = make([]tlscpr.Cipher, 0)
	o.AddCiphers(c...)
}

func (o *config) AddCiphers(c ...tlscpr.Cipher) {
	o.cipherList = append(o.cipherList, c...)
}

func (o *config) GetCiphers() []tlscpr.Cipher {
	var res = make([]tlscpr.Cipher, 0)

	for _, i := range o.cipherList {
		if tlscpr.Check(i.Uint16()) {
			res = append(res, i)
		}
	}

	return res
}

func (o *config) SetDynamicSizingDisabled(flag bool) {
	o.dynSizingDisabled = flag
}

func (o *config) SetSessionTicketDisabled(flag bool) {
	o.ticketSessionDisabled = flag
}

// Config returns the validated declarative form of this TLSConfig, the same
// shape socket/config.TLS wraps for (un)marshalling.
func (o *config) Config() *Config {
	return &Config{
		CurveList:            o.GetCurves(),
		CipherList:           o.GetCiphers(),
		RootCA:               o.GetRootCA(),
		ClientCA:             o.GetClientCA(),
		Certs:                nil,
		VersionMin:           o.tlsMinVersion,
		VersionMax:           o.tlsMaxVersion,
		AuthClient:           o.clientAuth,
		DynamicSizingDisable: o.dynSizingDisabled,
		SessionTicketDisable: o.ticketSessionDisabled,
	}
}

// Clone returns an independent copy: appending a root CA or certificate pair
// to the clone never affects the TLSConfig it was cloned from, so a listener
// already serving connections on the original can be rotated without racing
// the in-flight handshakes reading the clone.
func (o *config) Clone() TLSConfig {
	return &config{
		rand:                  o.rand,
		cert:                  append(make([]tlscrt.Cert, 0, len(o.cert)), o.cert...),
		cipherList:            append(make([]tlscpr.Cipher, 0, len(o.cipherList)), o.cipherList...),
		curveList:             append(make([]tlscrv.Curves, 0, len(o.curveList)), o.curveList...),
		caRoot:                append(make([]tlscas.Cert, 0, len(o.caRoot)), o.caRoot...),
		clientAuth:            o.clientAuth,
		clientCA:              append(make([]tlscas.Cert, 0, len(o.clientCA)), o.clientCA...),
		tlsMinVersion:         o.tlsMinVersion,
		tlsMaxVersion:         o.tlsMaxVersion,
		dynSizingDisabled:     o.dynSizingDisabled,
		ticketSessionDisabled: o.ticketSessionDisabled,
	}
}

// TlsConfig builds the stdlib *tls.Config this TLSConfig describes. Every
// listener calls this once at bind time (or once per accepted connection
// when a fresh clone is wanted); every connector calls it once before
// dialing. serverName, when non-empty, is the SNI/verification name the
// design's check_host option names.
func (o *config) TlsConfig(serverName string) *tls.Config {
	/* #nosec */
	cnf := &tls.Config{
		InsecureSkipVerify: false,
		Rand:               o.rand,
	}

	if serverName != "" {
		cnf.ServerName = serverName
	}

	cnf.SessionTicketsDisabled = o.ticketSessionDisabled
	cnf.DynamicRecordSizingDisabled = o.dynSizingDisabled

	if o.tlsMinVersion != tlsvrs.VersionUnknown {
		cnf.MinVersion = o.tlsMinVersion.TLS()
	}

	if o.tlsMaxVersion != tlsvrs.VersionUnknown {
		cnf.MaxVersion = o.tlsMaxVersion.TLS()
	}

	if cs := o.GetCiphers(); len(cs) > 0 {
		cnf.PreferServerCipherSuites = true
		for _, c := range cs {
			cnf.CipherSuites = append(cnf.CipherSuites, c.TLS())
		}
	}

	if cv := o.GetCurves(); len(cv) > 0 {
		for _, c := range cv {
			cnf.CurvePreferences = append(cnf.CurvePreferences, c.TLS())
		}
	}

	if pool := o.GetRootCAPool(); len(o.caRoot) > 0 {
		cnf.RootCAs = pool
	}

	if certs := o.GetCertificatePair(); len(certs) > 0 {
		cnf.Certificates = certs
	}

	if o.clientAuth != tlsaut.NoClientCert {
		cnf.ClientAuth = o.clientAuth.TLS()
		if pool := o.GetClientCAPool(); len(o.clientCA) > 0 {
			cnf.ClientCAs = pool
		}
	}

	return cnf
}

// TLS is an alias for TlsConfig kept for callers that prefer the shorter
// name; both build the same *tls.Config from the same state.
func (o *config) TLS(serverName string) *tls.Config {
	return o.TlsConfig(serverName)
}
