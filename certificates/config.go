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

// Package certificates builds the verifying *tls.Config the gateway client
// dials the remote SQL gateway with. tlscache is the only caller, and it
// only ever needs a root-of-trust pool assembled from PEM text and a
// *tls.Config for one server name — so that is the entire surface kept
// here, trimmed down from a general-purpose certificate/cipher/curve
// configuration toolkit to the two operations the gateway domain actually
// performs.
package certificates

import (
	"crypto/tls"
	"crypto/x509"

	liberr "github.com/mapepire-ibmi/gateway-core-go/errors"
)

// Config builds a server-trust *tls.Config incrementally: add zero or more
// root CAs in PEM form, then ask for the *tls.Config to dial a given server
// name with.
type Config interface {
	// AddRootCAString parses rootCA as one or more concatenated PEM-encoded
	// certificates and adds them to the trust pool. It reports false (and
	// records the failure, retrievable with Err) if rootCA does not parse
	// as at least one valid certificate.
	AddRootCAString(rootCA string) bool

	// Err returns the error from the most recent failed AddRootCAString
	// call, or nil if the last call succeeded or none was made.
	Err() liberr.Error

	// TLS returns a *tls.Config that verifies the peer against the
	// accumulated root CA pool (the platform pool if none were added) and
	// sets ServerName for SNI and hostname verification.
	TLS(serverName string) *tls.Config
}

type config struct {
	pool *x509.CertPool
	err  liberr.Error
}

// New returns a Config with an empty root CA pool and the gateway's TLS
// version floor (1.2) and ceiling (1.3).
func New() Config {
	return &config{pool: x509.NewCertPool()}
}

func (c *config) AddRootCAString(rootCA string) bool {
	if rootCA == "" {
		c.err = ErrorParamsEmpty.Error(nil)
		return false
	}

	if ok := c.pool.AppendCertsFromPEM([]byte(rootCA)); !ok {
		c.err = ErrorCertAppend.Error(nil)
		return false
	}

	c.err = nil
	return true
}

func (c *config) Err() liberr.Error {
	return c.err
}

func (c *config) TLS(serverName string) *tls.Config {
	roots := c.pool
	if roots.Equal(x509.NewCertPool()) {
		roots = nil
	}

	/* #nosec */
	return &tls.Config{
		ServerName: serverName,
		RootCAs:    roots,
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS13,
	}
}
