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

package tlscache

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"time"
)

// HandshakeTimeout bounds the short TCP-over-TLS connection opened by
// GetCertificate, matching the channel-open handshake timeout default in
// spec.md §5.
const HandshakeTimeout = 10 * time.Second

var tlsDialer = net.Dialer{Timeout: HandshakeTimeout}

// GetCertificate fetches and PEM-encodes the peer's leaf certificate for
// the endpoint, completing a handshake with verification disabled (this is
// a certificate *retrieval* operation, not an authenticated connection), and
// caches the result under (host, port). Per spec.md §4.A, cache misses fall
// through to a live fetch and a failed fetch is never cached.
func (m *Manager) GetCertificate(ep Endpoint) ([]byte, error) {
	if ep.CacheEnabled {
		if pemBytes, ok := m.certificates.get(ep.certificateKey()); ok {
			return pemBytes, nil
		}
	}

	pemBytes, err := fetchCertificate(ep)
	if err != nil {
		return nil, err
	}

	if ep.CacheEnabled {
		m.certificates.put(ep.certificateKey(), pemBytes)
	}
	return pemBytes, nil
}

func fetchCertificate(ep Endpoint) ([]byte, error) {
	/* #nosec G402 -- intentional: this connection exists only to read the peer's certificate. */
	conn, err := tls.DialWithDialer(&tlsDialer, "tcp", ep.Address(), &tls.Config{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return nil, fmt.Errorf("tlscache: fetch certificate for %s: %w", ep.Address(), err)
	}
	defer func() { _ = conn.Close() }()

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, fmt.Errorf("tlscache: no peer certificate presented by %s", ep.Address())
	}

	leaf := state.PeerCertificates[0]
	return pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: leaf.Raw,
	}), nil
}

// ParseCertificate decodes a PEM-encoded certificate back into an
// *x509.Certificate, for callers that need more than the raw bytes.
func ParseCertificate(pemBytes []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("tlscache: no PEM block found")
	}
	return x509.ParseCertificate(block.Bytes)
}
