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
	"context"
	"crypto/tls"
	"fmt"
	"time"

	tlscfg "github.com/mapepire-ibmi/gateway-core-go/certificates"
)

const (
	// DefaultContextTTL matches ssl_cache.py's default ttl_seconds.
	DefaultContextTTL = time.Hour
	// DefaultContextCapacity matches the Python GenericCache default for
	// the SSL context cache.
	DefaultContextCapacity = 100
	// DefaultCertificateCapacity matches the Python certificate cache's
	// explicit max_size=50.
	DefaultCertificateCapacity = 50
)

// Manager owns the process-wide TLS context cache and certificate cache. It
// mirrors ssl_cache.py's module-level singleton caches, but as an
// explicitly constructed value rather than import-time globals, with a
// documented reset hook (Reset) for tests per spec.md §9's "Global caches"
// design note.
type Manager struct {
	contexts     *bounded[*tls.Config]
	certificates *bounded[[]byte]
}

// NewManager builds a Manager with the given context/certificate TTL and
// capacities. Use Default for the standard configuration.
func NewManager(ctx context.Context, contextTTL time.Duration, contextCap int, certCap int) *Manager {
	return &Manager{
		contexts:     newBounded[*tls.Config](ctx, contextCap, contextTTL),
		certificates: newBounded[[]byte](ctx, certCap, contextTTL),
	}
}

// Default returns a Manager using the package's default TTL/capacities,
// rooted at context.Background().
func Default() *Manager {
	return NewManager(context.Background(), DefaultContextTTL, DefaultContextCapacity, DefaultCertificateCapacity)
}

// GetContext returns a verification *tls.Config for the endpoint, building
// and caching it on a miss (per spec.md §4.A). When Endpoint.CacheEnabled
// is false the cache is bypassed entirely: every call builds fresh.
func (m *Manager) GetContext(ep Endpoint) (*tls.Config, error) {
	if ep.CacheEnabled {
		if cfg, ok := m.contexts.get(ep.contextKey()); ok {
			return cfg, nil
		}
	}

	cfg, err := buildContext(ep)
	if err != nil {
		return nil, err
	}

	if ep.CacheEnabled {
		m.contexts.put(ep.contextKey(), cfg)
	}
	return cfg, nil
}

// ContextStats exposes the context cache's hit/miss/eviction counters.
func (m *Manager) ContextStats() Stats {
	return m.contexts.stats()
}

// CertificateStats exposes the certificate cache's hit/miss/eviction
// counters.
func (m *Manager) CertificateStats() Stats {
	return m.certificates.stats()
}

// Reset clears both caches, for test isolation (spec.md §9's documented
// reset hook for global caches).
func (m *Manager) Reset() {
	m.contexts.clear()
	m.certificates.clear()
}

func buildContext(ep Endpoint) (*tls.Config, error) {
	c := tlscfg.New()

	if !ep.VerifyPeer {
		return insecureConfig(ep), nil
	}

	if ep.CACertificate != "" {
		if ok := c.AddRootCAString(ep.CACertificate); !ok {
			return nil, fmt.Errorf("tlscache: invalid CA certificate material for %s: %w", ep.Address(), c.Err())
		}
	}

	return c.TLS(ep.Host), nil
}

// insecureConfig disables hostname verification and peer validation for
// verify-peer=false endpoints. It still builds its *tls.Config through
// certificates.Config so the TLS version floor/ceiling match the verifying
// path.
func insecureConfig(ep Endpoint) *tls.Config {
	c := tlscfg.New().TLS(ep.Host)
	c.InsecureSkipVerify = true
	return c
}
