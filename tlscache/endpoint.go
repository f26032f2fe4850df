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

// Package tlscache builds TLS verification contexts for the gateway's
// endpoints and caches them, along with the peer's server certificate,
// bounded by size and TTL. It wraps the certificates package for the actual
// tls.Config construction and the cache/cache-item substrate for expiry,
// adding the capacity-bounded eviction that substrate does not provide on
// its own.
package tlscache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	libval "github.com/go-playground/validator/v10"
)

// CredentialProducer yields a password or an opaque Kerberos token string,
// used verbatim in the Basic auth header. It is an external collaborator:
// this package never inspects or caches its output.
type CredentialProducer func() (string, error)

// Endpoint describes a gateway target. Only Host, Port, VerifyPeer and
// CACertificate influence the TLS cache key; User/Password/Credential never
// do, so two Endpoints differing only in credentials share a TLS context.
type Endpoint struct {
	Host string `json:"host" yaml:"host" toml:"host" mapstructure:"host" validate:"required"`
	Port int    `json:"port" yaml:"port" toml:"port" mapstructure:"port" validate:"required,gt=0,lte=65535"`

	User       string             `json:"user" yaml:"user" toml:"user" mapstructure:"user" validate:"required"`
	Password   string             `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty" mapstructure:"password"`
	Credential CredentialProducer `json:"-" yaml:"-" toml:"-" mapstructure:"-"`

	CACertificate string `json:"ca_certificate,omitempty" yaml:"ca_certificate,omitempty" toml:"ca_certificate,omitempty" mapstructure:"ca_certificate"`
	VerifyPeer    bool   `json:"verify_peer" yaml:"verify_peer" toml:"verify_peer" mapstructure:"verify_peer"`
	CacheEnabled  bool   `json:"cache_enabled" yaml:"cache_enabled" toml:"cache_enabled" mapstructure:"cache_enabled"`
}

var validate = libval.New()

// Validate applies struct tag validation via go-playground/validator.
func (e Endpoint) Validate() error {
	return validate.Struct(e)
}

// Address returns the host:port dial target.
func (e Endpoint) Address() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// contextKey is the cache key for verification contexts: host, port,
// verify-peer flag and a SHA-256 prefix of the CA material, never
// credentials — per spec.md §3's endpoint-identity rule.
func (e Endpoint) contextKey() string {
	return fmt.Sprintf("%s:%d:%t:%s", e.Host, e.Port, e.VerifyPeer, caHashPrefix(e.CACertificate))
}

// certificateKey is the cache key for fetched peer certificates: host:port
// only, independent of verification settings or credentials.
func (e Endpoint) certificateKey() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

func caHashPrefix(ca string) string {
	if ca == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ca))
	return hex.EncodeToString(sum[:])[:16]
}
