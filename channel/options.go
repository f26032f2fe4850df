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

package channel

import (
	"sort"
	"strings"
	"time"

	libval "github.com/go-playground/validator/v10"

	"github.com/mapepire-ibmi/gateway-core-go/gwlog"
)

var validate = libval.New()

// Options configures a Channel's handshake and concurrency bounds. Fields
// carry json/yaml/toml/mapstructure tags side by side so an external loader
// can populate an Options from any of those formats without this package
// knowing the source (spec.md §10.3).
type Options struct {
	// Application identifies this client to the gateway in the connect
	// handshake (spec.md §4.B).
	Application string `json:"application" yaml:"application" toml:"application" mapstructure:"application" validate:"required"`

	// Props are serialized into the handshake's semicolon-delimited
	// key=value properties string, in lexicographic key order for
	// determinism.
	Props map[string]string `json:"props,omitempty" yaml:"props,omitempty" toml:"props,omitempty" mapstructure:"props"`

	// MaxConcurrency bounds the number of requests this Channel will have
	// in flight at once; a send_request call beyond this blocks until a
	// slot frees (spec.md §5's per-channel bounded concurrency). Zero
	// means unbounded.
	MaxConcurrency int64 `json:"max_concurrency,omitempty" yaml:"max_concurrency,omitempty" toml:"max_concurrency,omitempty" mapstructure:"max_concurrency" validate:"gte=0"`

	// HandshakeTimeout bounds the connect round-trip; defaults to 10s
	// (spec.md §5).
	HandshakeTimeout time.Duration `json:"handshake_timeout,omitempty" yaml:"handshake_timeout,omitempty" toml:"handshake_timeout,omitempty" mapstructure:"handshake_timeout"`

	// Logger receives structured log entries for this Channel; defaults to
	// a discarding logger when nil.
	Logger gwlog.Logger `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
}

// Validate applies struct-tag validation, following the
// database/gorm.Config pattern (`libval.New().Struct(c)`).
func (o Options) Validate() error {
	return validate.Struct(o)
}

func (o Options) handshakeTimeout() time.Duration {
	if o.HandshakeTimeout > 0 {
		return o.HandshakeTimeout
	}
	return DefaultHandshakeTimeout
}

func (o Options) logger() gwlog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return gwlog.Discard()
}

// propsString serializes Props into the semicolon-delimited "key=val;..."
// form the connect handshake expects, keys sorted for determinism.
func (o Options) propsString() string {
	if len(o.Props) == 0 {
		return ""
	}

	keys := make([]string, 0, len(o.Props))
	for k := range o.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+o.Props[k])
	}
	return strings.Join(parts, ";")
}

// DefaultHandshakeTimeout is the channel-open timeout per spec.md §5.
const DefaultHandshakeTimeout = 10 * time.Second
