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

package pool

import (
	"time"

	libval "github.com/go-playground/validator/v10"

	"github.com/mapepire-ibmi/gateway-core-go/channel"
	"github.com/mapepire-ibmi/gateway-core-go/gwlog"
	"github.com/mapepire-ibmi/gateway-core-go/tlscache"
)

var validate = libval.New()

// BusyLoadThreshold is the "> 2 in-flight" tie-break from spec.md §4.H: the
// pool opens a fresh channel instead of handing out the least-loaded busy
// one when that channel is loaded beyond this threshold and the pool still
// has space.
const BusyLoadThreshold = 2

// DefaultHealthCheckInterval matches channel.DefaultHandshakeTimeout's order
// of magnitude; a positive interval enables the background cleanup task.
const DefaultHealthCheckInterval = 30 * time.Second

// metricsCacheTTL is the staleness window for the lazily-refreshed
// running-count cache (spec.md §4.H: "~1s").
const metricsCacheTTL = time.Second

// Options configures a Pool.
type Options struct {
	StartingSize int `json:"starting_size" yaml:"starting_size" toml:"starting_size" mapstructure:"starting_size" validate:"required,gt=0"`
	MaxSize      int `json:"max_size" yaml:"max_size" toml:"max_size" mapstructure:"max_size" validate:"required,gtefield=StartingSize"`

	PreWarm bool `json:"pre_warm,omitempty" yaml:"pre_warm,omitempty" toml:"pre_warm,omitempty" mapstructure:"pre_warm"`

	// HealthCheckInterval of zero disables the background cleanup task.
	HealthCheckInterval time.Duration `json:"health_check_interval,omitempty" yaml:"health_check_interval,omitempty" toml:"health_check_interval,omitempty" mapstructure:"health_check_interval"`

	Endpoint      tlscache.Endpoint
	ChannelOpts   channel.Options
	TLSManager    *tlscache.Manager
	MetricsName   string
	Logger        gwlog.Logger
}

func (o Options) Validate() error {
	return validate.Struct(o)
}

func (o Options) logger() gwlog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return gwlog.Discard()
}

func (o Options) metricsName() string {
	if o.MetricsName != "" {
		return o.MetricsName
	}
	return "default"
}
