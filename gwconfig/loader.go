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

// Package gwconfig decodes external, INI-style endpoint sections into the
// core's typed option structs. It never reads a file itself (file/format
// parsing is a caller concern); it only decodes an already-parsed section
// (map[string]interface{} -> keys matching the field names) into an
// Endpoint or Pool Options via mapstructure.
package gwconfig

import (
	"github.com/mitchellh/mapstructure"

	"github.com/mapepire-ibmi/gateway-core-go/pool"
	"github.com/mapepire-ibmi/gateway-core-go/tlscache"
)

// decodeHook parses string durations ("10s") into time.Duration fields (a
// bare number is taken as nanoseconds) and splits comma-separated strings
// into slices.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// DecodeEndpoint decodes one endpoint section (keys matching
// tlscache.Endpoint's field names, case-insensitively) into a validated
// Endpoint.
func DecodeEndpoint(section map[string]interface{}) (tlscache.Endpoint, error) {
	var ep tlscache.Endpoint

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decodeHook(),
		WeaklyTypedInput: true,
		Result:           &ep,
	})
	if err != nil {
		return tlscache.Endpoint{}, err
	}
	if err := dec.Decode(section); err != nil {
		return tlscache.Endpoint{}, err
	}

	if err := ep.Validate(); err != nil {
		return tlscache.Endpoint{}, err
	}
	return ep, nil
}

// DecodePoolOptions decodes a pool-sizing section (starting_size, max_size,
// pre_warm, health_check_interval) into pool.Options, leaving Endpoint,
// ChannelOpts, TLSManager and Logger for the caller to fill in: those are
// runtime collaborators, not config-file material.
func DecodePoolOptions(section map[string]interface{}) (pool.Options, error) {
	var opts pool.Options

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decodeHook(),
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return pool.Options{}, err
	}
	if err := dec.Decode(section); err != nil {
		return pool.Options{}, err
	}

	return opts, nil
}
