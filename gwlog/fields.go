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

package gwlog

import "github.com/sirupsen/logrus"

// Fields carries structured key/value context through a log call. The
// gateway uses a fixed vocabulary of field names (ChannelID, CorrelationID,
// PoolSize, Endpoint, ...) so downstream log processing can rely on them.
type Fields map[string]interface{}

// NewFields returns an empty Fields map ready for chaining.
func NewFields() Fields {
	return make(Fields)
}

func (f Fields) clone() Fields {
	n := make(Fields, len(f))
	for k, v := range f {
		n[k] = v
	}
	return n
}

// Add returns a copy of f with key set to val, leaving f untouched.
func (f Fields) Add(key string, val interface{}) Fields {
	n := f.clone()
	n[key] = val
	return n
}

// Merge returns a copy of f with every key of other applied on top.
func (f Fields) Merge(other Fields) Fields {
	n := f.clone()
	for k, v := range other {
		n[k] = v
	}
	return n
}

// Clean returns a copy of f with the given keys removed.
func (f Fields) Clean(keys ...string) Fields {
	n := f.clone()
	for _, k := range keys {
		delete(n, k)
	}
	return n
}

func (f Fields) logrus() logrus.Fields {
	n := make(logrus.Fields, len(f))
	for k, v := range f {
		n[k] = v
	}
	return n
}

// Field name vocabulary shared across channel, pool and tlscache logging.
const (
	FieldChannelID     = "channel_id"
	FieldCorrelationID = "correlation_id"
	FieldPoolSize      = "pool_size"
	FieldEndpoint      = "endpoint"
	FieldRequestType   = "request_type"
	FieldCacheKey      = "cache_key"
)
