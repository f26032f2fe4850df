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

package query

import (
	"fmt"
	"sort"
	"strings"
)

// Parameters is the tagged variant a caller may supply for a prepared
// execution: nil, an ordered slice, a string-keyed map, or a bare scalar
// (spec.md §4.E, §9's "dynamic polymorphism of parameter inputs").
type Parameters = interface{}

// Normalize turns a caller's Parameters value into the flat array the
// gateway expects. A nil input normalizes to an empty, non-nil slice (sent
// only when the caller has opted into prepared execution).
func Normalize(p Parameters) []interface{} {
	switch v := p.(type) {
	case nil:
		return []interface{}{}
	case []interface{}:
		return v
	case map[string]interface{}:
		return normalizeMap(v)
	default:
		if seq, ok := asSlice(p); ok {
			return seq
		}
		return []interface{}{p}
	}
}

func normalizeMap(m map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// asSlice recognizes any []T built from a concrete scalar element type
// (e.g. []string, []int) as an ordered sequence, without requiring callers
// to pre-box every element into []interface{}.
func asSlice(p Parameters) ([]interface{}, bool) {
	switch v := p.(type) {
	case []string:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	case []int:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	case []int64:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	case []bool:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}

// NormalizeBatch applies Normalize to each element of a sequence-of-sets,
// for multi-row prepared execution. A nil or empty batch yields an empty
// list; issuing (or not) a round-trip for that case is caller policy.
func NormalizeBatch(batch []Parameters) [][]interface{} {
	out := make([][]interface{}, 0, len(batch))
	for _, p := range batch {
		out = append(out, Normalize(p))
	}
	return out
}

// ValidateArity counts bare `?` occurrences in sql (a deliberately simplistic
// scan that does not inspect string literals, per spec.md §4.D/§9) and
// compares it against len(params). A mismatch is reported with the exact
// wording scenario 5 expects.
func ValidateArity(sql string, params []interface{}) error {
	want := strings.Count(sql, "?")
	got := len(params)
	if want != got {
		return fmt.Errorf("number of parameter values (%d) does not match the number of parameters (%d)", got, want)
	}
	return nil
}
