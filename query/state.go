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

// Package query implements the per-statement cursor lifecycle: prepare,
// run, incremental fetch and close, driven over a Channel (spec.md §4.D).
package query

// State is one of the four positions a Query occupies over its lifetime.
// Done and Error are terminal: Run and FetchMore are refused in both. In
// Error, PrepareSQLExecute is still accepted, and Close sends sqlclose if a
// correlation id was issued.
type State uint8

const (
	NotYetRun State = iota
	MoreDataAvailable
	Done
	Error
)

func (s State) String() string {
	switch s {
	case NotYetRun:
		return "not_yet_run"
	case MoreDataAvailable:
		return "more_data_available"
	case Done:
		return "done"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

func (s State) terminal() bool {
	return s == Done || s == Error
}
