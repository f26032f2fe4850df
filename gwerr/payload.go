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

package gwerr

import (
	"errors"
	"strings"
)

// Payload is the raw failure record carried in a server response (or
// synthesized for a transport failure), before it is run through Classify.
type Payload struct {
	// Message is the human-readable error text from the server, or a
	// transport-level message when Transport is set.
	Message string
	// SQLState is the five-character SQL state code, when the server
	// supplied one.
	SQLState string
	// SQLCode is the server's numeric SQLCODE, when supplied.
	SQLCode int
	// Transport marks a socket/TLS/handshake failure, which always maps to
	// OperationalError regardless of Message content.
	Transport bool
}

func (p Payload) asParent() error {
	if p.Message == "" {
		return nil
	}
	return errors.New(p.Message)
}

// programmingPatterns mirrors spec.md's "not found" / *FILE not found.
// rule; matching is case-insensitive substring matching like the Python
// source's PROGRAMMING_ERRORS tuple.
var programmingPatterns = []string{
	"not found",
	"*file not found.",
}

func matchesAny(msg string, patterns []string) bool {
	for _, p := range patterns {
		if containsFold(msg, p) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// isConstraintClass reports whether state is an SQL state in the 23xxx
// (integrity constraint violation) class.
func isConstraintClass(state string) bool {
	return len(state) >= 2 && strings.HasPrefix(state, "23")
}
