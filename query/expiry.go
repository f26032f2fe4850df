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

import "regexp"

// expiryPatterns are the server's "your cursor is gone" phrasings,
// case-insensitive, any one of which reclassifies a failed fetch_more
// response as a graceful end-of-stream rather than a raised error
// (spec.md §4.G).
var expiryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)invalid correlation id`),
	regexp.MustCompile(`(?i)correlation id.*not found`),
	regexp.MustCompile(`(?i)correlation id.*invalid`),
	regexp.MustCompile(`(?i)bad request`),
	regexp.MustCompile(`(?i)no transaction is active`),
	regexp.MustCompile(`(?i)cursor.*closed`),
	regexp.MustCompile(`(?i)query.*expired`),
}

// isCorrelationExpiry reports whether msg matches any of the server's
// cursor-expired phrasings.
func isCorrelationExpiry(msg string) bool {
	for _, p := range expiryPatterns {
		if p.MatchString(msg) {
			return true
		}
	}
	return false
}
