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
	"context"

	"github.com/mapepire-ibmi/gateway-core-go/wire"
)

// FetchChunkSize is the conservative page size FetchAll uses for its
// internal fetch_more loop (spec.md §4.F).
const FetchChunkSize = 100

// FetchOne returns the first row of result, or nil if result carries none.
// Terse-mode results carry no map rows, so it returns nil for those; use
// result.TerseData[0] directly (paired with result.Metadata.Columns) when
// Terse is set.
func FetchOne(result wire.QueryResult) map[string]interface{} {
	if len(result.Data) == 0 {
		return nil
	}
	return result.Data[0]
}

// FetchMany trims result to at most size rows, in whichever of
// Data/TerseData the result carries. is_done is true only when the server
// already reported exhaustion AND no rows were withheld by this trim.
func FetchMany(result wire.QueryResult, size int) wire.QueryResult {
	trimmed := result

	if result.Terse {
		if size < 0 || len(result.TerseData) <= size {
			return result
		}
		trimmed.TerseData = result.TerseData[:size]
		trimmed.IsDone = false
		return trimmed
	}

	if size < 0 || len(result.Data) <= size {
		return result
	}
	trimmed.Data = result.Data[:size]
	trimmed.IsDone = false
	return trimmed
}

// FetchAll drives q with repeated FetchMore calls until it reaches Done,
// concatenating every page's rows. A mid-iteration correlation-id expiry
// (surfaced by FetchMore as a synthetic is_done result, §4.G) ends the loop
// normally; any other error aborts it. It concatenates whichever of
// Data/TerseData the first page carries; every subsequent page is assumed
// to carry the same shape, since terse is fixed for the lifetime of a
// statement.
func FetchAll(ctx context.Context, q *Query, first wire.QueryResult) (wire.QueryResult, error) {
	last := first

	if first.Terse {
		allTerse := append([][]interface{}{}, first.TerseData...)
		for !last.IsDone {
			page, err := q.FetchMore(ctx, FetchChunkSize)
			if err != nil {
				return wire.QueryResult{}, err
			}
			allTerse = append(allTerse, page.TerseData...)
			last = page
		}
		last.TerseData = allTerse
		return last, nil
	}

	all := append([]map[string]interface{}{}, first.Data...)
	for !last.IsDone {
		page, err := q.FetchMore(ctx, FetchChunkSize)
		if err != nil {
			return wire.QueryResult{}, err
		}
		all = append(all, page.Data...)
		last = page
	}

	last.Data = all
	return last, nil
}

// ExtractColumnNames delegates to the wire projection's rule: prefer
// metadata.columns, else the keys of the first row, else nil.
func ExtractColumnNames(result wire.QueryResult) []string {
	return wire.ExtractColumnNames(result)
}
