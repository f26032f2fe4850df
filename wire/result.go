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

package wire

import (
	"bytes"
	"encoding/json"
)

// ColumnDescriptor describes one projected column, present when the server
// supplies metadata (spec.md §3).
type ColumnDescriptor struct {
	Name        string `json:"name" mapstructure:"name"`
	Type        string `json:"type" mapstructure:"type"`
	DisplaySize  int    `json:"display_size,omitempty" mapstructure:"length"`
	InternalSize int    `json:"internal_size,omitempty" mapstructure:"length"`
	Precision   int    `json:"precision,omitempty" mapstructure:"precision"`
	Scale       int    `json:"scale,omitempty" mapstructure:"scale"`
	Nullable    bool   `json:"nullable" mapstructure:"nullable"`
}

// Metadata carries column descriptions and an optional update count,
// present on successful responses.
type Metadata struct {
	Columns     []ColumnDescriptor `json:"columns,omitempty" mapstructure:"columns"`
	UpdateCount *int               `json:"update_count,omitempty" mapstructure:"update_count"`
}

// Response is the raw decoded frame from the gateway, before projection
// into a QueryResult. Every response echoes ID and Success; on failure it
// additionally carries Error/SQLState/SQLCode.
//
// The gateway shapes the "data" field two ways depending on whether the
// originating request set terse=true (spec.md §4.F): named mode sends an
// array of column-name-keyed objects, decoded into Data; terse mode sends
// an array of positional arrays, decoded into TerseData with Terse set to
// true. UnmarshalJSON inspects the raw "data" payload to tell them apart,
// since the two modes cannot share one static Go field type.
type Response struct {
	ID          string                   `json:"id"`
	Success     bool                     `json:"success"`
	Data        []map[string]interface{} `json:"-"`
	TerseData   [][]interface{}          `json:"-"`
	Terse       bool                     `json:"-"`
	IsDone      bool                     `json:"is_done,omitempty"`
	HasResults  bool                     `json:"has_results,omitempty"`
	Metadata    *Metadata                `json:"metadata,omitempty"`
	UpdateCount *int                     `json:"update_count,omitempty"`
	Error       string                   `json:"error,omitempty"`
	SQLState    string                   `json:"sql_state,omitempty"`
	SQLCode     int                      `json:"sql_rc,omitempty"`

	// Job carries the server-assigned channel identifier, present only on
	// the connect handshake response.
	Job string `json:"job,omitempty"`
}

// UnmarshalJSON decodes a Response, routing its "data" field to Data or
// TerseData depending on whether each row arrived as a JSON object (named
// mode) or a JSON array (terse mode).
func (r *Response) UnmarshalJSON(b []byte) error {
	type alias Response
	aux := struct {
		Data json.RawMessage `json:"data,omitempty"`
		*alias
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	return r.decodeData(aux.Data)
}

func (r *Response) decodeData(raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}

	inner := bytes.TrimSpace(trimmed[1:])
	if len(inner) == 0 || inner[0] == ']' {
		r.Data = []map[string]interface{}{}
		return nil
	}

	if inner[0] == '[' {
		r.Terse = true
		return json.Unmarshal(trimmed, &r.TerseData)
	}

	return json.Unmarshal(trimmed, &r.Data)
}

// QueryResult is the public, dictionary-like projection described in
// spec.md §3. HasResults is derived, never decoded from the wire. Terse
// carries Response.Terse through so callers know which of Data/TerseData
// holds the rows (DecodeRows reads Data, DecodeTerseRows reads TerseData).
type QueryResult struct {
	Success   bool                     `json:"success"`
	Data      []map[string]interface{} `json:"data,omitempty"`
	TerseData [][]interface{}          `json:"terse_data,omitempty"`
	Terse     bool                     `json:"terse"`
	IsDone    bool                     `json:"is_done"`
	ID        string                   `json:"id"`
	Metadata  *Metadata                `json:"metadata,omitempty"`
	Error     string                   `json:"error,omitempty"`
	SQLState  string                   `json:"sql_state,omitempty"`
	SQLCode   int                      `json:"sql_rc,omitempty"`
}

// HasResults reports whether this result carries at least one row, in
// whichever of the two row shapes it was decoded as.
func (r QueryResult) HasResults() bool {
	return len(r.Data) > 0 || len(r.TerseData) > 0
}

// Project turns a raw decoded Response into the public QueryResult shape.
func Project(resp Response) QueryResult {
	return QueryResult{
		Success:   resp.Success,
		Data:      resp.Data,
		TerseData: resp.TerseData,
		Terse:     resp.Terse,
		IsDone:    resp.IsDone,
		ID:        resp.ID,
		Metadata:  resp.Metadata,
		Error:     resp.Error,
		SQLState:  resp.SQLState,
		SQLCode:   resp.SQLCode,
	}
}

// ExtractColumnNames prefers metadata.columns (the only source for terse
// rows, which carry no column names of their own); otherwise the keys of
// the first named-mode row when rows are present; otherwise nil.
func ExtractColumnNames(r QueryResult) []string {
	if r.Metadata != nil && len(r.Metadata.Columns) > 0 {
		names := make([]string, 0, len(r.Metadata.Columns))
		for _, c := range r.Metadata.Columns {
			names = append(names, c.Name)
		}
		return names
	}

	if len(r.Data) > 0 {
		names := make([]string, 0, len(r.Data[0]))
		for k := range r.Data[0] {
			names = append(names, k)
		}
		return names
	}

	return nil
}
