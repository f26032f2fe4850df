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

// Package wire defines the JSON frame shapes exchanged with the gateway:
// one request builder per request kind (connect, sql, prepare_sql_execute,
// cl, sqlmore, sqlclose) and the response/QueryResult projection they
// produce. Field names and shapes are reproduced verbatim from
// python_wsdb/client/sql_job.py and python_wsdb/client/query.py.
package wire

import "encoding/json"

// RequestConnect is the initial handshake frame. Technique is always "tcp"
// for this transport; Application identifies the client to the server.
type RequestConnect struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Technique   string `json:"technique"`
	Application string `json:"application"`
	Props       string `json:"props"`
}

// NewConnect builds the connect handshake frame.
func NewConnect(id, application, props string) RequestConnect {
	return RequestConnect{
		ID:          id,
		Type:        "connect",
		Technique:   "tcp",
		Application: application,
		Props:       props,
	}
}

// RequestSQL covers both ad-hoc ("sql") and prepare+execute
// ("prepare_sql_execute") requests; Parameters is omitted for ad-hoc
// execution and present (possibly empty) for prepared execution.
type RequestSQL struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	SQL        string        `json:"sql"`
	Terse      bool          `json:"terse"`
	Rows       int           `json:"rows"`
	Parameters []interface{} `json:"parameters,omitempty"`
}

// NewSQL builds an ad-hoc "sql" request (parameters is nil: not a prepared
// execution).
func NewSQL(id, sql string, rows int, terse bool) RequestSQL {
	return RequestSQL{ID: id, Type: "sql", SQL: sql, Terse: terse, Rows: rows}
}

// NewPrepareSQLExecute builds a "prepare_sql_execute" request; params may be
// an empty, non-nil slice (prepared with no bind values).
func NewPrepareSQLExecute(id, sql string, rows int, terse bool, params []interface{}) RequestSQL {
	if params == nil {
		params = []interface{}{}
	}
	return RequestSQL{ID: id, Type: "prepare_sql_execute", SQL: sql, Terse: terse, Rows: rows, Parameters: params}
}

// MarshalJSON omits "parameters" only when Parameters is nil, so an empty
// non-nil slice is sent as [].
func (r RequestSQL) MarshalJSON() ([]byte, error) {
	type alias RequestSQL
	if r.Parameters == nil {
		return json.Marshal(alias(r))
	}
	return json.Marshal(struct {
		alias
		Parameters []interface{} `json:"parameters"`
	}{alias(r), r.Parameters})
}

// RequestCL is a non-SQL control command; its failures are reported through
// the result payload's Success/Error fields, never raised as a protocol
// error (spec.md §4.D).
type RequestCL struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Cmd   string `json:"cmd"`
	Terse bool   `json:"terse"`
}

// NewCL builds a "cl" control-command request.
func NewCL(id, cmd string, terse bool) RequestCL {
	return RequestCL{ID: id, Type: "cl", Cmd: cmd, Terse: terse}
}

// RequestFetchMore continues a cursor previously opened by sql or
// prepare_sql_execute, using the server's correlation id (ContID).
type RequestFetchMore struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	ContID string `json:"cont_id"`
	SQL    string `json:"sql"`
	Rows   int    `json:"rows"`
}

// NewFetchMore builds a "sqlmore" request.
func NewFetchMore(id, contID, sql string, rows int) RequestFetchMore {
	return RequestFetchMore{ID: id, Type: "sqlmore", ContID: contID, SQL: sql, Rows: rows}
}

// RequestClose retires a server-side cursor.
type RequestClose struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	ContID string `json:"cont_id"`
}

// NewClose builds a "sqlclose" request.
func NewClose(id, contID string) RequestClose {
	return RequestClose{ID: id, Type: "sqlclose", ContID: contID}
}
