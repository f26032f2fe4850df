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
	"sync"

	"github.com/mapepire-ibmi/gateway-core-go/gwerr"
	"github.com/mapepire-ibmi/gateway-core-go/gwlog"
	"github.com/mapepire-ibmi/gateway-core-go/wire"
)

// DefaultRows is the rows-per-fetch hint applied when the caller leaves it
// unspecified (spec.md §4.D).
const DefaultRows = 100

// UseDefaultRows is the sentinel a caller passes to mean "unspecified": it
// is coerced to DefaultRows. Any other value, including zero or negative,
// is forwarded to the server verbatim (spec.md §4.D's rows-to-fetch rule).
const UseDefaultRows = -1

// Sender is the subset of Channel a Query needs: a fresh correlation id and
// a synchronous round trip. Channel satisfies this directly.
type Sender interface {
	NextID(kind string) string
	SendRequest(ctx context.Context, id string, req interface{}) (wire.Response, error)
}

// Options configures a Query's mode. CLCommand routes through the "cl"
// request kind, whose server-reported failures surface through the result
// payload rather than as a raised error or an Error state (spec.md §4.D).
type Options struct {
	Terse     bool
	CLCommand bool
	AutoClose bool
	Logger    gwlog.Logger
}

func (o Options) logger() gwlog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return gwlog.Discard()
}

// Query drives one logical statement's lifecycle over its Channel: prepare,
// run, incremental fetch, close (spec.md §4.D). A Query holds a
// non-owning reference to its Channel; it never tracks or closes the
// Channel itself (spec.md §9).
type Query struct {
	mu sync.Mutex

	ch   Sender
	opts Options
	sql  string

	state  State
	contID string

	log gwlog.Logger
}

// New creates a Query bound to ch, in state NotYetRun.
func New(ch Sender, sql string, opts Options) *Query {
	return &Query{
		ch:    ch,
		opts:  opts,
		sql:   sql,
		state: NotYetRun,
		log:   opts.logger(),
	}
}

// State returns the Query's current position in the lifecycle.
func (q *Query) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Run executes the statement for the first time: a "cl" command when in CL
// mode, otherwise a "sql" (params == nil) or "prepare_sql_execute" (params
// != nil) request. Allowed only in NotYetRun.
func (q *Query) Run(ctx context.Context, params Parameters, rows int) (wire.QueryResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.precheckRun(); err != nil {
		return wire.QueryResult{}, err
	}

	return q.runLocked(ctx, params, rows, false)
}

// PrepareSQLExecute issues an explicit prepare-and-execute with rows=0 to
// obtain column metadata and update count without fetching rows. Allowed
// whenever the Query has not already reached Done (spec.md §4.D).
func (q *Query) PrepareSQLExecute(ctx context.Context, params Parameters) (wire.QueryResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state == Done {
		return wire.QueryResult{}, gwerr.InterfaceError("statement has already been fully run")
	}

	return q.runLocked(ctx, params, 0, true)
}

func (q *Query) precheckRun() error {
	switch q.state {
	case Done:
		return gwerr.InterfaceError("statement has already been fully run")
	case MoreDataAvailable, Error:
		return gwerr.InterfaceError("statement has already been run")
	default:
		return nil
	}
}

func (q *Query) runLocked(ctx context.Context, params Parameters, rows int, forcePrepare bool) (wire.QueryResult, error) {
	id := q.ch.NextID("sqljob")

	var req interface{}
	switch {
	case q.opts.CLCommand:
		req = wire.NewCL(id, q.sql, q.opts.Terse)
	case params != nil || forcePrepare:
		flat := Normalize(params)
		if err := ValidateArity(q.sql, flat); err != nil {
			q.state = Error
			return wire.QueryResult{}, gwerr.InterfaceError(err.Error())
		}
		req = wire.NewPrepareSQLExecute(id, q.sql, resolveRows(rows), q.opts.Terse, flat)
	default:
		req = wire.NewSQL(id, q.sql, resolveRows(rows), q.opts.Terse)
	}

	resp, err := q.ch.SendRequest(ctx, id, req)
	if err != nil {
		q.state = Error
		return wire.QueryResult{}, err
	}

	return q.applyResponse(id, resp)
}

// FetchMore continues a cursor previously opened by Run/PrepareSQLExecute,
// using the id originally assigned to that step as cont_id. Allowed only in
// MoreDataAvailable; a failure is first checked against the
// correlation-expiry patterns before being treated as a hard error
// (spec.md §4.G).
func (q *Query) FetchMore(ctx context.Context, rows int) (wire.QueryResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch q.state {
	case NotYetRun:
		return wire.QueryResult{}, gwerr.InterfaceError("statement has not been run")
	case Done:
		return wire.QueryResult{}, gwerr.InterfaceError("statement has already been fully run")
	case Error:
		return wire.QueryResult{}, gwerr.InterfaceError("statement has already been run")
	}

	id := q.ch.NextID("sqljob")
	req := wire.NewFetchMore(id, q.contID, q.sql, resolveRows(rows))

	resp, err := q.ch.SendRequest(ctx, id, req)
	if err != nil {
		q.state = Error
		return wire.QueryResult{}, err
	}

	if !resp.Success && isCorrelationExpiry(resp.Error) {
		q.state = Done
		q.log.Debug("fetch_more cursor expired, treating as end-of-stream", gwlog.Fields{gwlog.FieldCorrelationID: q.contID})
		if q.opts.Terse {
			return wire.QueryResult{Success: true, TerseData: [][]interface{}{}, Terse: true, IsDone: true, ID: q.contID}, nil
		}
		return wire.QueryResult{Success: true, Data: []map[string]interface{}{}, IsDone: true, ID: q.contID}, nil
	}

	return q.applyResponse(id, resp)
}

// applyResponse updates state from a successful round trip (or, for CL
// commands, any round trip at all: CL failures never set Error) and
// projects the response.
func (q *Query) applyResponse(id string, resp wire.Response) (wire.QueryResult, error) {
	result := wire.Project(resp)

	if !resp.Success {
		if q.opts.CLCommand {
			q.state = Done
			return result, nil
		}
		q.state = Error
		return wire.QueryResult{}, gwerr.Classify(gwerr.Payload{Message: resp.Error, SQLState: resp.SQLState, SQLCode: resp.SQLCode})
	}

	if q.contID == "" {
		q.contID = id
	}

	if resp.IsDone {
		q.state = Done
	} else {
		q.state = MoreDataAvailable
	}

	return result, nil
}

// Close is a no-op once the Query is Done. In any other state, Error
// included, a sqlclose request is sent if a correlation id was ever issued;
// the Query always ends in Done, so repeated calls after the first are a
// no-op.
func (q *Query) Close(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state == Done {
		return nil
	}

	if q.contID != "" {
		id := q.ch.NextID("sqljob")
		req := wire.NewClose(id, q.contID)
		if _, err := q.ch.SendRequest(ctx, id, req); err != nil {
			q.state = Done
			return err
		}
	}

	q.state = Done
	return nil
}

func resolveRows(rows int) int {
	if rows == UseDefaultRows {
		return DefaultRows
	}
	return rows
}
