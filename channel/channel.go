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

package channel

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/semaphore"

	"github.com/mapepire-ibmi/gateway-core-go/gwerr"
	"github.com/mapepire-ibmi/gateway-core-go/gwlog"
	"github.com/mapepire-ibmi/gateway-core-go/tlscache"
	"github.com/mapepire-ibmi/gateway-core-go/wire"
)

// Channel owns one secure full-duplex WebSocket connection to the gateway
// and multiplexes an arbitrary number of logically independent requests
// over it, demultiplexing responses by correlation id (spec.md §4.B).
type Channel struct {
	id string // local identity, used for pool ordering and log correlation

	conn   *websocket.Conn
	writeMu sync.Mutex

	seq atomic.Uint64

	waitersMu sync.Mutex
	waiters   map[string]chan wire.Response

	status atomic.Int32

	serverID string // job id assigned by the connect handshake response

	sem *semaphore.Weighted

	log gwlog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// ID returns this Channel's local identity, used by Pool for its by-id
// index and heap ordering.
func (c *Channel) ID() string {
	return c.id
}

// Open establishes the secure connection to ep, completes the connect
// handshake and starts the receive loop. On any failure the underlying
// socket is torn down and the error is returned; no Channel is produced.
func Open(ctx context.Context, ep tlscache.Endpoint, opts Options, tlsMgr *tlscache.Manager) (*Channel, error) {
	if err := opts.Validate(); err != nil {
		return nil, gwerr.InterfaceError("channel: invalid options", err)
	}
	if err := ep.Validate(); err != nil {
		return nil, gwerr.InterfaceError("channel: invalid endpoint", err)
	}

	if tlsMgr == nil {
		tlsMgr = tlscache.Default()
	}

	tlsConfig, err := tlsMgr.GetContext(ep)
	if err != nil {
		return nil, gwerr.Classify(gwerr.Payload{Message: err.Error(), Transport: true})
	}

	dialer := websocket.Dialer{
		TLSClientConfig:  tlsConfig,
		HandshakeTimeout: opts.handshakeTimeout(),
	}

	header := http.Header{}
	header.Set("Authorization", "Basic "+basicAuth(ep))

	u := url.URL{Scheme: "wss", Host: ep.Address(), Path: "/db/"}

	conn, _, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, gwerr.Classify(gwerr.Payload{Message: fmt.Sprintf("channel: dial %s: %s", u.String(), err), Transport: true})
	}

	c := &Channel{
		id:      uuid.NewString(),
		conn:    conn,
		waiters: make(map[string]chan wire.Response),
		log:     opts.logger(),
		done:    make(chan struct{}),
	}
	if opts.MaxConcurrency > 0 {
		c.sem = semaphore.NewWeighted(opts.MaxConcurrency)
	}
	c.status.Store(int32(NotStarted))

	if err := c.handshake(ctx, opts); err != nil {
		_ = conn.Close()
		return nil, err
	}

	c.status.Store(int32(Ready))
	go c.recvLoop()

	return c, nil
}

func (c *Channel) handshake(ctx context.Context, opts Options) error {
	id := c.nextID("sqljob")
	req := wire.NewConnect(id, opts.Application, opts.propsString())

	deadline := time.Now().Add(opts.handshakeTimeout())
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(req); err != nil {
		return gwerr.Classify(gwerr.Payload{Message: "channel: handshake write: " + err.Error(), Transport: true})
	}

	_ = c.conn.SetReadDeadline(deadline)
	var resp wire.Response
	if err := c.conn.ReadJSON(&resp); err != nil {
		return gwerr.Classify(gwerr.Payload{Message: "channel: handshake read: " + err.Error(), Transport: true})
	}
	_ = c.conn.SetReadDeadline(time.Time{})
	_ = c.conn.SetWriteDeadline(time.Time{})

	if !resp.Success {
		return gwerr.Classify(gwerr.Payload{Message: resp.Error, SQLState: resp.SQLState, SQLCode: resp.SQLCode})
	}

	c.serverID = resp.Job
	return nil
}

func basicAuth(ep tlscache.Endpoint) string {
	secret := ep.Password
	if ep.Credential != nil {
		if tok, err := ep.Credential(); err == nil {
			secret = tok
		}
	}
	return base64.StdEncoding.EncodeToString([]byte(ep.User + ":" + secret))
}

// nextID returns a fresh Channel-local correlation id: a kind-prefixed,
// monotonically increasing local counter (spec.md §4.B, §3).
func (c *Channel) nextID(kind string) string {
	n := c.seq.Add(1)
	return fmt.Sprintf("%s-%d", kind, n)
}

// NextID exposes nextID for callers (Query) that must build a wire request
// before calling SendRequest.
func (c *Channel) NextID(kind string) string {
	return c.nextID(kind)
}

// SendRequest assigns no id itself: the caller supplies the id used to tag
// req (via NextID), matching it to the Channel's receive loop. send_request
// may be invoked concurrently; writes are serialized by writeMu.
func (c *Channel) SendRequest(ctx context.Context, id string, req interface{}) (wire.Response, error) {
	if Status(c.status.Load()) == Ended {
		return wire.Response{}, gwerr.ConnectionClosed()
	}

	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return wire.Response{}, gwerr.InterfaceError("channel: acquire concurrency slot", err)
		}
		defer c.sem.Release(1)
	}

	wait := make(chan wire.Response, 1)
	c.waitersMu.Lock()
	c.waiters[id] = wait
	c.waitersMu.Unlock()

	c.log.Debug("send_request", gwlog.Fields{gwlog.FieldChannelID: c.id, gwlog.FieldCorrelationID: id})

	if err := c.writeFrame(req); err != nil {
		c.failWaiter(id)
		return wire.Response{}, err
	}

	select {
	case resp, ok := <-wait:
		if !ok {
			return wire.Response{}, gwerr.Classify(gwerr.Payload{Message: "channel: closed while awaiting response", Transport: true})
		}
		return resp, nil
	case <-ctx.Done():
		c.failWaiter(id)
		return wire.Response{}, gwerr.InterfaceError("channel: request cancelled", ctx.Err())
	case <-c.done:
		return wire.Response{}, gwerr.Classify(gwerr.Payload{Message: "channel: closed while awaiting response", Transport: true})
	}
}

func (c *Channel) writeFrame(req interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteJSON(req); err != nil {
		return gwerr.Classify(gwerr.Payload{Message: "channel: write: " + err.Error(), Transport: true})
	}
	return nil
}

func (c *Channel) failWaiter(id string) {
	c.waitersMu.Lock()
	delete(c.waiters, id)
	c.waitersMu.Unlock()
}

// Status returns Busy when at least one waiter is registered, Ready
// otherwise (spec.md §4.B). NotStarted/Ended are reported as recorded.
func (c *Channel) Status() Status {
	s := Status(c.status.Load())
	if s != Ready && s != Busy {
		return s
	}

	if c.RunningCount() > 0 {
		return Busy
	}
	return Ready
}

// RunningCount is the number of registered (outstanding) waiters.
func (c *Channel) RunningCount() int {
	c.waitersMu.Lock()
	defer c.waitersMu.Unlock()
	return len(c.waiters)
}

// ServerID is the job id the gateway assigned in the connect response.
func (c *Channel) ServerID() string {
	return c.serverID
}

// Close transitions the Channel to Ended, closes the socket and fails every
// outstanding waiter with an operational error. Idempotent: repeated calls
// after the first are a no-op (spec.md §8).
func (c *Channel) Close() error {
	c.status.Store(int32(Ended))
	return c.teardown()
}

func (c *Channel) drainWaiters() {
	c.waitersMu.Lock()
	defer c.waitersMu.Unlock()

	for id, w := range c.waiters {
		close(w)
		delete(c.waiters, id)
	}
}

// recvLoop reads one frame at a time off the socket for the lifetime of the
// Channel, resolving the matching waiter by echoed id. An unparseable frame
// or a closed socket both end the Channel: every outstanding waiter fails
// with an operational error and no further frames are read (spec.md §4.B).
func (c *Channel) recvLoop() {
	defer c.teardown()

	for {
		var resp wire.Response
		if err := c.conn.ReadJSON(&resp); err != nil {
			c.log.Debug("recv loop ending", gwlog.Fields{gwlog.FieldChannelID: c.id}.Add("reason", err.Error()))
			return
		}

		c.waitersMu.Lock()
		w, ok := c.waiters[resp.ID]
		if ok {
			delete(c.waiters, resp.ID)
		}
		c.waitersMu.Unlock()

		if !ok {
			c.log.Warn("dropping response for unknown correlation id", gwlog.Fields{
				gwlog.FieldChannelID:      c.id,
				gwlog.FieldCorrelationID: resp.ID,
			})
			continue
		}

		w <- resp
	}
}

// teardown marks the Channel Ended and fails every outstanding waiter; it is
// the terminal path both for a socket read failure and for an explicit
// Close. Idempotent via closeOnce.
func (c *Channel) teardown() error {
	var err error
	c.closeOnce.Do(func() {
		c.status.Store(int32(Ended))
		close(c.done)
		err = c.conn.Close()
		c.drainWaiters()
	})
	return err
}
