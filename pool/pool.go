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

package pool

import (
	"container/heap"
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/mapepire-ibmi/gateway-core-go/channel"
	"github.com/mapepire-ibmi/gateway-core-go/gwerr"
	"github.com/mapepire-ibmi/gateway-core-go/gwlog"
)

type cacheEntry struct {
	count int
	at    time.Time
}

// Pool maintains a fixed-bounded population of Channels and dispatches them
// to concurrent callers, least-loaded first once the ready queue is
// exhausted (spec.md §4.H).
type Pool struct {
	opts Options
	log  gwlog.Logger

	mu         sync.Mutex
	creationMu sync.Mutex

	byID  map[string]*channel.Channel
	ready *list.List // element value: string (channel id)
	busy  busyHeap

	metricsCache map[string]cacheEntry

	counters counters
	metrics  *metricsVec

	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// New builds a Pool and opens its starting population (concurrently if
// PreWarm is set, serially otherwise; individual open failures are
// tolerated and aggregated, not fatal to pool construction unless every
// attempt fails).
func New(opts Options) (*Pool, error) {
	if err := opts.Validate(); err != nil {
		return nil, gwerr.InterfaceError("pool: invalid options", err)
	}

	p := &Pool{
		opts:         opts,
		log:          opts.logger(),
		byID:         make(map[string]*channel.Channel),
		ready:        list.New(),
		metricsCache: make(map[string]cacheEntry),
		metrics:      newMetricsVec("gateway_core", opts.metricsName()),
	}

	if err := p.init(); err != nil {
		return nil, err
	}

	if opts.HealthCheckInterval > 0 {
		p.stopCleanup = make(chan struct{})
		p.cleanupDone = make(chan struct{})
		go p.cleanupLoop(opts.HealthCheckInterval)
	}

	return p, nil
}

func (p *Pool) init() error {
	var merr *multierror.Error
	var mu sync.Mutex

	if p.opts.PreWarm {
		var wg sync.WaitGroup
		for i := 0; i < p.opts.StartingSize; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := p.openChannel(context.Background()); err != nil {
					mu.Lock()
					merr = multierror.Append(merr, err)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
	} else {
		for i := 0; i < p.opts.StartingSize; i++ {
			if _, err := p.openChannel(context.Background()); err != nil {
				merr = multierror.Append(merr, err)
			}
		}
	}

	p.mu.Lock()
	opened := len(p.byID)
	p.mu.Unlock()

	if opened == 0 && merr != nil {
		return gwerr.InterfaceError("pool: failed to open any starting channel", merr.ErrorOrNil())
	}
	return nil
}

// openChannel opens a new Channel under the creation-serializing mutex and
// registers it as ready. It counts against pool capacity.
func (p *Pool) openChannel(ctx context.Context) (*channel.Channel, error) {
	p.creationMu.Lock()
	defer p.creationMu.Unlock()

	p.mu.Lock()
	if len(p.byID) >= p.opts.MaxSize {
		p.mu.Unlock()
		return nil, gwerr.InterfaceError("pool: no capacity")
	}
	p.mu.Unlock()

	ch, err := channel.Open(ctx, p.opts.Endpoint, p.opts.ChannelOpts, p.opts.TLSManager)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.byID[ch.ID()] = ch
	p.ready.PushBack(ch.ID())
	p.mu.Unlock()

	p.counters.jobsCreated.Add(1)
	p.metrics.jobsCreated.Inc()
	p.metrics.activeChannels.Inc()
	p.log.Debug("channel opened", gwlog.Fields{gwlog.FieldChannelID: ch.ID(), gwlog.FieldPoolSize: len(p.byID)})

	return ch, nil
}

// Get returns a Channel for immediate use, preferring the ready queue
// (O(1)), falling back to the least-loaded busy channel or a freshly opened
// one when the least-loaded channel is saturated and the pool has space
// (spec.md §4.H).
func (p *Pool) Get(ctx context.Context) (*channel.Channel, error) {
	return p.get(ctx, false)
}

// WaitFor behaves like Get, except when forceNew is true and the pool has
// spare capacity: it always opens and returns a fresh Channel.
func (p *Pool) WaitFor(ctx context.Context, forceNew bool) (*channel.Channel, error) {
	return p.get(ctx, forceNew)
}

func (p *Pool) get(ctx context.Context, forceNew bool) (*channel.Channel, error) {
	if forceNew {
		p.mu.Lock()
		hasSpace := len(p.byID) < p.opts.MaxSize
		p.mu.Unlock()
		if hasSpace {
			return p.openChannel(ctx)
		}
	}

	p.mu.Lock()
	if front := p.ready.Front(); front != nil {
		id := p.ready.Remove(front).(string)
		ch, ok := p.byID[id]
		if ok {
			heap.Push(&p.busy, busyEntry{id: id, inFlight: ch.RunningCount()})
		}
		p.mu.Unlock()
		if ok {
			p.counters.readyQueueHits.Add(1)
			p.metrics.readyQueueHits.Inc()
			return ch, nil
		}
		// stale entry: the channel was already removed by cleanup; retry.
		return p.get(ctx, forceNew)
	}
	p.mu.Unlock()

	p.refreshBusyHeap()

	p.mu.Lock()
	if len(p.busy) > 0 {
		least := p.busy[0]
		hasSpace := len(p.byID) < p.opts.MaxSize
		p.mu.Unlock()

		if least.inFlight > BusyLoadThreshold && hasSpace {
			return p.openChannel(ctx)
		}

		p.mu.Lock()
		ch, ok := p.byID[least.id]
		p.mu.Unlock()
		if ok {
			p.counters.busySelections.Add(1)
			p.metrics.busySelections.Inc()
			return ch, nil
		}
		return p.get(ctx, forceNew)
	}
	hasSpace := len(p.byID) < p.opts.MaxSize
	p.mu.Unlock()

	if hasSpace {
		return p.openChannel(ctx)
	}
	return nil, gwerr.InterfaceError("pool: no capacity")
}

// Pop detaches a Channel from the pool's tracking structures for exclusive
// caller ownership; if none is ready it opens an untracked one-shot Channel
// that does not count against pool capacity.
func (p *Pool) Pop(ctx context.Context) (*channel.Channel, error) {
	p.mu.Lock()
	if front := p.ready.Front(); front != nil {
		id := p.ready.Remove(front).(string)
		ch, ok := p.byID[id]
		delete(p.byID, id)
		delete(p.metricsCache, id)
		p.mu.Unlock()
		if ok {
			p.metrics.activeChannels.Dec()
			return ch, nil
		}
		return p.Pop(ctx)
	}
	p.mu.Unlock()

	return channel.Open(ctx, p.opts.Endpoint, p.opts.ChannelOpts, p.opts.TLSManager)
}

// Release returns a Channel previously obtained from Get/WaitFor to the
// pool's tracking structures: back to ready if it has gone idle, or
// reinserted into the busy heap with its current load otherwise.
func (p *Pool) Release(ch *channel.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, tracked := p.byID[ch.ID()]; !tracked {
		return
	}

	p.removeFromBusyLocked(ch.ID())

	if ch.Status() == channel.Ended {
		delete(p.byID, ch.ID())
		delete(p.metricsCache, ch.ID())
		p.counters.jobsDestroyed.Add(1)
		p.metrics.jobsDestroyed.Inc()
		p.metrics.activeChannels.Dec()
		return
	}

	if ch.RunningCount() == 0 {
		p.ready.PushBack(ch.ID())
	} else {
		heap.Push(&p.busy, busyEntry{id: ch.ID(), inFlight: ch.RunningCount()})
	}
}

func (p *Pool) removeFromBusyLocked(id string) {
	for i, e := range p.busy {
		if e.id == id {
			heap.Remove(&p.busy, i)
			return
		}
	}
}

// refreshBusyHeap rebuilds the busy heap from current running counts
// (cached for ~1s) and moves any now-idle channels back to ready.
func (p *Pool) refreshBusyHeap() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	rebuilt := make(busyHeap, 0, len(p.busy))

	for _, e := range p.busy {
		ch, ok := p.byID[e.id]
		if !ok {
			continue
		}

		count := e.inFlight
		if cached, ok := p.metricsCache[e.id]; ok && now.Sub(cached.at) < metricsCacheTTL {
			count = cached.count
			p.counters.cacheHits.Add(1)
			p.metrics.cacheHits.Inc()
		} else {
			count = ch.RunningCount()
			p.metricsCache[e.id] = cacheEntry{count: count, at: now}
			p.counters.cacheMisses.Add(1)
			p.metrics.cacheMisses.Inc()
		}

		if count == 0 {
			p.ready.PushBack(e.id)
			continue
		}
		rebuilt = append(rebuilt, busyEntry{id: e.id, inFlight: count})
	}

	heap.Init(&rebuilt)
	p.busy = rebuilt
}

// cleanupLoop periodically removes Ended/NotStarted channels and refreshes
// stale metric entries, until Shutdown stops it.
func (p *Pool) cleanupLoop(interval time.Duration) {
	defer close(p.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sweep()
		case <-p.stopCleanup:
			return
		}
	}
}

func (p *Pool) sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, ch := range p.byID {
		s := ch.Status()
		if s != channel.Ended && s != channel.NotStarted {
			continue
		}
		delete(p.byID, id)
		delete(p.metricsCache, id)
		p.removeFromBusyLocked(id)
		p.removeFromReadyLocked(id)
		p.counters.jobsDestroyed.Add(1)
		p.metrics.jobsDestroyed.Inc()
		p.metrics.activeChannels.Dec()
		p.log.Debug("channel retired", gwlog.Fields{gwlog.FieldChannelID: id})
	}

	now := time.Now()
	for id, e := range p.metricsCache {
		if ch, ok := p.byID[id]; ok && now.Sub(e.at) >= metricsCacheTTL {
			p.metricsCache[id] = cacheEntry{count: ch.RunningCount(), at: now}
		}
	}
}

func (p *Pool) removeFromReadyLocked(id string) {
	for e := p.ready.Front(); e != nil; e = e.Next() {
		if e.Value.(string) == id {
			p.ready.Remove(e)
			return
		}
	}
}

// Stats returns the pool's lifetime counters.
func (p *Pool) Stats() Stats {
	return p.counters.snapshot()
}

// Size returns the number of Channels currently tracked by the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byID)
}

// Shutdown stops the cleanup task (if any), closes every tracked Channel
// and clears all structures. Individual close failures are aggregated, not
// fatal to the shutdown itself.
func (p *Pool) Shutdown() error {
	if p.stopCleanup != nil {
		close(p.stopCleanup)
		<-p.cleanupDone
	}

	p.mu.Lock()
	channels := make([]*channel.Channel, 0, len(p.byID))
	for _, ch := range p.byID {
		channels = append(channels, ch)
	}
	p.byID = make(map[string]*channel.Channel)
	p.ready = list.New()
	p.busy = nil
	p.metricsCache = make(map[string]cacheEntry)
	p.mu.Unlock()

	var merr *multierror.Error
	for _, ch := range channels {
		if err := ch.Close(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("channel %s: %w", ch.ID(), err))
		}
	}
	return merr.ErrorOrNil()
}
