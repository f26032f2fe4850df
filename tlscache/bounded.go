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

package tlscache

import (
	"container/list"
	"context"
	"sync"
	"time"

	libcch "github.com/mapepire-ibmi/gateway-core-go/cache"
)

// Stats exposes the hit/miss/eviction counters for one bounded cache, used
// by both the context cache and the certificate cache.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// bounded adds capacity-bound LRU eviction on top of cache.Cache's TTL-only
// expiry, mirroring ssl_cache.py's GenericCache (OrderedDict eviction plus
// per-item expiry). cache.Cache has no built-in max-size, so this package
// tracks recency itself with a doubly linked list of keys.
type bounded[V any] struct {
	mu  sync.Mutex
	ctx context.Context
	cap int
	ttl time.Duration

	store libcch.Cache[string, V]
	order *list.List
	elems map[string]*list.Element

	hits, misses, evictions uint64
}

func newBounded[V any](ctx context.Context, capacity int, ttl time.Duration) *bounded[V] {
	return &bounded[V]{
		ctx:   ctx,
		cap:   capacity,
		ttl:   ttl,
		store: libcch.New[string, V](ctx, ttl),
		order: list.New(),
		elems: make(map[string]*list.Element),
	}
}

func (b *bounded[V]) get(key string) (V, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, _, ok := b.store.Load(key)
	if !ok {
		b.misses++
		var zero V
		return zero, false
	}

	b.hits++
	if e, found := b.elems[key]; found {
		b.order.MoveToFront(e)
	}
	return v, true
}

func (b *bounded[V]) put(key string, val V) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e, found := b.elems[key]; found {
		b.order.MoveToFront(e)
	} else {
		b.elems[key] = b.order.PushFront(key)
	}
	b.store.Store(key, val)

	for b.cap > 0 && b.order.Len() > b.cap {
		b.evictOldest()
	}
}

// evictOldest removes the least recently used entry. Caller must hold mu.
func (b *bounded[V]) evictOldest() {
	back := b.order.Back()
	if back == nil {
		return
	}
	key := back.Value.(string)
	b.order.Remove(back)
	delete(b.elems, key)
	b.store.Delete(key)
	b.evictions++
}

func (b *bounded[V]) stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Stats{
		Hits:      b.hits,
		Misses:    b.misses,
		Evictions: b.evictions,
		Size:      b.order.Len(),
	}
}

func (b *bounded[V]) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	_ = b.store.Close()
	b.store = libcch.New[string, V](b.ctx, b.ttl)
	b.order.Init()
	b.elems = make(map[string]*list.Element)
}
