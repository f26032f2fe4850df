/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package cache is the TTL-expiring key/value store backing tlscache's
// verification-context and server-certificate caches. It is deliberately
// narrower than a general-purpose cache: tlscache is the only caller, and it
// only ever Loads, Stores, Deletes and Closes — so that is the entire
// surface exposed here. Capacity-bound LRU eviction on top of this TTL
// layer lives in tlscache, which knows which of the two caches it is
// bounding and why.
package cache

import (
	"context"
	"time"

	libatm "github.com/mapepire-ibmi/gateway-core-go/atomic"
	cchitm "github.com/mapepire-ibmi/gateway-core-go/cache/item"
)

// Cache is a thread-safe, generic key/value store with a single expiration
// duration shared by every entry. A zero duration means entries never
// expire on their own (tlscache still evicts them on capacity pressure).
type Cache[K comparable, V any] interface {
	// Load returns the value stored for key along with the time elapsed
	// since it was last stored (0 for entries that never expire). ok is
	// false if the key is absent or its item has expired; an expired item
	// is removed as a side effect of Load.
	Load(key K) (value V, remaining time.Duration, ok bool)

	// Store saves val for key, resetting its expiration timer.
	Store(key K, val V)

	// Delete removes the item stored for key, if any.
	Delete(key K)

	// Close cancels the cache's context and drops every stored item. A
	// closed Cache must not be used again.
	Close() error
}

type cc[K comparable, V any] struct {
	cancel context.CancelFunc
	items  libatm.MapTyped[K, cchitm.CacheItem[V]]
	exp    time.Duration
}

// New builds a Cache whose entries expire exp after being stored (0 for
// entries that only expire when evicted by the caller). ctx governs the
// cache's lifetime; a nil ctx defaults to context.Background().
func New[K comparable, V any](ctx context.Context, exp time.Duration) Cache[K, V] {
	if ctx == nil {
		ctx = context.Background()
	}
	_, cancel := context.WithCancel(ctx)

	return &cc[K, V]{
		cancel: cancel,
		items:  libatm.NewMapTyped[K, cchitm.CacheItem[V]](),
		exp:    exp,
	}
}

func (o *cc[K, V]) Load(key K) (V, time.Duration, bool) {
	it, ok := o.items.Load(key)
	if !ok {
		var zero V
		return zero, 0, false
	}

	val, remaining, ok := it.LoadRemain()
	if !ok {
		o.items.Delete(key)
	}
	return val, remaining, ok
}

func (o *cc[K, V]) Store(key K, val V) {
	if it, ok := o.items.Load(key); ok {
		it.Store(val)
		return
	}
	o.items.Store(key, cchitm.New[V](o.exp, val))
}

func (o *cc[K, V]) Delete(key K) {
	o.items.Delete(key)
}

func (o *cc[K, V]) Close() error {
	o.cancel()
	o.items.Range(func(key K, it cchitm.CacheItem[V]) bool {
		it.Clean()
		o.items.Delete(key)
		return true
	})
	return nil
}
