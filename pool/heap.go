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

// Package pool amortizes channel setup across many callers: a fixed-bounded
// population of channel.Channel instances, load-balanced dispatch, health
// checking and retirement (spec.md §4.H).
package pool

// busyEntry is one element of the busy min-heap: a channel id ordered by
// its current in-flight request count, ties broken by id for determinism.
type busyEntry struct {
	id       string
	inFlight int
}

// busyHeap implements container/heap.Interface, keyed by (in-flight-count,
// channel-id) so the least-loaded channel is always at index 0.
type busyHeap []busyEntry

func (h busyHeap) Len() int { return len(h) }

func (h busyHeap) Less(i, j int) bool {
	if h[i].inFlight != h[j].inFlight {
		return h[i].inFlight < h[j].inFlight
	}
	return h[i].id < h[j].id
}

func (h busyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *busyHeap) Push(x interface{}) {
	*h = append(*h, x.(busyEntry))
}

func (h *busyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}
