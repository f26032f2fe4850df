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
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats is a point-in-time snapshot of a Pool's lifetime counters
// (spec.md §4.H).
type Stats struct {
	JobsCreated     uint64
	JobsDestroyed   uint64
	ReadyQueueHits  uint64
	BusySelections  uint64
	CacheHits       uint64
	CacheMisses     uint64
}

type counters struct {
	jobsCreated    atomic.Uint64
	jobsDestroyed  atomic.Uint64
	readyQueueHits atomic.Uint64
	busySelections atomic.Uint64
	cacheHits      atomic.Uint64
	cacheMisses    atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		JobsCreated:    c.jobsCreated.Load(),
		JobsDestroyed:  c.jobsDestroyed.Load(),
		ReadyQueueHits: c.readyQueueHits.Load(),
		BusySelections: c.busySelections.Load(),
		CacheHits:      c.cacheHits.Load(),
		CacheMisses:    c.cacheMisses.Load(),
	}
}

// metricsVec exposes the same counters through prometheus/client_golang, so
// a Pool can be scraped alongside the rest of a process's metrics
// (spec.md §4.H's "statistics ... exposed for observability").
type metricsVec struct {
	jobsCreated    prometheus.Counter
	jobsDestroyed  prometheus.Counter
	readyQueueHits prometheus.Counter
	busySelections prometheus.Counter
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	activeChannels prometheus.Gauge
}

func newMetricsVec(namespace, poolName string) *metricsVec {
	labels := prometheus.Labels{"pool": poolName}
	mk := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "pool",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	return &metricsVec{
		jobsCreated:    mk("jobs_created_total", "Channels opened by this pool."),
		jobsDestroyed:  mk("jobs_destroyed_total", "Channels retired by this pool."),
		readyQueueHits: mk("ready_queue_hits_total", "get() calls satisfied from the ready queue."),
		busySelections: mk("busy_selections_total", "get() calls satisfied by picking a least-loaded busy channel."),
		cacheHits:      mk("metrics_cache_hits_total", "Lazily-refreshed running-count cache hits."),
		cacheMisses:    mk("metrics_cache_misses_total", "Lazily-refreshed running-count cache misses."),
		activeChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "pool",
			Name:        "active_channels",
			Help:        "Channels currently tracked by this pool.",
			ConstLabels: labels,
		}),
	}
}

// Collectors returns every metric so a caller can register them with a
// prometheus.Registry.
func (m *metricsVec) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.jobsCreated, m.jobsDestroyed, m.readyQueueHits,
		m.busySelections, m.cacheHits, m.cacheMisses, m.activeChannels,
	}
}
