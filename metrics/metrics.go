// Package metrics tracks admission-control outcomes: process-wide counters
// plus per-key statistics, exposed as a JSON-friendly snapshot.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// topKeyLimit caps how many per-key entries a snapshot carries.
const topKeyLimit = 10

// Metrics records rate-limit decisions. It implements the limiter's
// Recorder interface and is safe for concurrent use.
type Metrics struct {
	total   atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64

	mu      sync.RWMutex
	perKey  map[string]*KeyStats
	started time.Time
}

// KeyStats aggregates outcomes for one rate-limit key.
type KeyStats struct {
	Key       string    `json:"key"`
	Total     int64     `json:"total"`
	Allowed   int64     `json:"allowed"`
	Denied    int64     `json:"denied"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// New creates an empty metrics tracker.
func New() *Metrics {
	return &Metrics{
		perKey:  make(map[string]*KeyStats),
		started: time.Now(),
	}
}

// RecordRequest records one admission decision for key.
func (m *Metrics) RecordRequest(key string, allowed bool) {
	m.total.Add(1)
	if allowed {
		m.allowed.Add(1)
	} else {
		m.denied.Add(1)
	}

	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.perKey[key]
	if !ok {
		stats = &KeyStats{Key: key, FirstSeen: now}
		m.perKey[key] = stats
	}
	stats.Total++
	if allowed {
		stats.Allowed++
	} else {
		stats.Denied++
	}
	stats.LastSeen = now
}

// Snapshot is a point-in-time view of the collected metrics.
type Snapshot struct {
	Total         int64      `json:"total_requests"`
	Allowed       int64      `json:"allowed_requests"`
	Denied        int64      `json:"denied_requests"`
	UniqueKeys    int64      `json:"unique_keys"`
	TopKeys       []KeyStats `json:"top_keys"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartedAt     time.Time  `json:"started_at"`
}

// Snapshot copies the current counters. TopKeys holds the busiest keys,
// most requests first.
func (m *Metrics) Snapshot() *Snapshot {
	m.mu.RLock()
	top := make([]KeyStats, 0, len(m.perKey))
	for _, stats := range m.perKey {
		top = append(top, *stats)
	}
	m.mu.RUnlock()

	sort.Slice(top, func(i, j int) bool {
		if top[i].Total != top[j].Total {
			return top[i].Total > top[j].Total
		}
		return top[i].Key < top[j].Key
	})
	uniqueKeys := int64(len(top))
	if len(top) > topKeyLimit {
		top = top[:topKeyLimit]
	}

	return &Snapshot{
		Total:         m.total.Load(),
		Allowed:       m.allowed.Load(),
		Denied:        m.denied.Load(),
		UniqueKeys:    uniqueKeys,
		TopKeys:       top,
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
		StartedAt:     m.started,
	}
}
