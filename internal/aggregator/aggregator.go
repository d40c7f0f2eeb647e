// Package aggregator computes live metrics over parsed SQL entries.
package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/guangl/dm-parser-sqllog/internal/model"
)

// slowThresholdMs marks a statement as slow for the stats counters.
const slowThresholdMs = 1000

// Stats holds a point-in-time snapshot of aggregated metrics.
type Stats struct {
	Uptime         string           `json:"uptime"`
	TotalRecords   int64            `json:"total_records"`
	RPS            float64          `json:"rps"`
	UserCounts     map[string]int64 `json:"user_counts"`
	TotalRows      uint64           `json:"total_rows"`
	TotalExecMs    uint64           `json:"total_exec_ms"`
	SlowStatements int64            `json:"slow_statements"`
	DroppedRecords int64            `json:"dropped_records"`
	FilesWatched   int              `json:"files_watched"`
}

// Aggregator subscribes to the Hub and computes time-windowed metrics.
type Aggregator struct {
	mu           sync.RWMutex
	startTime    time.Time
	totalRecords int64
	userCounts   map[string]int64
	totalRows    uint64
	totalExecMs  uint64
	slow         int64
	window       []time.Time // arrival times for the RPS calculation
	dropped      func() int64
	fileCount    func() int
	entries      <-chan model.SQLEntry
}

// New creates an Aggregator reading from the given subscriber channel.
// droppedFn and fileCountFn provide live values from Hub and Watcher.
func New(entries <-chan model.SQLEntry, droppedFn func() int64, fileCountFn func() int) *Aggregator {
	return &Aggregator{
		startTime:  time.Now(),
		userCounts: make(map[string]int64),
		dropped:    droppedFn,
		fileCount:  fileCountFn,
		entries:    entries,
	}
}

// Snapshot returns the current metrics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := make(map[string]int64, len(a.userCounts))
	for k, v := range a.userCounts {
		counts[k] = v
	}

	// Records per second over the trailing 5 seconds.
	cutoff := time.Now().Add(-5 * time.Second)
	var recent int
	for _, ts := range a.window {
		if ts.After(cutoff) {
			recent++
		}
	}

	return Stats{
		Uptime:         time.Since(a.startTime).Truncate(time.Second).String(),
		TotalRecords:   a.totalRecords,
		RPS:            float64(recent) / 5.0,
		UserCounts:     counts,
		TotalRows:      a.totalRows,
		TotalExecMs:    a.totalExecMs,
		SlowStatements: a.slow,
		DroppedRecords: a.dropped(),
		FilesWatched:   a.fileCount(),
	}
}

// Start consumes entries and updates metrics until the context is
// cancelled or the channel closes.
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-a.entries:
			if !ok {
				return
			}
			a.record(entry)
		case <-ticker.C:
			a.prune()
		}
	}
}

func (a *Aggregator) record(entry model.SQLEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalRecords++
	if entry.User != "" {
		a.userCounts[entry.User]++
	}
	if entry.RowCount != nil {
		a.totalRows += *entry.RowCount
	}
	if entry.ExecTimeMs != nil {
		a.totalExecMs += *entry.ExecTimeMs
		if *entry.ExecTimeMs >= slowThresholdMs {
			a.slow++
		}
	}
	a.window = append(a.window, time.Now())
}

// prune drops window timestamps older than 5 seconds.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-5 * time.Second)
	i := 0
	for _, ts := range a.window {
		if ts.After(cutoff) {
			a.window[i] = ts
			i++
		}
	}
	a.window = a.window[:i]
}
