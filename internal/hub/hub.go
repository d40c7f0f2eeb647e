// Package hub fans parsed SQL entries out to any number of subscribers.
package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/guangl/dm-parser-sqllog/internal/model"
	"github.com/guangl/dm-parser-sqllog/internal/sqllog"
)

const subscriberBuffer = 1024

// Hub receives raw records, parses them, and broadcasts SQLEntry values
// to all subscribers.
type Hub struct {
	input       <-chan model.RawRecord
	mu          sync.RWMutex
	subscribers []chan model.SQLEntry
	dropped     atomic.Int64
}

// New creates a Hub that reads from the input channel.
func New(input <-chan model.RawRecord) *Hub {
	return &Hub{input: input}
}

// Subscribe returns a buffered channel that will receive parsed
// entries. Multiple consumers can subscribe; each gets every entry.
func (h *Hub) Subscribe() <-chan model.SQLEntry {
	ch := make(chan model.SQLEntry, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// Dropped returns the total number of entries dropped because a
// subscriber fell behind.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Start reads raw records, parses them, and broadcasts until the
// context is cancelled or the input channel closes.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-h.input:
			if !ok {
				return
			}
			rec := sqllog.ParseRecord(raw.Text)
			h.broadcast(model.FromRecord(rec, raw.Source))
		}
	}
}

// broadcast sends an entry to every subscriber, dropping it for any
// whose buffer is full rather than stalling the pipeline.
func (h *Hub) broadcast(entry model.SQLEntry) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- entry:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}
