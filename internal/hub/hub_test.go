package hub

import (
	"context"
	"testing"
	"time"

	"github.com/guangl/dm-parser-sqllog/internal/model"
)

const rawRecord = "2025-08-12 10:57:09.561 (EP[0] sess:a thrd:1 user:joe trxid:1 stmt:s appname:x) SELECT 1 ROWCOUNT: 2\n"

func TestHubBroadcast(t *testing.T) {
	input := make(chan model.RawRecord, 10)
	h := New(input)

	sub1 := h.Subscribe()
	sub2 := h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Start(ctx)

	input <- model.RawRecord{Text: rawRecord, Source: "test.log"}

	for i, sub := range []<-chan model.SQLEntry{sub1, sub2} {
		select {
		case e := <-sub:
			if e.User != "joe" {
				t.Errorf("sub%d: expected user joe, got %q", i+1, e.User)
			}
			if e.RowCount == nil || *e.RowCount != 2 {
				t.Errorf("sub%d: expected row count 2, got %v", i+1, e.RowCount)
			}
			if e.Source != "test.log" {
				t.Errorf("sub%d: expected source test.log, got %q", i+1, e.Source)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("sub%d: timed out", i+1)
		}
	}
}

func TestHubSlowConsumer(t *testing.T) {
	input := make(chan model.RawRecord, 10)
	h := New(input)

	// Subscribe but never read.
	_ = h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Start(ctx)

	for i := 0; i < subscriberBuffer+100; i++ {
		input <- model.RawRecord{Text: rawRecord, Source: "test.log"}
	}

	time.Sleep(500 * time.Millisecond)

	if h.Dropped() == 0 {
		t.Error("expected dropped entries for slow consumer, got 0")
	}
}
