package tailer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guangl/dm-parser-sqllog/internal/watcher"
)

const (
	startLine1 = "2025-08-12 10:57:09.561 (EP[0] sess:a thrd:1 user:u trxid:1 stmt:s appname:x) SELECT\n"
	startLine2 = "2025-08-12 10:57:09.562 (EP[0] sess:a thrd:1 user:u trxid:1 stmt:s appname:x) UPDATE\n"
)

func TestTailEmitsCompletedRecords(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")
	if err := os.WriteFile(logPath, []byte("existing\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := watcher.New([]string{logPath})
	if err != nil {
		t.Fatal(err)
	}
	ckpt, err := NewCheckpoint(filepath.Join(dir, ".state.json"))
	if err != nil {
		t.Fatal(err)
	}
	tail := New(w, ckpt)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	go tail.Start(ctx)

	// Give the tailer a moment to initialize and seek to end.
	time.Sleep(300 * time.Millisecond)

	// Append a full record, a continuation line, then the next record's
	// start. Only then is the first record complete.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString(startLine1 + "FROM t\n")
	_ = f.Sync()
	time.Sleep(200 * time.Millisecond)
	_, _ = f.WriteString(startLine2)
	f.Close()

	select {
	case raw := <-tail.Records():
		if !strings.Contains(raw.Text, "SELECT") || !strings.Contains(raw.Text, "FROM t") {
			t.Errorf("expected the multi-line record, got %q", raw.Text)
		}
		if strings.Contains(raw.Text, "UPDATE") {
			t.Errorf("next record leaked into the previous one: %q", raw.Text)
		}
		if raw.Source != logPath {
			t.Errorf("expected source %q, got %q", logPath, raw.Source)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a record")
	}

	cancel()
	time.Sleep(200 * time.Millisecond)
}

func TestTailRoutesGarbageToErrors(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")
	if err := os.WriteFile(logPath, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := watcher.New([]string{logPath})
	if err != nil {
		t.Fatal(err)
	}
	ckpt, err := NewCheckpoint(filepath.Join(dir, ".state.json"))
	if err != nil {
		t.Fatal(err)
	}
	tail := New(w, ckpt)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	go tail.Start(ctx)
	time.Sleep(300 * time.Millisecond)

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("not a record at all\n")
	f.Close()

	select {
	case raw := <-tail.Errors():
		if raw.Text != "not a record at all" {
			t.Errorf("unexpected error line %q", raw.Text)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for an error line")
	}

	cancel()
	time.Sleep(200 * time.Millisecond)
}

func TestCheckpointSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ckpt.json")

	c1, err := NewCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}
	c1.Set("/var/log/a.log", 42)
	c1.Set("/var/log/b.log", 1024)
	if err := c1.Save(); err != nil {
		t.Fatal(err)
	}

	c2, err := NewCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := c2.Get("/var/log/a.log"); !ok || v != 42 {
		t.Errorf("expected 42, got %d (found=%v)", v, ok)
	}
	if v, ok := c2.Get("/var/log/b.log"); !ok || v != 1024 {
		t.Errorf("expected 1024, got %d (found=%v)", v, ok)
	}
	if _, ok := c2.Get("/nonexistent"); ok {
		t.Error("expected missing key to return false")
	}
}
