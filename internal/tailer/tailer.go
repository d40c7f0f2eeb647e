// Package tailer follows growing sqllog files and emits whole records.
// Records span multiple lines, so the tailer cannot emit line by line:
// it accumulates lines until the strict record-start validator confirms
// that a new record has begun, then flushes the previous one.
package tailer

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/guangl/dm-parser-sqllog/internal/model"
	"github.com/guangl/dm-parser-sqllog/internal/sqllog"
	"github.com/guangl/dm-parser-sqllog/internal/watcher"
)

// Tailer reads newly appended content from watched files and emits one
// RawRecord per completed log record. Lines arriving before the first
// confirmed record start are emitted on the error channel line by line.
type Tailer struct {
	mu     sync.Mutex
	files  map[string]*trackedFile
	out    chan model.RawRecord
	errs   chan model.RawRecord
	ckpt   *Checkpoint
	events <-chan watcher.Event
	watch  *watcher.Watcher
}

type trackedFile struct {
	path    string
	file    *os.File
	offset  int64
	partial string   // bytes of an incomplete final line
	pending []string // lines of the record currently accumulating
}

// New creates a Tailer that reads events from the given Watcher.
func New(w *watcher.Watcher, ckpt *Checkpoint) *Tailer {
	return &Tailer{
		files:  make(map[string]*trackedFile),
		out:    make(chan model.RawRecord, 512),
		errs:   make(chan model.RawRecord, 128),
		ckpt:   ckpt,
		events: w.Events,
		watch:  w,
	}
}

// Records returns the channel of completed raw records.
func (t *Tailer) Records() <-chan model.RawRecord {
	return t.out
}

// Errors returns the channel of lines that precede any record start.
func (t *Tailer) Errors() <-chan model.RawRecord {
	return t.errs
}

// Start begins processing watcher events. Blocks until the context is
// cancelled; any record still accumulating is flushed on shutdown.
func (t *Tailer) Start(ctx context.Context) {
	defer close(t.errs)
	defer close(t.out)

	for _, p := range t.watch.Paths() {
		t.openFile(p)
		t.readAppended(p)
	}

	saveTicker := time.NewTicker(5 * time.Second)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.flushAll()
			t.saveCheckpoint()
			t.closeAll()
			return

		case ev, ok := <-t.events:
			if !ok {
				t.flushAll()
				return
			}
			t.handleEvent(ev)

		case <-saveTicker.C:
			t.saveCheckpoint()
		}
	}
}

func (t *Tailer) handleEvent(ev watcher.Event) {
	switch {
	case ev.Op&fsnotify.Write != 0:
		t.readAppended(ev.Path)

	case ev.Op&fsnotify.Create != 0:
		// New file appeared (possibly after rotation).
		t.openFile(ev.Path)
		t.readAppended(ev.Path)

	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		t.closeFile(ev.Path)
		go t.reconnect(ev.Path)
	}
}

// openFile opens a file for tailing, resuming from the checkpointed
// offset or the end of the file when none is saved.
func (t *Tailer) openFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.files[path]; exists {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		zap.L().Warn("cannot open file", zap.String("file", path), zap.Error(err))
		return
	}

	var offset int64
	if saved, ok := t.ckpt.Get(path); ok {
		offset = saved
	} else {
		offset, _ = f.Seek(0, io.SeekEnd)
	}
	f.Seek(offset, io.SeekStart)

	t.files[path] = &trackedFile{
		path:   path,
		file:   f,
		offset: offset,
	}
}

// readAppended consumes everything from the last offset to EOF and
// feeds complete lines into the record accumulator.
func (t *Tailer) readAppended(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tf, ok := t.files[path]
	if !ok {
		return
	}

	data, err := io.ReadAll(tf.file)
	if err != nil {
		zap.L().Warn("read error", zap.String("file", path), zap.Error(err))
		return
	}
	if len(data) == 0 {
		return
	}

	chunk := tf.partial + string(data)
	tf.partial = ""
	for {
		i := strings.IndexByte(chunk, '\n')
		if i < 0 {
			tf.partial = chunk
			break
		}
		t.feedLine(tf, strings.TrimSuffix(chunk[:i], "\r"))
		chunk = chunk[i+1:]
	}

	pos, _ := tf.file.Seek(0, io.SeekCurrent)
	tf.offset = pos
	t.ckpt.Set(path, pos)
}

// feedLine routes one complete line: a validated record start flushes
// the pending record and opens the next; other lines either extend the
// pending record or, before any record has started, go out as errors.
func (t *Tailer) feedLine(tf *trackedFile, line string) {
	if sqllog.IsRecordStart(line) {
		t.flushPending(tf)
		tf.pending = append(tf.pending, line)
		return
	}
	if len(tf.pending) > 0 {
		tf.pending = append(tf.pending, line)
		return
	}
	t.errs <- model.RawRecord{Text: line, Source: tf.path}
}

// flushPending emits the accumulated record, if any.
func (t *Tailer) flushPending(tf *trackedFile) {
	if len(tf.pending) == 0 {
		return
	}
	t.out <- model.RawRecord{
		Text:   strings.Join(tf.pending, "\n") + "\n",
		Source: tf.path,
	}
	tf.pending = tf.pending[:0]
}

// flushAll flushes every file's accumulating record, used on shutdown
// when no further boundary can confirm completion.
func (t *Tailer) flushAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tf := range t.files {
		t.flushPending(tf)
	}
}

func (t *Tailer) closeFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tf, ok := t.files[path]; ok {
		t.flushPending(tf)
		tf.file.Close()
		delete(t.files, path)
	}
}

// reconnect polls for a file to reappear after rotation (up to 5 retries).
func (t *Tailer) reconnect(path string) {
	for i := 0; i < 5; i++ {
		time.Sleep(1 * time.Second)
		if _, err := os.Stat(path); err == nil {
			zap.L().Info("reconnected to rotated file", zap.String("file", path))
			_ = t.watch.ReWatch(path)
			// The rotated file starts over from offset zero; reads happen
			// on the next write event inside the Start loop.
			t.ckpt.Set(path, 0)
			t.openFile(path)
			return
		}
	}
	zap.L().Warn("gave up reconnecting", zap.String("file", path))
}

func (t *Tailer) saveCheckpoint() {
	if err := t.ckpt.Save(); err != nil {
		zap.L().Warn("checkpoint save failed", zap.Error(err))
	}
}

func (t *Tailer) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, tf := range t.files {
		tf.file.Close()
		delete(t.files, path)
	}
}
