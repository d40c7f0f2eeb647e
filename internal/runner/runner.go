// Package runner orchestrates whole-file batch parsing: glob expansion,
// a worker pool sized from config, and per-file splitter+extractor
// pipelines. Files are independent buffers, so workers never coordinate
// beyond the shared work queue.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/guangl/dm-parser-sqllog/internal/config"
	"github.com/guangl/dm-parser-sqllog/internal/exporter"
	"github.com/guangl/dm-parser-sqllog/internal/model"
	"github.com/guangl/dm-parser-sqllog/internal/sqllog"
)

const defaultBatchSize = 1024

// Sink consumes batches of parsed entries from one source file, in file
// order. The batch slice is reused between calls; sinks must copy
// entries they keep.
type Sink func(source string, batch []model.SQLEntry)

// Runner parses whole log files concurrently.
type Runner struct {
	workers   int
	batchSize int
	exporter  *exporter.Exporter
}

// New builds a runner from the [sqllog] config section. ThreadNum 0
// means one worker per CPU; BatchSize 0 picks a default.
func New(cfg config.Sqllog, exp *exporter.Exporter) *Runner {
	workers := cfg.ThreadNum
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Runner{workers: workers, batchSize: batch, exporter: exp}
}

// Result summarizes one Run.
type Result struct {
	Files      int
	Records    int64
	ErrorLines int64
}

// Run expands the glob patterns, parses every matched file, and invokes
// sink with batches of parsed entries. Leading-error lines go to the
// exporter. Record order within a file is preserved; file completion
// order is not.
func (r *Runner) Run(ctx context.Context, patterns []string, sink Sink) (Result, error) {
	files, err := expand(patterns)
	if err != nil {
		return Result{}, err
	}
	if len(files) == 0 {
		return Result{}, fmt.Errorf("no files matched the given patterns: %v", patterns)
	}

	var records, errLines atomic.Int64
	jobs := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				n, m, err := r.parseFile(path, sink)
				if err != nil {
					zap.L().Warn("parse failed",
						zap.String("file", path), zap.Error(err))
					continue
				}
				records.Add(n)
				errLines.Add(m)
			}
		}()
	}

feed:
	for _, f := range files {
		select {
		case jobs <- f:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return Result{
		Files:      len(files),
		Records:    records.Load(),
		ErrorLines: errLines.Load(),
	}, ctx.Err()
}

// parseFile reads one file into memory and streams its records to the
// sink. The file content is the parse buffer; entries handed to the
// sink are materialized copies and may outlive it.
func (r *Runner) parseFile(path string, sink Sink) (records, errLines int64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	text := string(data)

	sp := sqllog.NewSplitter(text)
	if lines := sp.LeadingErrorLines(); len(lines) > 0 {
		errLines = int64(len(lines))
		if r.exporter != nil {
			if err := r.exporter.Export(path, lines); err != nil {
				zap.L().Warn("error export failed",
					zap.String("file", path), zap.Error(err))
			}
		}
	}

	batch := make([]model.SQLEntry, 0, r.batchSize)
	for rec, ok := sp.Next(); ok; rec, ok = sp.Next() {
		batch = append(batch, model.FromRecord(sqllog.ParseRecord(rec), path))
		records++
		if len(batch) == r.batchSize {
			sink(path, batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		sink(path, batch)
	}
	return records, errLines, nil
}

// expand resolves glob patterns (doublestar style, ** supported) to a
// deduplicated file list. A literal path that exists is taken as-is.
func expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		if info, err := os.Stat(pattern); err == nil && !info.IsDir() {
			if abs, err := filepath.Abs(pattern); err == nil && !seen[abs] {
				seen[abs] = true
				files = append(files, abs)
			}
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				continue
			}
			if !seen[abs] {
				seen[abs] = true
				files = append(files, abs)
			}
		}
	}
	return files, nil
}
