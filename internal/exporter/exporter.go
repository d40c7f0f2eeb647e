// Package exporter persists leading-error lines recovered during
// parsing, so corrupted log content is kept for inspection instead of
// silently dropped.
package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// errorFileName is the single file all exported lines go to, under the
// configured directory.
const errorFileName = "leading_errors.log"

// Options control how the target file is opened.
type Options struct {
	Dir       string // directory for the error file
	Overwrite bool   // truncate any previous file on the first write of this run
	Append    bool   // keep appending to an existing file across runs
}

// Exporter writes leading-error lines to a file. It is safe for
// concurrent use by parse workers.
type Exporter struct {
	mu     sync.Mutex
	opts   Options
	opened bool // the file was already written to during this run
}

// New prepares an exporter. The directory is created lazily on the
// first write, not here.
func New(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Export writes error lines attributed to source, one per line,
// prefixed with the source path. Behavior on an existing file: Append
// keeps adding to it; otherwise Overwrite truncates it once per run;
// with neither set, an existing file is an error (refuse to clobber).
func (e *Exporter) Export(source string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(e.opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create error dir: %w", err)
	}
	path := filepath.Join(e.opts.Dir, errorFileName)

	flags := os.O_CREATE | os.O_WRONLY
	switch {
	case e.opts.Append || e.opened:
		flags |= os.O_APPEND
	case e.opts.Overwrite:
		flags |= os.O_TRUNC
	default:
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open error file: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(source)
		sb.WriteString(": ")
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if _, err := f.WriteString(sb.String()); err != nil {
		return fmt.Errorf("write error lines: %w", err)
	}

	e.opened = true
	return nil
}

// Path returns the file exported lines are written to.
func (e *Exporter) Path() string {
	return filepath.Join(e.opts.Dir, errorFileName)
}
