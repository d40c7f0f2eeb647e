package exporter

import (
	"os"
	"strings"
	"testing"
)

func TestExportAppend(t *testing.T) {
	dir := t.TempDir()

	// First run writes, second run appends.
	e1 := New(Options{Dir: dir, Append: true})
	if err := e1.Export("a.log", []string{"bad line 1"}); err != nil {
		t.Fatal(err)
	}
	e2 := New(Options{Dir: dir, Append: true})
	if err := e2.Export("b.log", []string{"bad line 2"}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(e2.Path())
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.Contains(got, "a.log: bad line 1") || !strings.Contains(got, "b.log: bad line 2") {
		t.Errorf("expected both runs' lines, got %q", got)
	}
}

func TestExportOverwrite(t *testing.T) {
	dir := t.TempDir()

	e1 := New(Options{Dir: dir, Overwrite: true})
	if err := e1.Export("a.log", []string{"old"}); err != nil {
		t.Fatal(err)
	}

	// A new run with overwrite truncates the previous content once, but
	// keeps accumulating within the run.
	e2 := New(Options{Dir: dir, Overwrite: true})
	if err := e2.Export("b.log", []string{"new"}); err != nil {
		t.Fatal(err)
	}
	if err := e2.Export("c.log", []string{"more"}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(e2.Path())
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if strings.Contains(got, "a.log: old") {
		t.Errorf("expected previous run's content to be truncated, got %q", got)
	}
	if !strings.Contains(got, "b.log: new") || !strings.Contains(got, "c.log: more") {
		t.Errorf("expected both writes of this run, got %q", got)
	}
}

func TestExportRefusesToClobber(t *testing.T) {
	dir := t.TempDir()

	e1 := New(Options{Dir: dir})
	if err := e1.Export("a.log", []string{"first"}); err != nil {
		t.Fatal(err)
	}

	// Neither append nor overwrite: an existing file from a previous run
	// must not be touched.
	e2 := New(Options{Dir: dir})
	if err := e2.Export("b.log", []string{"second"}); err == nil {
		t.Error("expected an error when the file already exists")
	}
}

func TestExportNothing(t *testing.T) {
	dir := t.TempDir()

	e := New(Options{Dir: dir, Append: true})
	if err := e.Export("a.log", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(e.Path()); !os.IsNotExist(err) {
		t.Error("expected no file when there is nothing to export")
	}
}
