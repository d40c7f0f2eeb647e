package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/guangl/dm-parser-sqllog/internal/config"
)

func TestBuildCreatesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	l := build(config.Logging{Level: "debug", Path: dir})
	l.Info("hello from test")
	_ = l.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "dmsqllog.log"))
	if err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log file to contain the entry")
	}
}

func TestBuildBadLevelFallsBack(t *testing.T) {
	// Must not panic or fail; unknown level means info.
	l := build(config.Logging{Level: "shouting", Path: ""})
	l.Info("still works")
}
