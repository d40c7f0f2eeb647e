// Package logging wires the process-wide zap logger from the [logging]
// config section: a console core on stderr, plus a file core under the
// configured directory when it is writable.
package logging

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/guangl/dm-parser-sqllog/internal/config"
)

var initOnce sync.Once

// Init builds the global logger and installs it via zap.ReplaceGlobals.
// An unknown level falls back to info; a non-writable log directory
// drops the file core rather than failing. Repeated calls keep the
// first configuration.
func Init(cfg config.Logging) *zap.Logger {
	initOnce.Do(func() {
		zap.ReplaceGlobals(build(cfg))
	})
	return zap.L()
}

func build(cfg config.Logging) *zap.Logger {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}

	if cfg.Path != "" {
		if f, err := openLogFile(cfg.Path); err == nil {
			fileCfg := zap.NewProductionEncoderConfig()
			fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
			cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(f), level))
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}

func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "dmsqllog.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
