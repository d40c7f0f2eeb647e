package config

import (
	"errors"
	"io/fs"

	"github.com/spf13/viper"
)

// Config is the root of the TOML configuration file.
type Config struct {
	Logging       Logging       `mapstructure:"logging"`
	ErrorExporter ErrorExporter `mapstructure:"error_exporter"`
	Sqllog        Sqllog        `mapstructure:"sqllog"`
}

// Logging configures the process logger.
type Logging struct {
	Level string `mapstructure:"level"` // error, warn, info, debug
	Path  string `mapstructure:"path"`  // directory for the log file
}

// ErrorExporter configures where leading-error lines are written.
type ErrorExporter struct {
	Path      string `mapstructure:"path"` // directory for exported error lines
	Overwrite bool   `mapstructure:"overwrite"`
	Append    bool   `mapstructure:"append"`
}

// Sqllog configures batch parsing.
type Sqllog struct {
	BatchSize int    `mapstructure:"batch_size"` // records per sink call, 0 = default
	ThreadNum int    `mapstructure:"thread_num"` // parse workers, 0 = NumCPU
	Path      string `mapstructure:"path"`       // default directory of sqllog files
}

// Default returns the built-in configuration used when no file is given
// or a section is missing.
func Default() Config {
	return Config{
		Logging: Logging{Level: "info", Path: "logs"},
		ErrorExporter: ErrorExporter{
			Path:      "error_logs",
			Overwrite: false,
			Append:    true,
		},
		Sqllog: Sqllog{Path: "sqllog"},
	}
}

// Load reads a TOML config file and overlays it on the defaults. A
// missing file is not an error; defaults apply. Malformed files return a
// *ParseError describing what went wrong.
func Load(path string) (Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.path", def.Logging.Path)
	v.SetDefault("error_exporter.path", def.ErrorExporter.Path)
	v.SetDefault("error_exporter.overwrite", def.ErrorExporter.Overwrite)
	v.SetDefault("error_exporter.append", def.ErrorExporter.Append)
	v.SetDefault("sqllog.batch_size", def.Sqllog.BatchSize)
	v.SetDefault("sqllog.thread_num", def.Sqllog.ThreadNum)
	v.SetDefault("sqllog.path", def.Sqllog.Path)

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return def, nil
		}
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return def, &ParseError{Kind: KindSyntax, Path: path, Err: err}
		}
		return def, &ParseError{Kind: KindRead, Path: path, Err: err}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return def, &ParseError{Kind: KindField, Path: path, Err: err}
	}
	return cfg, nil
}
