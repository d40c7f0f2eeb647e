package cmd

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"

	"github.com/guangl/dm-parser-sqllog/internal/exporter"
	"github.com/guangl/dm-parser-sqllog/internal/model"
	"github.com/guangl/dm-parser-sqllog/internal/output"
	"github.com/guangl/dm-parser-sqllog/internal/runner"
)

var (
	errOverwrite bool
	errAppend    bool
	quiet        bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [globs...]",
	Short: "Parse SQL log files and print structured records",
	Long: `Parse reads whole dmsql log files, recovers record boundaries, and
prints one structured record per line. Content before the first valid
record in each file is exported as error lines.

Patterns use doublestar globs:

  dmsqllog parse 'logs/**/dmsql_*.log'
  dmsqllog parse -o json dump.log | jq .exec_time_ms`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&errOverwrite, "overwrite-errors", false, "truncate the error export file before writing")
	parseCmd.Flags().BoolVar(&errAppend, "append-errors", false, "append to an existing error export file")
	parseCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress per-record output, print the summary only")
	rootCmd.AddCommand(parseCmd)
}

func newRenderer() (output.Renderer, error) {
	switch outputFmt {
	case "text":
		return output.NewTextRenderer(), nil
	case "json":
		return output.NewJSONRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", outputFmt)
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	exp := exporter.New(exporter.Options{
		Dir:       cfg.ErrorExporter.Path,
		Overwrite: errOverwrite || cfg.ErrorExporter.Overwrite,
		Append:    errAppend || cfg.ErrorExporter.Append,
	})

	// Workers hand off batches concurrently; rendering stays serialized
	// so interleaved writes never split a line.
	var mu sync.Mutex
	sink := func(source string, batch []model.SQLEntry) {
		if quiet {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		for _, entry := range batch {
			if err := renderer.Render(entry); err != nil {
				zap.L().Warn("render failed", zap.Error(err))
				return
			}
		}
	}

	start := time.Now()
	res, err := runner.New(cfg.Sqllog, exp).Run(cmd.Context(), args, sink)
	if err != nil {
		return err
	}

	zap.L().Info("parse finished",
		zap.Int("files", res.Files),
		zap.Int64("records", res.Records),
		zap.Int64("error_lines", res.ErrorLines),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
