package cmd

import (
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/spf13/cobra"

	"github.com/guangl/dm-parser-sqllog/internal/aggregator"
	"github.com/guangl/dm-parser-sqllog/internal/exporter"
	"github.com/guangl/dm-parser-sqllog/internal/hub"
	"github.com/guangl/dm-parser-sqllog/internal/server"
	"github.com/guangl/dm-parser-sqllog/internal/sqllog"
	"github.com/guangl/dm-parser-sqllog/internal/tailer"
	"github.com/guangl/dm-parser-sqllog/internal/watcher"
)

var (
	serveDashboard bool
	servePort      string
	checkpointPath string
)

var watchCmd = &cobra.Command{
	Use:   "watch [globs...]",
	Short: "Tail growing SQL log files and stream records live",
	Long: `Watch follows the matched files as the database appends to them,
re-discovers record boundaries on the fly, and streams each completed
record to the terminal. Offsets are checkpointed so a restart resumes
where it left off.

With --serve, a dashboard with live stats and a websocket record feed
is exposed on the given port:

  dmsqllog watch --serve --port 8080 '/dmdata/log/dmsql_*.log'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&serveDashboard, "serve", false, "expose the live dashboard over HTTP")
	watchCmd.Flags().StringVar(&servePort, "port", "8080", "dashboard listen port")
	watchCmd.Flags().StringVar(&checkpointPath, "checkpoint", ".dmsqllog-checkpoint.json", "file for persisted read offsets")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Every incoming line hits the record-start validator; build the
	// marker automaton before the first event arrives.
	sqllog.Prewarm()

	w, err := watcher.New(args)
	if err != nil {
		return err
	}
	if len(w.Paths()) == 0 {
		return fmt.Errorf("no files matched the given patterns: %v", args)
	}
	zap.L().Info("watching files", zap.Int("count", len(w.Paths())))

	ckpt, err := tailer.NewCheckpoint(checkpointPath)
	if err != nil {
		return err
	}

	tl := tailer.New(w, ckpt)
	h := hub.New(tl.Records())
	agg := aggregator.New(h.Subscribe(), h.Dropped, func() int { return len(w.Paths()) })

	exp := exporter.New(exporter.Options{
		Dir:    cfg.ErrorExporter.Path,
		Append: true,
	})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		tl.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		agg.Start(ctx)
	}()

	// Lines that never belonged to a record are preserved, same as in
	// batch mode.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for raw := range tl.Errors() {
			zap.L().Warn("unparseable line",
				zap.String("file", raw.Source), zap.String("line", raw.Text))
			if err := exp.Export(raw.Source, []string{raw.Text}); err != nil {
				zap.L().Warn("error export failed", zap.Error(err))
			}
		}
	}()

	if serveDashboard {
		srv := server.New(h, agg, servePort)
		go func() {
			if err := srv.Start(); err != nil {
				zap.L().Error("dashboard server stopped", zap.Error(err))
			}
		}()
		zap.L().Info("dashboard listening", zap.String("addr", "http://localhost:"+servePort))
	}

	// Terminal output rides its own hub subscription so a slow terminal
	// never stalls the dashboard.
	entries := h.Subscribe()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			zap.L().Info("shutdown complete")
			return nil
		case entry, ok := <-entries:
			if !ok {
				wg.Wait()
				return nil
			}
			if err := renderer.Render(entry); err != nil {
				zap.L().Warn("render failed", zap.Error(err))
			}
		}
	}
}
