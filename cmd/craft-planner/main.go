// Craft planner MCP server
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rsned/craft-planner/internal/crafting/config"
	"github.com/rsned/craft-planner/internal/crafting/db"
	"github.com/rsned/craft-planner/internal/crafting/engine"
	"github.com/rsned/craft-planner/internal/crafting/mcp"
	"github.com/rsned/craft-planner/internal/crafting/sync"
	"github.com/rsned/craft-planner/pkg/crafting"
)

func main() {
	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down...")
		cancel()
	}()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes the command and returns the process exit status: 0 on
// success, 1 on error and 2 when -plan finds no plan. Every deferred
// cleanup has run by the time it returns.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// Parse flags
	fs := flag.NewFlagSet("craft-planner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "data/crafting/planner.db", "Path to SQLite database")
	configPath := fs.String("config", "", "Path to YAML config overlay (defaults are built in)")
	importBook := fs.String("import", "", "Import a recipe book from JSON file")
	problemName := fs.String("problem-name", "", "Name to store the imported book's problem under")
	plan := fs.String("plan", "", "Plan the named stored problem, print it and exit")
	deadline := fs.Duration("deadline", 0, "Search deadline for -plan (0 uses the config)")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	logger := newLogger(stderr, *verbose)
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	// Open database
	database, err := db.OpenAndInit(ctx, *dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return 1
	}
	defer func() { _ = database.Close() }()

	if *importBook != "" {
		logger.Info("importing recipe book", "file", *importBook)
		res, err := sync.NewSyncer(database, logger).ImportBookFromFile(ctx, *importBook, *problemName)
		if err != nil {
			logger.Error("failed to import recipe book", "error", err)
			return 1
		}
		logger.Info("recipe book imported successfully", "revision", res.Revision, "problem", res.Problem)

		// If only doing imports, exit
		if *plan == "" && fs.NArg() == 0 {
			return 0
		}
	}

	if *metricsAddr != "" {
		stop := serveMetrics(*metricsAddr, logger)
		defer stop()
	}

	eng, err := engine.New(database, cfg, logger)
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		return 1
	}

	if *plan != "" {
		resp, err := eng.Plan(ctx, crafting.PlanRequest{Problem: *plan, DeadlineSec: deadline.Seconds()})
		if err != nil {
			logger.Error("planning failed", "problem", *plan, "error", err)
			return 1
		}
		printPlan(stdout, resp)
		if !resp.Solved {
			return 2
		}
		return 0
	}

	server := mcp.NewServer(eng, logger)

	// Run MCP server
	logger.Info("starting MCP server", "db", *dbPath)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		return 1
	}

	fmt.Fprintln(stderr, "server stopped")
	return 0
}

// newLogger logs text to a terminal and JSON otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// serveMetrics exposes /metrics in the background and returns a function
// that shuts the listener down.
func serveMetrics(addr string, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// printPlan writes a plan as one line per step.
func printPlan(w io.Writer, resp *crafting.PlanResponse) {
	d := resp.Diagnostics
	if !resp.Solved {
		fmt.Fprintf(w, "problem %s: no plan: %s\n", resp.Problem, resp.Failure)
		fmt.Fprintf(w, "expanded %s states, pruned %s\n", humanize.Comma(int64(d.Expanded)), humanize.Comma(int64(d.Pruned)))
		return
	}

	fmt.Fprintf(w, "problem %s: %d steps, cost %s\n", resp.Problem, len(resp.Steps)-1, humanize.Ftoa(resp.TotalCost))
	for _, step := range resp.Steps {
		fmt.Fprintf(w, "%4d  %-32s %8s  %v\n", step.StepNumber, step.Action, humanize.Ftoa(step.Cost), step.Inventory)
	}
	fmt.Fprintf(w, "expanded %s states, generated %s, pruned %s in %s\n",
		humanize.Comma(int64(d.Expanded)),
		humanize.Comma(int64(d.Generated)),
		humanize.Comma(int64(d.Pruned)),
		time.Duration(d.ElapsedMs)*time.Millisecond,
	)
}
