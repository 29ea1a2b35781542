// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/output"
	"github.com/kraklabs/codegraph/internal/ui"
	"github.com/kraklabs/codegraph/pkg/graphstore"
	"github.com/kraklabs/codegraph/pkg/ingestion"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// runIndex executes the 'index' CLI command, building the code graph for
// a Python repository snapshot.
//
// It loads the snapshot (working tree or a git revision), extracts symbols
// with Tree-sitter, links cross-file references and writes the resulting
// nodes and edges to the configured Neo4j database. Re-running the command
// over an unchanged repository leaves the graph unchanged.
//
// Flags:
//   - --repo: Repository root (default: current directory)
//   - --commit: Index a git revision instead of the working tree
//   - --workers: Number of parallel parse workers (default: from config)
//   - --dry-run: Index into an in-memory store, skip Neo4j entirely
//   - --wipe: Wipe the graph database before indexing
//   - --json: Print the run summary as JSON
//   - --debug: Enable debug logging (default: false)
//   - --metrics-addr: HTTP address for Prometheus metrics (default: disabled)
//
// Examples:
//
//	codegraph index                    Index the working tree
//	codegraph index --commit HEAD~3    Index an older revision
//	codegraph index --wipe             Clean re-index from scratch
func runIndex(args []string, configPath string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	repo := fs.String("repo", "", "Repository root (default: current directory)")
	commitRef := fs.String("commit", "", "Git revision to index instead of the working tree")
	workers := fs.Int("workers", 0, "Number of parallel parse workers (0 = from config)")
	dryRun := fs.Bool("dry-run", false, "Index into an in-memory store without touching Neo4j")
	wipe := fs.Bool("wipe", false, "Wipe the graph database before indexing")
	jsonOut := fs.Bool("json", false, "Print the run summary as JSON")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph index [options]

Indexes a Python repository using configuration from .codegraph/project.yaml
and writes the code graph to the configured Neo4j database.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	// Load configuration
	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, *jsonOut)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Start Prometheus metrics endpoint (optional)
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	repoPath := *repo
	if repoPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot get current directory: %v\n", err)
			os.Exit(1)
		}
		repoPath = cwd
	}

	store := openStore(ctx, cfg, *dryRun, *jsonOut)
	defer func() { _ = store.Close(context.Background()) }()

	if *wipe {
		logger.Info("graph.wipe.start")
		if err := store.DeleteAll(ctx); err != nil {
			errors.FatalError(errors.NewGraphError(
				"Cannot wipe the graph database",
				"The delete-all operation failed",
				"Check the Neo4j logs and connection settings",
				err,
			), *jsonOut)
		}
		logger.Info("graph.wipe.complete")
	}

	parseWorkers := cfg.Indexing.Workers
	if *workers > 0 {
		parseWorkers = *workers
	}

	pipeline := ingestion.NewPipeline(ingestion.PipelineConfig{
		Snapshot: ingestion.SnapshotConfig{
			Root:         repoPath,
			Commit:       *commitRef,
			ExcludeGlobs: cfg.Indexing.Exclude,
			MaxFileSize:  cfg.Indexing.MaxFileSize,
		},
		Workers: parseWorkers,
	}, store, logger)

	logger.Info("indexing.starting",
		"project_id", cfg.ProjectID,
		"repo_path", repoPath,
		"commit", *commitRef,
		"workers", parseWorkers,
		"dry_run", *dryRun,
	)

	result, err := pipeline.Run(ctx)
	if err != nil {
		errors.FatalError(errors.NewGraphError(
			"Indexing failed",
			err.Error(),
			"Re-running 'codegraph index' is safe; the graph converges on retry",
			err,
		), *jsonOut)
	}

	if *jsonOut {
		if err := output.JSON(indexSummary(cfg.ProjectID, result)); err != nil {
			errors.FatalError(err, true)
		}
		return
	}
	printResult(cfg.ProjectID, result)
}

// openStore connects the configured graph store, or an in-memory one for
// dry runs.
func openStore(ctx context.Context, cfg *Config, dryRun, jsonOut bool) graphstore.Store {
	if dryRun {
		return graphstore.NewMemoryStore()
	}
	store, err := graphstore.NewNeo4jStore(ctx, cfg.Neo4j)
	if err != nil {
		errors.FatalError(errors.NewGraphError(
			"Cannot connect to the graph database",
			fmt.Sprintf("Neo4j at %s is unreachable or rejected the credentials", cfg.Neo4j.URI),
			"Check that Neo4j is running and the neo4j section of .codegraph/project.yaml is correct",
			err,
		), jsonOut)
	}
	return store
}

// IndexSummary is the machine-readable run summary for --json mode.
type IndexSummary struct {
	ProjectID     string `json:"project_id"`
	FilesLoaded   int    `json:"files_loaded"`
	FilesParsed   int    `json:"files_parsed"`
	ParseErrors   int    `json:"parse_errors"`
	Symbols       int    `json:"symbols"`
	Nodes         int    `json:"nodes"`
	Edges         int    `json:"edges"`
	CallsResolved int    `json:"calls_resolved"`
	CallsDropped  int    `json:"calls_dropped"`
	Inherits      int    `json:"inherits"`
	Overrides     int    `json:"overrides"`
	Patterns      int    `json:"patterns"`
	DurationMs    int64  `json:"duration_ms"`
}

func indexSummary(projectID string, result *ingestion.RunResult) IndexSummary {
	return IndexSummary{
		ProjectID:     projectID,
		FilesLoaded:   result.FilesLoaded,
		FilesParsed:   result.FilesParsed,
		ParseErrors:   result.ParseErrors,
		Symbols:       result.Symbols,
		Nodes:         result.Nodes,
		Edges:         result.Edges,
		CallsResolved: result.Stats.CallsResolved,
		CallsDropped:  result.Stats.CallsDropped,
		Inherits:      result.Stats.Inherits,
		Overrides:     result.Stats.Overrides,
		Patterns:      result.Stats.Patterns,
		DurationMs:    result.TotalDuration.Milliseconds(),
	}
}

// printResult prints the indexing result summary to stdout.
func printResult(projectID string, result *ingestion.RunResult) {
	fmt.Println()
	ui.Header("Indexing Complete")
	fmt.Printf("%s %s\n", ui.Label("Project ID:"), projectID)
	fmt.Printf("Files Loaded: %s\n", ui.CountText(result.FilesLoaded))
	fmt.Printf("Files Parsed: %s\n", ui.CountText(result.FilesParsed))
	fmt.Printf("Functions: %s\n", ui.CountText(result.Stats.Functions))
	fmt.Printf("Classes: %s\n", ui.CountText(result.Stats.Classes))
	fmt.Printf("Nodes Written: %s\n", ui.CountText(result.Nodes))
	fmt.Printf("Edges Written: %s\n", ui.CountText(result.Edges))
	fmt.Printf("Calls Resolved: %s (dropped %d)\n", ui.CountText(result.Stats.CallsResolved), result.Stats.CallsDropped)
	fmt.Printf("Inheritance: %s (overrides %d)\n", ui.CountText(result.Stats.Inherits), result.Stats.Overrides)

	if result.Stats.Patterns > 0 {
		fmt.Printf("Design Patterns: %s\n", ui.CountText(result.Stats.Patterns))
	}
	if result.ParseErrors > 0 {
		ui.Warningf("Skipped %d files with syntax errors", result.ParseErrors)
	}

	fmt.Println("\nTimings:")
	fmt.Printf("  Load:  %s\n", result.LoadDuration)
	fmt.Printf("  Parse: %s\n", result.ParseDuration)
	fmt.Printf("  Link:  %s\n", result.LinkDuration)
	fmt.Printf("  Write: %s\n", result.WriteDuration)
	fmt.Printf("  Total: %s\n", result.TotalDuration)
	fmt.Println()

	ui.Successf("Indexed %d files", result.FilesParsed)
}
