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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kraklabs/codegraph/pkg/graphstore"
)

// PipelineConfig configures one indexing run.
type PipelineConfig struct {
	Snapshot SnapshotConfig
	// Workers bounds concurrent file extraction; 0 means single-threaded.
	Workers int
	// Rules are the design-pattern heuristics to apply; nil means the
	// built-in set.
	Rules []PatternRule
}

// RunResult is the summary of one completed indexing run.
type RunResult struct {
	FilesLoaded int
	FilesParsed int
	ParseErrors int
	Symbols     int
	Stats       LinkStats
	Nodes       int
	Edges       int

	LoadDuration  time.Duration
	ParseDuration time.Duration
	LinkDuration  time.Duration
	WriteDuration time.Duration
	TotalDuration time.Duration
}

// Pipeline runs the whole indexing flow: snapshot load, parallel symbol
// extraction, graph linking and the final write through the store
// boundary.
type Pipeline struct {
	config PipelineConfig
	logger *slog.Logger
	loader *SnapshotLoader
	store  graphstore.Store
}

// NewPipeline creates a pipeline writing to store.
func NewPipeline(config PipelineConfig, store graphstore.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Rules == nil {
		config.Rules = DefaultPatternRules()
	}
	return &Pipeline{
		config: config,
		logger: logger,
		loader: NewSnapshotLoader(logger),
		store:  store,
	}
}

// Run executes one indexing run end to end.
//
// Per-file syntax errors are absorbed (logged, counted, skipped); load
// failures and store write failures abort the run. Running the pipeline
// twice over the same snapshot leaves the graph unchanged after the
// second run: the update set is deterministic and every write is an
// upsert.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	ingMetrics.init()
	totalStart := time.Now()

	// Step 1: Load the snapshot
	loadStart := time.Now()
	snap, err := p.loader.Load(ctx, p.config.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	loadDuration := time.Since(loadStart)
	ingMetrics.loadDuration.Observe(loadDuration.Seconds())
	for _, count := range snap.SkipReasons {
		ingMetrics.filesSkipped.Add(float64(count))
	}

	// Step 2: Extract symbols in parallel
	parseStart := time.Now()
	indexer := NewIndexer(p.config.Workers, p.logger)
	indexed, err := indexer.Index(ctx, snap.Files)
	if err != nil {
		return nil, fmt.Errorf("extract symbols: %w", err)
	}
	parseDuration := time.Since(parseStart)
	ingMetrics.parseDuration.Observe(parseDuration.Seconds())
	ingMetrics.filesParsed.Add(float64(len(indexed.ByPath)))

	functions, classes, imports := 0, 0, 0
	for _, symbols := range indexed.ByPath {
		functions += len(symbols.Functions)
		classes += len(symbols.Classes)
		imports += len(symbols.Imports)
	}
	ingMetrics.functionsExtracted.Add(float64(functions))
	ingMetrics.classesExtracted.Add(float64(classes))
	ingMetrics.importsExtracted.Add(float64(imports))

	p.logger.Info("pipeline.parse.complete",
		"files", len(indexed.ByPath),
		"functions", functions,
		"classes", classes,
		"imports", imports,
		"parse_errors", indexed.ParseErrors,
		"symbols", len(indexed.Table),
		"duration_ms", parseDuration.Milliseconds(),
	)

	// Step 3: Link the graph
	linkStart := time.Now()
	set, stats := LinkGraph(indexed.ByPath, indexed.Table, p.config.Rules)
	linkDuration := time.Since(linkStart)
	ingMetrics.linkDuration.Observe(linkDuration.Seconds())
	ingMetrics.callsResolved.Add(float64(stats.CallsResolved))
	ingMetrics.callsDropped.Add(float64(stats.CallsDropped))
	ingMetrics.patternsFound.Add(float64(stats.Patterns))

	p.logger.Info("pipeline.link.complete",
		"nodes", len(set.Nodes),
		"edges", len(set.Edges),
		"calls_resolved", stats.CallsResolved,
		"calls_dropped", stats.CallsDropped,
		"inherits", stats.Inherits,
		"overrides", stats.Overrides,
		"patterns", stats.Patterns,
		"duration_ms", linkDuration.Milliseconds(),
	)

	// Step 4: Write through the store boundary
	writeStart := time.Now()
	if err := set.Apply(ctx, p.store); err != nil {
		return nil, fmt.Errorf("apply update set: %w", err)
	}
	writeDuration := time.Since(writeStart)
	ingMetrics.writeDuration.Observe(writeDuration.Seconds())
	ingMetrics.nodesUpserted.Add(float64(len(set.Nodes)))
	ingMetrics.edgesUpserted.Add(float64(len(set.Edges)))

	totalDuration := time.Since(totalStart)
	ingMetrics.totalDuration.Observe(totalDuration.Seconds())

	result := &RunResult{
		FilesLoaded: len(snap.Files),
		FilesParsed: len(indexed.ByPath),
		ParseErrors: indexed.ParseErrors,
		Symbols:     len(indexed.Table),
		Stats:       stats,
		Nodes:       len(set.Nodes),
		Edges:       len(set.Edges),

		LoadDuration:  loadDuration,
		ParseDuration: parseDuration,
		LinkDuration:  linkDuration,
		WriteDuration: writeDuration,
		TotalDuration: totalDuration,
	}

	p.logger.Info("pipeline.run.complete",
		"files_loaded", result.FilesLoaded,
		"files_parsed", result.FilesParsed,
		"parse_errors", result.ParseErrors,
		"nodes", result.Nodes,
		"edges", result.Edges,
		"duration_ms", totalDuration.Milliseconds(),
	)
	return result, nil
}
