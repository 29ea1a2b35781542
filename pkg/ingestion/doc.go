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

// Package ingestion turns a Python repository snapshot into a code graph.
//
// The package parses Python source with Tree-sitter, extracts symbols and
// call references per file, folds a corpus-wide symbol table, links
// cross-file references into nodes and edges, and writes the result
// through the graphstore boundary.
//
// # Pipeline Overview
//
// An indexing run has four stages:
//
//  1. Load: collect the snapshot of .py files (working tree or a git
//     revision), filtered by exclude globs and size limits
//  2. Extract: parse each file into symbols using a bounded worker pool;
//     malformed files are skipped, never fatal
//  3. Link: fold the symbol table over sorted paths and resolve calls,
//     inheritance, overrides, imports and design patterns into one
//     GraphUpdateSet
//  4. Write: apply the set through a graphstore.Store, nodes before edges
//
// The whole run is deterministic: the same snapshot always produces the
// same update set, and applying the set twice converges instead of
// duplicating.
//
// # Quick Start
//
// Create and run an indexing pipeline against an in-memory store:
//
//	store := graphstore.NewMemoryStore()
//	pipeline := ingestion.NewPipeline(ingestion.PipelineConfig{
//	    Snapshot: ingestion.SnapshotConfig{
//	        Root:         "/path/to/repo",
//	        ExcludeGlobs: []string{".venv/**", "__pycache__"},
//	    },
//	    Workers: 4,
//	}, store, logger)
//
//	result, err := pipeline.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Indexed %d files, %d nodes, %d edges\n",
//	    result.FilesParsed, result.Nodes, result.Edges)
//
// # Symbol Resolution
//
// Call references resolve in two steps against the corpus symbol table:
// an exact lookup of the callee text, then a retry with the file's import
// aliases substituted ("np.array" resolves through "np" -> "numpy" to
// "numpy.array"). References that still miss point outside the corpus
// and are dropped, counted but never errored.
//
// Name collisions across files follow last-write-wins in lexical path
// order. Methods are qualified by their innermost enclosing class only.
//
// # Pattern Detection
//
// Textual heuristics flag design-pattern participation per class; the
// built-in rule set detects the Singleton idiom. Rules are pluggable
// through PipelineConfig.Rules.
//
// Prometheus metrics are also exported for monitoring production systems.
package ingestion
