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

// Package graphstore defines the persistence boundary for the code graph.
//
// The whole contract is two idempotent operations: UpsertNode and
// UpsertEdge. Create-if-absent-else-merge semantics (new property values
// win on conflict) make repeated and concurrent application converge to
// the same state, which is what lets indexing runs recompute from scratch
// instead of diffing. Any directed-labeled-graph store offering
// upsert-by-key can satisfy the interface; this package ships an
// in-memory implementation and a Neo4j implementation.
package graphstore

import "context"

// EdgeSpec identifies an edge between two key-matched nodes, plus the
// properties to merge onto it.
type EdgeSpec struct {
	SourceLabel string
	SourceKey   string
	SourceValue string
	Type        string
	TargetLabel string
	TargetKey   string
	TargetValue string
	Properties  map[string]any
}

// Store is the idempotent upsert sink for graph nodes and edges.
//
// Implementations must tolerate redundant and concurrent invocation:
// upserting the same node or edge twice, from any number of goroutines,
// must leave the store in the same state as upserting it once.
type Store interface {
	// UpsertNode creates the node if no node with properties[uniqueKey]
	// exists under label, otherwise merges properties into the existing
	// node with new values winning on conflict.
	UpsertNode(ctx context.Context, label string, properties map[string]any, uniqueKey string) error

	// UpsertEdge creates the edge if absent between the two key-matched
	// nodes, otherwise merges the edge properties. Both endpoints must
	// already exist.
	UpsertEdge(ctx context.Context, edge EdgeSpec) error

	// DeleteAll removes every node and edge. Destructive; used by the
	// reset command to avoid cross-run contamination.
	DeleteAll(ctx context.Context) error

	// Close releases the underlying connection or resources.
	Close(ctx context.Context) error
}
