// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"context"
	"fmt"

	"github.com/kraklabs/codegraph/pkg/graphstore"
)

// Node labels emitted by the linker.
const (
	LabelFile          = "File"
	LabelFunction      = "Function"
	LabelClass         = "Class"
	LabelAttribute     = "Attribute"
	LabelPackage       = "Package"
	LabelDesignPattern = "DesignPattern"
)

// Edge types emitted by the linker.
const (
	EdgeContainsFunction = "CONTAINS_FUNCTION"
	EdgeContainsClass    = "CONTAINS_CLASS"
	EdgeHasAttribute     = "HAS_ATTRIBUTE"
	EdgeInherits         = "INHERITS"
	EdgeOverrides        = "OVERRIDES"
	EdgeImports          = "IMPORTS"
	EdgeCalls            = "CALLS"
	EdgeParticipatesIn   = "PARTICIPATES_IN"
)

// NodeUpsert is one node create-or-merge instruction.
type NodeUpsert struct {
	Label      string
	Properties map[string]any
	// UniqueKey names the property that identifies the node.
	UniqueKey string
}

// EdgeUpsert is one edge create-or-merge instruction between two
// key-matched nodes.
type EdgeUpsert struct {
	SourceLabel string
	SourceKey   string
	SourceValue string
	Type        string
	TargetLabel string
	TargetKey   string
	TargetValue string
	Properties  map[string]any
}

// GraphUpdateSet is the sole artifact that crosses into persistence: the
// ordered batch of node and edge upserts produced by one linking run.
//
// The set is deterministic (two runs over identical input produce an
// identical set) and its upserts are individually idempotent, so repeated
// application through an upsert-by-key store converges instead of
// accumulating duplicates. Duplicate instructions within one set (such as
// a Package node imported by many files) are expected and harmless.
type GraphUpdateSet struct {
	Nodes []NodeUpsert
	Edges []EdgeUpsert
}

// AddNode appends a node upsert.
func (s *GraphUpdateSet) AddNode(label string, props map[string]any, uniqueKey string) {
	s.Nodes = append(s.Nodes, NodeUpsert{Label: label, Properties: props, UniqueKey: uniqueKey})
}

// AddEdge appends an edge upsert.
func (s *GraphUpdateSet) AddEdge(e EdgeUpsert) {
	s.Edges = append(s.Edges, e)
}

// Apply writes the whole set through the store boundary, nodes before
// edges so every edge endpoint exists when the edge is merged. Any store
// write failure is fatal for the run: a partially applied set cannot be
// told apart from a complete one without the error, so it is returned to
// the caller rather than swallowed. Retrying the entire set is safe.
func (s *GraphUpdateSet) Apply(ctx context.Context, store graphstore.Store) error {
	for _, n := range s.Nodes {
		if err := store.UpsertNode(ctx, n.Label, n.Properties, n.UniqueKey); err != nil {
			return fmt.Errorf("upsert %s node: %w", n.Label, err)
		}
	}
	for _, e := range s.Edges {
		err := store.UpsertEdge(ctx, graphstore.EdgeSpec{
			SourceLabel: e.SourceLabel,
			SourceKey:   e.SourceKey,
			SourceValue: e.SourceValue,
			Type:        e.Type,
			TargetLabel: e.TargetLabel,
			TargetKey:   e.TargetKey,
			TargetValue: e.TargetValue,
			Properties:  e.Properties,
		})
		if err != nil {
			return fmt.Errorf("upsert %s edge: %w", e.Type, err)
		}
	}
	return nil
}
