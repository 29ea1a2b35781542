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

package graphstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is the reference Store implementation: a process-local map
// with upsert-by-key semantics. It backs tests (idempotence properties
// are asserted against it) and dry-run indexing where no external graph
// database is configured.
type MemoryStore struct {
	mu sync.Mutex
	// nodes: label -> unique key value -> properties
	nodes map[string]map[string]map[string]any
	// edges: identity key -> properties
	edges map[string]map[string]any
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[string]map[string]map[string]any),
		edges: make(map[string]map[string]any),
	}
}

// UpsertNode implements Store.
func (s *MemoryStore) UpsertNode(ctx context.Context, label string, properties map[string]any, uniqueKey string) error {
	keyVal, ok := properties[uniqueKey]
	if !ok {
		return fmt.Errorf("node properties missing unique key %q", uniqueKey)
	}
	key, ok := keyVal.(string)
	if !ok {
		return fmt.Errorf("unique key %q must be a string, got %T", uniqueKey, keyVal)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byKey, ok := s.nodes[label]
	if !ok {
		byKey = make(map[string]map[string]any)
		s.nodes[label] = byKey
	}
	existing, ok := byKey[key]
	if !ok {
		existing = make(map[string]any, len(properties))
		byKey[key] = existing
	}
	for k, v := range properties {
		existing[k] = v
	}
	return nil
}

// UpsertEdge implements Store. The edge identity is the full
// (source, type, target) tuple; properties merge with new values winning.
// An edge whose endpoint is missing is a silent no-op, matching
// MATCH-then-MERGE semantics in a graph database: the write simply binds
// no rows.
func (s *MemoryStore) UpsertEdge(ctx context.Context, edge EdgeSpec) error {
	id := edgeIdentity(edge)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookupNode(edge.SourceLabel, edge.SourceValue); !ok {
		return nil
	}
	if _, ok := s.lookupNode(edge.TargetLabel, edge.TargetValue); !ok {
		return nil
	}

	existing, ok := s.edges[id]
	if !ok {
		existing = make(map[string]any, len(edge.Properties))
		s.edges[id] = existing
	}
	for k, v := range edge.Properties {
		existing[k] = v
	}
	return nil
}

// DeleteAll implements Store.
func (s *MemoryStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]map[string]map[string]any)
	s.edges = make(map[string]map[string]any)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// lookupNode must be called with the lock held.
func (s *MemoryStore) lookupNode(label, key string) (map[string]any, bool) {
	byKey, ok := s.nodes[label]
	if !ok {
		return nil, false
	}
	props, ok := byKey[key]
	return props, ok
}

func edgeIdentity(edge EdgeSpec) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", edge.SourceLabel, edge.SourceValue, edge.Type, edge.TargetLabel, edge.TargetValue)
}

// NodeCount returns the number of nodes with the given label.
func (s *MemoryStore) NodeCount(label string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes[label])
}

// EdgeCount returns the number of edges with the given type.
func (s *MemoryStore) EdgeCount(edgeType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id := range s.edges {
		if edgeTypeOf(id) == edgeType {
			count++
		}
	}
	return count
}

// TotalNodes returns the number of nodes across all labels.
func (s *MemoryStore) TotalNodes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, byKey := range s.nodes {
		total += len(byKey)
	}
	return total
}

// TotalEdges returns the number of edges across all types.
func (s *MemoryStore) TotalEdges() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.edges)
}

// Node returns a copy of the properties of the node with the given label
// and unique key value, or nil when absent.
func (s *MemoryStore) Node(label, key string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	props, ok := s.lookupNode(label, key)
	if !ok {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// HasEdge reports whether an edge of the given type exists between the
// two key-matched nodes.
func (s *MemoryStore) HasEdge(sourceLabel, sourceValue, edgeType, targetLabel, targetValue string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.edges[edgeIdentity(EdgeSpec{
		SourceLabel: sourceLabel,
		SourceValue: sourceValue,
		Type:        edgeType,
		TargetLabel: targetLabel,
		TargetValue: targetValue,
	})]
	return ok
}

// EdgeProperties returns a copy of the properties of the matching edge,
// or nil when the edge does not exist.
func (s *MemoryStore) EdgeProperties(sourceLabel, sourceValue, edgeType, targetLabel, targetValue string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	props, ok := s.edges[edgeIdentity(EdgeSpec{
		SourceLabel: sourceLabel,
		SourceValue: sourceValue,
		Type:        edgeType,
		TargetLabel: targetLabel,
		TargetValue: targetValue,
	})]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func edgeTypeOf(identity string) string {
	// identity format: srcLabel|srcValue|type|tgtLabel|tgtValue
	start := -1
	seen := 0
	for i := 0; i < len(identity); i++ {
		if identity[i] != '|' {
			continue
		}
		seen++
		if seen == 2 {
			start = i + 1
		}
		if seen == 3 {
			return identity[start:i]
		}
	}
	return ""
}
