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
	"regexp"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// identRe validates labels, relationship types and property keys before
// they are interpolated into Cypher. Values always travel as parameters;
// identifiers cannot, so they are restricted to a safe character set.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Neo4jConfig holds the connection settings for a Neo4j graph database.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Neo4jStore is the Store implementation backed by a Neo4j database.
// All writes are MERGE-based so replaying the same update set converges
// to the same graph.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore connects to the configured Neo4j instance and verifies
// the connection before returning.
func NewNeo4jStore(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j at %s: %w", cfg.URI, err)
	}
	return &Neo4jStore{driver: driver, database: cfg.Database}, nil
}

// UpsertNode implements Store. The node is matched on the unique key
// property; on create all properties are set, on match the new values
// overwrite existing ones and extra properties are preserved.
func (s *Neo4jStore) UpsertNode(ctx context.Context, label string, properties map[string]any, uniqueKey string) error {
	if !identRe.MatchString(label) {
		return fmt.Errorf("invalid node label %q", label)
	}
	if !identRe.MatchString(uniqueKey) {
		return fmt.Errorf("invalid unique key %q", uniqueKey)
	}
	keyVal, ok := properties[uniqueKey]
	if !ok {
		return fmt.Errorf("node properties missing unique key %q", uniqueKey)
	}

	query := fmt.Sprintf(
		"MERGE (n:%s {%s: $keyValue}) ON CREATE SET n = $props ON MATCH SET n += $props",
		label, uniqueKey,
	)
	params := map[string]any{"keyValue": keyVal, "props": properties}
	return s.write(ctx, query, params)
}

// UpsertEdge implements Store. Both endpoints are matched on their unique
// keys; a missing endpoint makes the write a no-op rather than an error,
// matching MERGE-after-MATCH semantics.
func (s *Neo4jStore) UpsertEdge(ctx context.Context, edge EdgeSpec) error {
	for _, ident := range []string{edge.SourceLabel, edge.SourceKey, edge.Type, edge.TargetLabel, edge.TargetKey} {
		if !identRe.MatchString(ident) {
			return fmt.Errorf("invalid identifier %q in edge spec", ident)
		}
	}

	query := fmt.Sprintf(
		"MATCH (a:%s {%s: $sourceValue}) MATCH (b:%s {%s: $targetValue}) MERGE (a)-[r:%s]->(b) SET r += $props",
		edge.SourceLabel, edge.SourceKey, edge.TargetLabel, edge.TargetKey, edge.Type,
	)
	props := edge.Properties
	if props == nil {
		props = map[string]any{}
	}
	params := map[string]any{
		"sourceValue": edge.SourceValue,
		"targetValue": edge.TargetValue,
		"props":       props,
	}
	return s.write(ctx, query, params)
}

// DeleteAll implements Store. It wipes every node and relationship in the
// configured database.
func (s *Neo4jStore) DeleteAll(ctx context.Context) error {
	return s.write(ctx, "MATCH (n) DETACH DELETE n", nil)
}

// Close implements Store.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) write(ctx context.Context, query string, params map[string]any) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return nil, result.Err()
	})
	if err != nil {
		return fmt.Errorf("neo4j write: %w", err)
	}
	return nil
}
