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
	"flag"
	"fmt"
	"os"

	"github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/ui"
	"github.com/kraklabs/codegraph/pkg/graphstore"
)

func runReset(args []string, configPath string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph reset [options]

Wipes the configured graph database, deleting every node and
relationship. This is useful before a full re-index to ensure a
clean slate.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		fmt.Fprintf(os.Stderr, "Error: you must pass --yes to confirm the reset\n")
		fmt.Fprintf(os.Stderr, "This will delete every node and relationship in the graph database.\n")
		os.Exit(1)
	}

	// Load configuration
	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, false)
	}

	ctx := context.Background()
	store, err := graphstore.NewNeo4jStore(ctx, cfg.Neo4j)
	if err != nil {
		errors.FatalError(errors.NewGraphError(
			"Cannot connect to the graph database",
			fmt.Sprintf("Neo4j at %s is unreachable or rejected the credentials", cfg.Neo4j.URI),
			"Check that Neo4j is running and the neo4j section of .codegraph/project.yaml is correct",
			err,
		), false)
	}
	defer func() { _ = store.Close(ctx) }()

	fmt.Printf("Resetting graph for project %s (%s)...\n", cfg.ProjectID, cfg.Neo4j.URI)

	if err := store.DeleteAll(ctx); err != nil {
		errors.FatalError(errors.NewGraphError(
			"Cannot wipe the graph database",
			"The delete-all operation failed",
			"Check the Neo4j logs and try again",
			err,
		), false)
	}

	ui.Success("Reset complete. The graph database is empty.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  codegraph index    Re-index the repository")
}
