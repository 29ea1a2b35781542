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

// Package main implements the codegraph CLI for indexing Python
// repositories into a code graph.
//
// Usage:
//
//	codegraph init                Create .codegraph/project.yaml configuration
//	codegraph index               Index the current repository into the graph
//	codegraph reset --yes         Wipe the graph database (destructive!)
package main

import (
	"flag"
	"fmt"
	"os"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// main parses global flags and dispatches to command handlers.
//
// Global flags:
//   - --version: Display version information and exit
//   - --config: Path to .codegraph/project.yaml configuration file
//
// Commands:
//   - init: Create .codegraph/project.yaml configuration
//   - index: Index a repository snapshot into the graph database
//   - reset: Wipe the graph database (destructive!)
func main() {
	// Global flags
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .codegraph/project.yaml (default: ./.codegraph/project.yaml)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `codegraph - Python code graph indexer

codegraph parses a Python repository with Tree-sitter, extracts its
symbols and cross-references, and builds a navigable code graph in
Neo4j: files, functions, classes, inheritance, overrides, imports,
calls and design-pattern participation.

Usage:
  codegraph <command> [options]

Commands:
  init    Create .codegraph/project.yaml configuration
  index   Index the repository into the graph database
  reset   Wipe the graph database (destructive!)

Global Options:
  --config      Path to .codegraph/project.yaml
  --version     Show version and exit

Examples:
  codegraph init                     Create configuration
  codegraph index                    Index the working tree
  codegraph index --commit HEAD~1    Index a specific git revision
  codegraph index --dry-run          Index without a graph database
  codegraph reset --yes              Wipe the graph before a clean re-index

Getting Started:
  1. Initialize configuration:  codegraph init
  2. Start Neo4j and set the connection in .codegraph/project.yaml
  3. Index your repository:     codegraph index

For detailed command help: codegraph <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("codegraph version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs)
	case "index":
		runIndex(cmdArgs, *configPath)
	case "reset":
		runReset(cmdArgs, *configPath)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
