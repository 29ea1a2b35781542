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
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/codegraph/internal/ui"
)

// runInit executes the 'init' CLI command, creating a
// .codegraph/project.yaml configuration file.
//
// Flags:
//   - --force: Overwrite existing configuration (default: false)
//   - -y: Non-interactive mode, use all defaults (default: false)
//   - --project-id: Project identifier (default: directory name)
//   - --neo4j-uri: Neo4j connection URI
//   - --neo4j-user: Neo4j username
//   - --neo4j-password: Neo4j password
//
// Examples:
//
//	codegraph init                             Interactive setup
//	codegraph init -y                          Use all defaults
//	codegraph init --neo4j-uri bolt://db:7687  Point at a remote Neo4j
func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite existing configuration")
	nonInteractive := fs.Bool("y", false, "Non-interactive mode (use defaults)")
	projectID := fs.String("project-id", "", "Project identifier (default: directory name)")
	neo4jURI := fs.String("neo4j-uri", "", "Neo4j connection URI (default: bolt://localhost:7687)")
	neo4jUser := fs.String("neo4j-user", "", "Neo4j username (default: neo4j)")
	neo4jPassword := fs.String("neo4j-password", "", "Neo4j password")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph init [options]

Creates .codegraph/project.yaml configuration file.

Examples:
  codegraph init -y                          # Non-interactive with defaults
  codegraph init --neo4j-uri bolt://db:7687  # Remote Neo4j

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get current directory: %v\n", err)
		os.Exit(1)
	}

	configPath := ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Use --force to overwrite.\n", configPath)
		os.Exit(1)
	}

	id := *projectID
	if id == "" {
		id = filepath.Base(cwd)
	}
	cfg := DefaultConfig(id)
	if *neo4jURI != "" {
		cfg.Neo4j.URI = *neo4jURI
	}
	if *neo4jUser != "" {
		cfg.Neo4j.Username = *neo4jUser
	}
	if *neo4jPassword != "" {
		cfg.Neo4j.Password = *neo4jPassword
	}

	if !*nonInteractive {
		reader := bufio.NewReader(os.Stdin)
		cfg.ProjectID = prompt(reader, "Project ID", cfg.ProjectID)
		cfg.Neo4j.URI = prompt(reader, "Neo4j URI", cfg.Neo4j.URI)
		cfg.Neo4j.Username = prompt(reader, "Neo4j username", cfg.Neo4j.Username)
		if cfg.Neo4j.Password == "" {
			cfg.Neo4j.Password = prompt(reader, "Neo4j password", "")
		}
	}

	if err := SaveConfig(cwd, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot write configuration: %v\n", err)
		os.Exit(1)
	}

	ui.Successf("Created %s", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Start Neo4j (or adjust the neo4j section of the config)")
	fmt.Println("  2. Run: codegraph index")
}

// prompt reads one line from the user, falling back to def on empty input.
func prompt(reader *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return def
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}
