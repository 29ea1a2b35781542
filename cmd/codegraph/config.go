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
	"fmt"
	"os"
	"path/filepath"

	"github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/pkg/graphstore"
	"gopkg.in/yaml.v3"
)

// Config is the project configuration loaded from .codegraph/project.yaml.
type Config struct {
	ProjectID string `yaml:"project_id"`

	Indexing IndexingConfig `yaml:"indexing"`

	Neo4j graphstore.Neo4jConfig `yaml:"neo4j"`
}

// IndexingConfig holds indexing-related settings.
type IndexingConfig struct {
	// Exclude lists glob patterns filtered out before parsing.
	Exclude []string `yaml:"exclude"`
	// MaxFileSize skips files larger than this many bytes (0 = no limit).
	MaxFileSize int64 `yaml:"max_file_size"`
	// Workers bounds concurrent file extraction.
	Workers int `yaml:"workers"`
}

// DefaultExcludeGlobs are filtered out of every snapshot unless the user
// overrides the exclude list entirely.
var DefaultExcludeGlobs = []string{
	".git/**",
	".venv/**",
	"venv/**",
	"__pycache__",
	"*.egg-info/**",
	"build/**",
	"dist/**",
	"node_modules/**",
}

// DefaultConfig returns the configuration written by 'codegraph init'.
func DefaultConfig(projectID string) *Config {
	return &Config{
		ProjectID: projectID,
		Indexing: IndexingConfig{
			Exclude:     DefaultExcludeGlobs,
			MaxFileSize: 1024 * 1024,
			Workers:     4,
		},
		Neo4j: graphstore.Neo4jConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
	}
}

// ConfigDir returns the .codegraph directory under the repository root.
func ConfigDir(root string) string {
	return filepath.Join(root, ".codegraph")
}

// ConfigPath returns the project.yaml path under the repository root.
func ConfigPath(root string) string {
	return filepath.Join(ConfigDir(root), "project.yaml")
}

// LoadConfig reads the configuration file. An empty path defaults to
// ./.codegraph/project.yaml.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get current directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError(
				"Cannot load project configuration",
				fmt.Sprintf("The config file %s does not exist", path),
				"Run 'codegraph init' to create a new configuration",
				err,
			)
		}
		return nil, errors.NewConfigError(
			"Cannot read project configuration",
			fmt.Sprintf("Reading %s failed", path),
			"Check file permissions",
			err,
		)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewConfigError(
			"Cannot parse project configuration",
			fmt.Sprintf("The config file %s is not valid YAML", path),
			"Fix the syntax error or re-run 'codegraph init --force'",
			err,
		)
	}

	if cfg.ProjectID == "" {
		return nil, errors.NewConfigError(
			"Invalid project configuration",
			"The project_id field is empty",
			"Set project_id in "+path,
			nil,
		)
	}
	if cfg.Indexing.Workers <= 0 {
		cfg.Indexing.Workers = 4
	}
	return &cfg, nil
}

// SaveConfig writes the configuration file, creating the .codegraph
// directory if needed.
func SaveConfig(root string, cfg *Config) error {
	if err := os.MkdirAll(ConfigDir(root), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}
	return os.WriteFile(ConfigPath(root), data, 0o644)
}
