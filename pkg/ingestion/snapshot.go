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
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// commitRefPattern matches git revision references safe to pass to the
// git CLI (hashes, branch and tag names, HEAD~N forms).
var commitRefPattern = regexp.MustCompile(`^[\w.\-/~^]+$`)

const pythonExtension = ".py"

// SnapshotConfig selects what to load.
type SnapshotConfig struct {
	// Root is the repository root directory.
	Root string
	// Commit, when non-empty, loads file contents from that git revision
	// instead of the working tree.
	Commit string
	// ExcludeGlobs filters out paths before reading (virtualenvs, vendored
	// code, build output).
	ExcludeGlobs []string
	// MaxFileSize skips files larger than this many bytes; 0 disables the
	// limit.
	MaxFileSize int64
}

// Snapshot is the immutable unit of indexing: the set of Python files as
// they existed at one moment, each with content and digest.
type Snapshot struct {
	Root        string
	Commit      string
	Files       []SourceFile
	TotalSize   int64
	SkipReasons map[string]int // Reason -> count (e.g., "excluded", "too_large", "not_python")
}

// SnapshotLoader reads a repository snapshot from disk or from a git
// revision.
type SnapshotLoader struct {
	logger *slog.Logger
}

// NewSnapshotLoader creates a snapshot loader.
func NewSnapshotLoader(logger *slog.Logger) *SnapshotLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotLoader{logger: logger}
}

// Load collects the snapshot described by cfg. Files come back sorted by
// path so everything downstream sees a stable order.
func (sl *SnapshotLoader) Load(ctx context.Context, cfg SnapshotConfig) (*Snapshot, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", root)
	}

	snap := &Snapshot{
		Root:        root,
		Commit:      cfg.Commit,
		SkipReasons: make(map[string]int),
	}

	sl.logger.Info("snapshot.load.start", "root", root, "commit", cfg.Commit)

	if cfg.Commit != "" {
		err = sl.loadFromCommit(ctx, snap, cfg)
	} else {
		err = sl.loadFromWorkingTree(ctx, snap, cfg)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(snap.Files, func(i, j int) bool { return snap.Files[i].Path < snap.Files[j].Path })
	for _, f := range snap.Files {
		snap.TotalSize += int64(len(f.Content))
	}

	sl.logger.Info("snapshot.load.complete",
		"files", len(snap.Files),
		"total_size", snap.TotalSize,
		"skipped", snap.SkipReasons,
	)
	return snap, nil
}

func (sl *SnapshotLoader) loadFromWorkingTree(ctx context.Context, snap *Snapshot, cfg SnapshotConfig) error {
	return filepath.WalkDir(snap.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Log but continue on permission errors
			sl.logger.Warn("snapshot.walk.error", "path", path, "err", err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		relPath, relErr := filepath.Rel(snap.Root, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && shouldExclude(relPath, cfg.ExcludeGlobs) {
				snap.SkipReasons["excluded_dir"]++
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(relPath, pythonExtension) {
			snap.SkipReasons["not_python"]++
			return nil
		}
		if shouldExclude(relPath, cfg.ExcludeGlobs) {
			snap.SkipReasons["excluded"]++
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
			snap.SkipReasons["too_large"]++
			sl.logger.Warn("snapshot.walk.skip_large_file",
				"path", relPath,
				"size", info.Size(),
				"limit", cfg.MaxFileSize,
			)
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			sl.logger.Warn("snapshot.read.error", "path", relPath, "err", readErr)
			snap.SkipReasons["unreadable"]++
			return nil
		}

		snap.Files = append(snap.Files, SourceFile{
			Path:    relPath,
			Content: content,
			Hash:    contentHash(content),
		})
		return nil
	})
}

// loadFromCommit reads file contents out of the git object store so the
// snapshot reflects the named revision exactly, unaffected by uncommitted
// edits in the working tree.
func (sl *SnapshotLoader) loadFromCommit(ctx context.Context, snap *Snapshot, cfg SnapshotConfig) error {
	if !commitRefPattern.MatchString(cfg.Commit) {
		return fmt.Errorf("invalid commit reference: %s", cfg.Commit)
	}

	// #nosec G204 - the commit ref is validated above
	cmd := exec.CommandContext(ctx, "git", "-C", snap.Root, "ls-tree", "-r", "--name-only", cfg.Commit)
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("git ls-tree %s: %w", cfg.Commit, err)
	}

	for _, line := range bytes.Split(out, []byte("\n")) {
		relPath := string(bytes.TrimSpace(line))
		if relPath == "" {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !strings.HasSuffix(relPath, pythonExtension) {
			snap.SkipReasons["not_python"]++
			continue
		}
		if shouldExclude(relPath, cfg.ExcludeGlobs) {
			snap.SkipReasons["excluded"]++
			continue
		}

		// #nosec G204 - ref and path come from git's own listing
		show := exec.CommandContext(ctx, "git", "-C", snap.Root, "cat-file", "blob", cfg.Commit+":"+relPath)
		content, showErr := show.Output()
		if showErr != nil {
			sl.logger.Warn("snapshot.git_read.error", "path", relPath, "err", showErr)
			snap.SkipReasons["unreadable"]++
			continue
		}
		if cfg.MaxFileSize > 0 && int64(len(content)) > cfg.MaxFileSize {
			snap.SkipReasons["too_large"]++
			continue
		}

		snap.Files = append(snap.Files, SourceFile{
			Path:    relPath,
			Content: content,
			Hash:    contentHash(content),
		})
	}
	return nil
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// shouldExclude checks if a path matches any exclude glob pattern.
func shouldExclude(path string, excludeGlobs []string) bool {
	for _, pattern := range excludeGlobs {
		if matchesGlob(path, pattern) {
			return true
		}
	}
	return false
}

// matchesGlob matches a slash-separated relative path against a glob
// pattern. "**" crosses directory separators; "*", "?" and character
// classes match within one path component. A pattern without a leading
// "**" still matches at any depth, so "__pycache__" excludes the
// directory wherever it appears.
func matchesGlob(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)
	pathParts := strings.Split(path, "/")
	patternParts := strings.Split(pattern, "/")

	if matchSegments(pathParts, patternParts) {
		return true
	}
	// Implicit **/ prefix: try the pattern against every path suffix.
	if patternParts[0] != "**" {
		for i := 1; i < len(pathParts); i++ {
			if matchSegments(pathParts[i:], patternParts) {
				return true
			}
		}
	}
	return false
}

func matchSegments(path, pattern []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	if pattern[0] == "**" {
		if len(pattern) == 1 {
			return true
		}
		for i := 0; i <= len(path); i++ {
			if matchSegments(path[i:], pattern[1:]) {
				return true
			}
		}
		return false
	}
	if len(path) == 0 {
		return false
	}
	ok, err := filepath.Match(pattern[0], path[0])
	if err != nil || !ok {
		return false
	}
	// A directory pattern also excludes everything beneath it.
	if len(pattern) == 1 {
		return true
	}
	return matchSegments(path[1:], pattern[1:])
}
