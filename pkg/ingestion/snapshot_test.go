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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates a file tree under a temp dir and returns the root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestSnapshotLoader_WorkingTree(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app.py":        "def main():\n    return 0\n",
		"pkg/models.py": "class User:\n    pass\n",
		"README.md":     "# readme\n",
		"venv/lib.py":   "IGNORED = True\n",
	})

	snap, err := NewSnapshotLoader(nil).Load(context.Background(), SnapshotConfig{
		Root:         root,
		ExcludeGlobs: []string{"venv/**"},
	})
	require.NoError(t, err)

	paths := make([]string, 0, len(snap.Files))
	for _, f := range snap.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"app.py", "pkg/models.py"}, paths, "sorted, filtered to .py")
	assert.Equal(t, 1, snap.SkipReasons["not_python"])
	assert.Equal(t, 1, snap.SkipReasons["excluded_dir"])

	for _, f := range snap.Files {
		assert.Len(t, f.Hash, 64, "sha256 hex digest")
		assert.NotEmpty(t, f.Content)
	}
}

func TestSnapshotLoader_MaxFileSize(t *testing.T) {
	root := writeTree(t, map[string]string{
		"small.py": "x = 1\n",
		"big.py":   "# " + string(make([]byte, 4096)) + "\n",
	})

	snap, err := NewSnapshotLoader(nil).Load(context.Background(), SnapshotConfig{
		Root:        root,
		MaxFileSize: 1024,
	})
	require.NoError(t, err)

	require.Len(t, snap.Files, 1)
	assert.Equal(t, "small.py", snap.Files[0].Path)
	assert.Equal(t, 1, snap.SkipReasons["too_large"])
}

func TestSnapshotLoader_MissingRoot(t *testing.T) {
	_, err := NewSnapshotLoader(nil).Load(context.Background(), SnapshotConfig{
		Root: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	assert.Error(t, err)
}

func TestSnapshotLoader_InvalidCommitRef(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "x = 1\n"})

	_, err := NewSnapshotLoader(nil).Load(context.Background(), SnapshotConfig{
		Root:   root,
		Commit: "HEAD; rm -rf /",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid commit reference")
}

func TestMatchesGlob(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		want    bool
	}{
		{"venv/lib/site.py", "venv/**", true},
		{"src/venv/lib/site.py", "venv/**", true},
		{"src/app.py", "venv/**", false},
		{"pkg/__pycache__/mod.cpython-312.pyc", "__pycache__", true},
		{"__pycache__", "__pycache__", true},
		{"a/b/test_mod.py", "**/test_*.py", true},
		{"test_mod.py", "**/test_*.py", true},
		{"a/b/mod.py", "**/test_*.py", false},
		{"build/out.py", "build/**", true},
		{"dist/x/y.py", "dist/**", true},
		{"notes.txt", "*.txt", true},
		{"deep/notes.txt", "*.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.path, func(t *testing.T) {
			if got := matchesGlob(tt.path, tt.pattern); got != tt.want {
				t.Errorf("matchesGlob(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
			}
		})
	}
}
