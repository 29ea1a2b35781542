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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexer_BuildsSymbolTable(t *testing.T) {
	files := []SourceFile{
		{Path: "zoo/keeper.py", Content: []byte("def feed():\n    return 1\n")},
		{Path: "pets/dog.py", Content: []byte("class Dog:\n    def bark(self):\n        return 'woof'\n")},
	}

	result, err := NewIndexer(2, nil).Index(context.Background(), files)
	require.NoError(t, err)

	assert.Len(t, result.ByPath, 2)
	assert.Equal(t, 0, result.ParseErrors)
	assert.Equal(t, "zoo/keeper.py::feed", result.Table["feed"])
	assert.Equal(t, "pets/dog.py::Dog", result.Table["Dog"])
	assert.Equal(t, "pets/dog.py::Dog.bark", result.Table["Dog.bark"])
}

func TestIndexer_CollisionLastPathWins(t *testing.T) {
	// Both files declare "shared"; the later path in lexical order wins
	// regardless of the slice order handed to the indexer.
	files := []SourceFile{
		{Path: "b_late.py", Content: []byte("def shared():\n    return 2\n")},
		{Path: "a_early.py", Content: []byte("def shared():\n    return 1\n")},
	}

	result, err := NewIndexer(1, nil).Index(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, "b_late.py::shared", result.Table["shared"])
}

func TestIndexer_SkipsMalformedFiles(t *testing.T) {
	files := []SourceFile{
		{Path: "good.py", Content: []byte("def ok():\n    return 1\n")},
		{Path: "bad.py", Content: []byte("def broken(:\n")},
		{Path: "also_good.py", Content: []byte("class C:\n    pass\n")},
	}

	result, err := NewIndexer(2, nil).Index(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ParseErrors)
	assert.Len(t, result.ByPath, 2)
	assert.NotContains(t, result.ByPath, "bad.py")
	assert.Contains(t, result.Table, "ok")
	assert.Contains(t, result.Table, "C")
}

func TestIndexer_ParallelMatchesSequential(t *testing.T) {
	// Enough files to take the worker-pool path.
	var files []SourceFile
	for i := 0; i < 24; i++ {
		files = append(files, SourceFile{
			Path:    fmt.Sprintf("pkg/mod_%02d.py", i),
			Content: []byte(fmt.Sprintf("def fn_%02d():\n    return %d\n", i, i)),
		})
	}

	sequential, err := NewIndexer(1, nil).Index(context.Background(), files)
	require.NoError(t, err)
	parallel, err := NewIndexer(8, nil).Index(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, sequential.Table, parallel.Table)
	assert.Equal(t, sequential.ByPath, parallel.ByPath)
}

func TestIndexer_EmptyCorpus(t *testing.T) {
	result, err := NewIndexer(4, nil).Index(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.ByPath)
	assert.Empty(t, result.Table)
}

func TestIndexer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []SourceFile{
		{Path: "a.py", Content: []byte("def a():\n    return 1\n")},
	}
	_, err := NewIndexer(1, nil).Index(ctx, files)
	assert.ErrorIs(t, err, context.Canceled)
}
