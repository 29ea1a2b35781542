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
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// SourceFile is one file of the snapshot handed to the indexer: a
// repo-relative path (forward slashes) plus the file content at snapshot
// time.
type SourceFile struct {
	Path    string
	Content []byte
	// Hash is the content digest computed by the loader, carried along
	// for change reporting. The indexer itself does not interpret it.
	Hash string
}

// IndexResult is the whole-corpus extraction output: per-file symbols
// keyed by path plus the corpus-wide symbol table folded from them.
type IndexResult struct {
	// ByPath maps file path to that file's extracted symbols. Files that
	// failed to parse are absent.
	ByPath map[string]*FileSymbols
	// Table is the corpus symbol table built from ByPath in lexical path
	// order, later files overwriting earlier entries on name collisions.
	Table SymbolTable
	// ParseErrors counts files excluded for syntax errors.
	ParseErrors int
}

// Indexer extracts symbols from a file corpus using a bounded worker pool.
type Indexer struct {
	workers int
	logger  *slog.Logger
}

// NewIndexer returns an Indexer running up to workers concurrent
// extractions. Values below 1 are treated as 1.
func NewIndexer(workers int, logger *slog.Logger) *Indexer {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{workers: workers, logger: logger}
}

// Index extracts symbols from every file and folds the symbol table.
//
// A file that fails to parse is logged and skipped; one malformed file
// never aborts the corpus. The result is independent of worker count and
// scheduling: extraction order does not matter because each file is
// self-contained, and the table fold happens afterwards over sorted
// paths.
func (ix *Indexer) Index(ctx context.Context, files []SourceFile) (*IndexResult, error) {
	result := &IndexResult{
		ByPath: make(map[string]*FileSymbols, len(files)),
		Table:  make(SymbolTable),
	}
	if len(files) == 0 {
		return result, nil
	}

	// For small file sets, use sequential extraction
	if len(files) < 10 || ix.workers <= 1 {
		ix.extractSequential(ctx, files, result)
	} else {
		ix.extractParallel(ctx, files, result)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Table = buildSymbolTable(result.ByPath)
	return result, nil
}

func (ix *Indexer) extractSequential(ctx context.Context, files []SourceFile, result *IndexResult) {
	for _, file := range files {
		select {
		case <-ctx.Done():
			return
		default:
		}

		symbols, err := ExtractSymbols(file.Content)
		if err != nil {
			result.ParseErrors++
			recordParseError()
			ix.logger.Warn("indexer.extract_file.error", "path", file.Path, "err", err)
			continue
		}
		result.ByPath[file.Path] = symbols
	}
}

func (ix *Indexer) extractParallel(ctx context.Context, files []SourceFile, result *IndexResult) {
	jobs := make(chan int, len(files))

	type fileResult struct {
		index   int
		symbols *FileSymbols
		err     error
	}
	resultsChan := make(chan fileResult, len(files))

	var errorCount int32

	var wg sync.WaitGroup
	for w := 0; w < ix.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				symbols, err := ExtractSymbols(files[i].Content)
				if err != nil {
					atomic.AddInt32(&errorCount, 1)
					recordParseError()
					ix.logger.Warn("indexer.extract_file.error", "path", files[i].Path, "err", err)
					resultsChan <- fileResult{index: i, err: err}
					continue
				}
				resultsChan <- fileResult{index: i, symbols: symbols}
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Indexed slots keep the per-file results positionally stable no
	// matter which worker finished first.
	slots := make([]*FileSymbols, len(files))
	for fr := range resultsChan {
		if fr.err != nil {
			continue
		}
		slots[fr.index] = fr.symbols
	}

	for i, symbols := range slots {
		if symbols == nil {
			continue
		}
		result.ByPath[files[i].Path] = symbols
	}
	result.ParseErrors = int(errorCount)
}

// buildSymbolTable folds per-file symbols into the corpus table.
//
// Files are visited in lexical path order and, within a file, functions
// before classes, each in declaration order. When two files declare the
// same bare name the later path wins; that last-write-wins rule is the
// documented collision policy, chosen so the table is a pure function of
// the corpus rather than of extraction scheduling.
func buildSymbolTable(byPath map[string]*FileSymbols) SymbolTable {
	paths := make([]string, 0, len(byPath))
	for path := range byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	table := make(SymbolTable)
	for _, path := range paths {
		symbols := byPath[path]
		for _, fn := range symbols.Functions {
			table[fn.Name] = SymbolID(path, fn.Name)
		}
		for _, class := range symbols.Classes {
			table[class.Name] = SymbolID(path, class.Name)
		}
	}
	return table
}
