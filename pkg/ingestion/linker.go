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
	"path"
	"sort"
	"strings"
)

// LinkStats summarizes one linking run.
type LinkStats struct {
	Files         int
	Functions     int
	Classes       int
	Attributes    int
	Packages      int
	CallsResolved int
	CallsDropped  int
	Inherits      int
	Overrides     int
	Patterns      int
}

// linker accumulates the update set for one corpus.
type linker struct {
	set   *GraphUpdateSet
	table SymbolTable
	rules []PatternRule
	stats LinkStats
}

// LinkGraph resolves the per-file symbols against the corpus table and
// produces the complete GraphUpdateSet plus run statistics.
//
// Files are processed in lexical path order and symbols in declaration
// order, so the set is byte-for-byte deterministic for a given corpus.
// Cross-file references (base classes, call targets) that do not resolve
// against the table are dropped, not errored: a reference to code outside
// the indexed corpus is ordinary, expected input.
func LinkGraph(byPath map[string]*FileSymbols, table SymbolTable, rules []PatternRule) (*GraphUpdateSet, LinkStats) {
	lk := &linker{set: &GraphUpdateSet{}, table: table, rules: rules}

	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, filePath := range paths {
		lk.linkFile(filePath, byPath[filePath])
	}
	return lk.set, lk.stats
}

func (lk *linker) linkFile(filePath string, symbols *FileSymbols) {
	lk.set.AddNode(LabelFile, map[string]any{
		"path": filePath,
		"name": path.Base(filePath),
	}, "path")
	lk.stats.Files++

	for _, fn := range symbols.Functions {
		lk.linkFunction(filePath, fn)
	}
	for _, class := range symbols.Classes {
		lk.linkClass(filePath, class, symbols)
	}
	for _, module := range symbols.Imports {
		lk.linkImport(filePath, module)
	}
	lk.linkCalls(filePath, symbols)
	lk.linkPatterns(filePath, symbols)
}

func (lk *linker) linkFunction(filePath string, fn FunctionSymbol) {
	id := SymbolID(filePath, fn.Name)
	lk.set.AddNode(LabelFunction, map[string]any{
		"id":           id,
		"name":         fn.Name,
		"lineno":       fn.Position.StartLine,
		"end_lineno":   fn.Position.EndLine,
		"file_path":    filePath,
		"code_snippet": fn.CodeText,
		"is_static":    fn.IsStatic,
	}, "id")
	lk.set.AddEdge(EdgeUpsert{
		SourceLabel: LabelFile, SourceKey: "path", SourceValue: filePath,
		Type:        EdgeContainsFunction,
		TargetLabel: LabelFunction, TargetKey: "id", TargetValue: id,
	})
	lk.stats.Functions++
}

func (lk *linker) linkClass(filePath string, class ClassSymbol, symbols *FileSymbols) {
	id := SymbolID(filePath, class.Name)
	lk.set.AddNode(LabelClass, map[string]any{
		"id":           id,
		"name":         class.Name,
		"lineno":       class.Position.StartLine,
		"end_lineno":   class.Position.EndLine,
		"file_path":    filePath,
		"code_snippet": class.CodeText,
	}, "id")
	lk.set.AddEdge(EdgeUpsert{
		SourceLabel: LabelFile, SourceKey: "path", SourceValue: filePath,
		Type:        EdgeContainsClass,
		TargetLabel: LabelClass, TargetKey: "id", TargetValue: id,
	})
	lk.stats.Classes++

	for _, attr := range class.Attributes {
		attrID := AttributeID(id, attr)
		lk.set.AddNode(LabelAttribute, map[string]any{
			"id":   attrID,
			"name": attr,
		}, "id")
		lk.set.AddEdge(EdgeUpsert{
			SourceLabel: LabelClass, SourceKey: "id", SourceValue: id,
			Type:        EdgeHasAttribute,
			TargetLabel: LabelAttribute, TargetKey: "id", TargetValue: attrID,
		})
		lk.stats.Attributes++
	}

	for _, base := range class.Bases {
		lk.linkInheritance(filePath, class, id, base, symbols)
	}
}

// linkInheritance emits the INHERITS edge for one resolvable base class
// and the OVERRIDES edges for every method of the subclass that the base
// also declares. Override detection is name-based: "Dog.speak" overrides
// "Animal.speak" when both exist in the table, regardless of signatures.
func (lk *linker) linkInheritance(filePath string, class ClassSymbol, classID, base string, symbols *FileSymbols) {
	baseID, ok := lk.table[base]
	if !ok {
		return
	}
	lk.set.AddEdge(EdgeUpsert{
		SourceLabel: LabelClass, SourceKey: "id", SourceValue: classID,
		Type:        EdgeInherits,
		TargetLabel: LabelClass, TargetKey: "id", TargetValue: baseID,
	})
	lk.stats.Inherits++

	prefix := class.Name + "."
	for _, fn := range symbols.Functions {
		if !strings.HasPrefix(fn.Name, prefix) {
			continue
		}
		method := strings.TrimPrefix(fn.Name, prefix)
		baseMethodID, ok := lk.table[base+"."+method]
		if !ok {
			continue
		}
		lk.set.AddEdge(EdgeUpsert{
			SourceLabel: LabelFunction, SourceKey: "id", SourceValue: SymbolID(filePath, fn.Name),
			Type:        EdgeOverrides,
			TargetLabel: LabelFunction, TargetKey: "id", TargetValue: baseMethodID,
		})
		lk.stats.Overrides++
	}
}

// linkImport emits the Package node and the IMPORTS edge. Package nodes
// are keyed by name alone, so many files importing "numpy" converge on a
// single node; the duplicate upserts are absorbed by the store.
func (lk *linker) linkImport(filePath, module string) {
	lk.set.AddNode(LabelPackage, map[string]any{"name": module}, "name")
	lk.set.AddEdge(EdgeUpsert{
		SourceLabel: LabelFile, SourceKey: "path", SourceValue: filePath,
		Type:        EdgeImports,
		TargetLabel: LabelPackage, TargetKey: "name", TargetValue: module,
	})
	lk.stats.Packages++
}

// linkCalls resolves each caller's raw callee references in two steps
// (exact table lookup, then alias substitution) and emits CALLS edges for
// the resolutions. Unresolvable references are counted and dropped; they
// point at the standard library, third-party packages or dynamic
// constructs the corpus does not contain.
func (lk *linker) linkCalls(filePath string, symbols *FileSymbols) {
	callers := make([]string, 0, len(symbols.Calls))
	for caller := range symbols.Calls {
		callers = append(callers, caller)
	}
	sort.Strings(callers)

	for _, caller := range callers {
		callerID := SymbolID(filePath, caller)
		for _, raw := range symbols.Calls[caller] {
			targetID := lk.table.Resolve(raw, symbols.Aliases)
			if targetID == "" {
				lk.stats.CallsDropped++
				continue
			}
			lk.set.AddEdge(EdgeUpsert{
				SourceLabel: LabelFunction, SourceKey: "id", SourceValue: callerID,
				Type:        EdgeCalls,
				TargetLabel: LabelFunction, TargetKey: "id", TargetValue: targetID,
			})
			lk.stats.CallsResolved++
		}
	}
}

func (lk *linker) linkPatterns(filePath string, symbols *FileSymbols) {
	for _, match := range DetectPatterns(filePath, symbols, lk.rules) {
		lk.set.AddNode(LabelDesignPattern, map[string]any{"name": match.Pattern}, "name")
		lk.set.AddEdge(EdgeUpsert{
			SourceLabel: LabelClass, SourceKey: "id", SourceValue: match.ClassID,
			Type:        EdgeParticipatesIn,
			TargetLabel: LabelDesignPattern, TargetKey: "name", TargetValue: match.Pattern,
			Properties:  map[string]any{"role": match.Role},
		})
		lk.stats.Patterns++
	}
}
