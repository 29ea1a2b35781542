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

import "fmt"

// SourcePosition locates a symbol within its source file (1-indexed lines).
type SourcePosition struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// FunctionSymbol is a function or method extracted from one file.
// Name is the qualified name: "<Class>.<name>" for methods, "<name>" for
// free functions. Qualification is single-level; a function nested inside
// two classes carries only the innermost class name (known limitation,
// kept for compatibility with downstream consumers of the graph).
type FunctionSymbol struct {
	Name     string
	Position SourcePosition
	CodeText string
	IsStatic bool
}

// ClassSymbol is a class definition extracted from one file.
// Bases holds the textual base-class references exactly as written in the
// source; they are resolved against the SymbolTable during linking, not
// here. Attributes holds the left-hand-side targets of assignments found
// directly in the class body (shallow scan, methods are not descended into).
type ClassSymbol struct {
	Name       string
	Position   SourcePosition
	CodeText   string
	Bases      []string
	Attributes []string
}

// FileSymbols is the complete single-file extraction record.
//
// Calls maps a qualified caller name to the raw callee texts found in its
// body, in source order. Callee texts are unresolved: "np.array" stays
// "np.array" until the linker consults the SymbolTable and Aliases.
// Aliases maps an import alias to the module it names ("np" -> "numpy").
type FileSymbols struct {
	Functions []FunctionSymbol
	Classes   []ClassSymbol
	Imports   []string
	Aliases   map[string]string
	Calls     map[string][]string
}

// NewFileSymbols returns an empty record with initialized maps.
func NewFileSymbols() *FileSymbols {
	return &FileSymbols{
		Aliases: make(map[string]string),
		Calls:   make(map[string][]string),
	}
}

// SymbolTable maps a bare qualified name ("Dog.speak", "run") to its
// canonical graph identifier ("pets/dog.py::Dog.speak"). It is built once
// per indexing run over the whole corpus; when two files produce the same
// bare name, the later file in lexical path order wins. That ambiguity is
// accepted and documented, not an error.
type SymbolTable map[string]string

// Resolve looks up a raw callee text against the table, retrying with the
// file's alias map for dotted references. It returns the canonical target
// identifier, or "" when the reference points outside the indexed corpus.
func (t SymbolTable) Resolve(raw string, aliases map[string]string) string {
	if id, ok := t[raw]; ok {
		return id
	}
	base, member, ok := splitQualified(raw)
	if !ok {
		return ""
	}
	module, ok := aliases[base]
	if !ok {
		return ""
	}
	if id, ok := t[module+"."+member]; ok {
		return id
	}
	return ""
}

// splitQualified splits "base.member" at the first dot. "a.b.c" splits
// into ("a", "b.c"), matching the alias substitution rule.
func splitQualified(name string) (base, member string, ok bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i], name[i+1:], true
		}
	}
	return "", "", false
}

// SymbolID builds the canonical graph identifier for a symbol.
func SymbolID(filePath, qualifiedName string) string {
	return filePath + "::" + qualifiedName
}

// AttributeID builds the canonical graph identifier for a class attribute.
func AttributeID(classID, attrName string) string {
	return fmt.Sprintf("%s::%s", classID, attrName)
}
