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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// staticMethodMarker is the decorator text fragment that flags a static
// method. This is a textual containment check, not semantic resolution:
// any decorator whose source text contains the marker sets the flag.
const staticMethodMarker = "staticmethod"

// ExtractSymbols parses one file's source text and produces its complete
// FileSymbols record: functions, classes, imports, import aliases and the
// raw (unresolved) call references found in each function body.
//
// The traversal threads an explicit state value through the recursive
// descent instead of sharing a mutable slot, so extraction is reentrant
// and safe to fan out across files. The state carries a single enclosing
// class name, not a stack: a function nested inside two classes is
// qualified by the innermost class only. That single-level qualification
// is preserved deliberately for compatibility with existing graphs.
func ExtractSymbols(source []byte) (*FileSymbols, error) {
	tree, err := Parse(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	ex := &extractor{tree: tree, symbols: NewFileSymbols()}
	ex.walk(tree.Root(), extractState{})
	return ex.symbols, nil
}

// extractState is the traversal state threaded through the descent.
// The zero value means "module level, no enclosing class".
type extractState struct {
	// class is the innermost enclosing class name, or "".
	class string
}

type extractor struct {
	tree    *SyntaxTree
	symbols *FileSymbols
}

// walk visits node and its children depth-first.
func (ex *extractor) walk(node *sitter.Node, state extractState) {
	switch node.Type() {
	case "import_statement":
		ex.recordImport(node)
	case "import_from_statement":
		ex.recordImportFrom(node)
	case "class_definition":
		state.class = ex.recordClass(node)
	case "function_definition":
		ex.recordFunction(node, state)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		ex.walk(node.Child(i), state)
	}
}

// recordImport handles "import a.b" and "import numpy as np" forms.
// Aliased imports record both the module and the alias mapping.
func (ex *extractor) recordImport(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "aliased_import":
			module := ex.tree.Text(child.ChildByFieldName("name"))
			alias := ex.tree.Text(child.ChildByFieldName("alias"))
			if module == "" || alias == "" {
				continue
			}
			ex.symbols.Aliases[alias] = module
			ex.symbols.Imports = append(ex.symbols.Imports, module)
		case "dotted_name":
			ex.symbols.Imports = append(ex.symbols.Imports, ex.tree.Text(child))
		}
	}
}

// recordImportFrom handles "from a.b import c" forms. The source module is
// recorded as the import; aliased names map the alias back to the source
// module (not the imported name), so "from numpy import array as arr"
// yields alias arr -> numpy.
func (ex *extractor) recordImportFrom(node *sitter.Node) {
	module := ex.tree.Text(node.ChildByFieldName("module_name"))
	if module == "" {
		return
	}
	ex.symbols.Imports = append(ex.symbols.Imports, module)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "aliased_import" {
			continue
		}
		alias := ex.tree.Text(child.ChildByFieldName("alias"))
		if alias != "" {
			ex.symbols.Aliases[alias] = module
		}
	}
}

// recordClass captures a class definition and returns its name so the
// caller can thread it into the descent as the new enclosing class.
//
// Base-class references are collected as the identifier-like texts in the
// superclass argument list; resolution is deferred to the linker.
// Attributes are the assignment targets found directly in the class body.
// The scan is shallow: assignments inside methods are instance state the
// extractor does not model.
func (ex *extractor) recordClass(node *sitter.Node) string {
	name := ex.tree.Text(node.ChildByFieldName("name"))
	if name == "" {
		return ""
	}

	var bases []string
	if args := node.ChildByFieldName("superclasses"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			if arg.Type() == "identifier" || arg.Type() == "dotted_name" {
				bases = append(bases, ex.tree.Text(arg))
			}
		}
	}

	var attrs []string
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			stmt := body.NamedChild(i)
			if stmt.Type() != "expression_statement" || stmt.ChildCount() == 0 {
				continue
			}
			assign := stmt.Child(0)
			if assign.Type() != "assignment" {
				continue
			}
			if left := assign.ChildByFieldName("left"); left != nil {
				attrs = append(attrs, ex.tree.Text(left))
			}
		}
	}

	ex.symbols.Classes = append(ex.symbols.Classes, ClassSymbol{
		Name:       name,
		Position:   nodePosition(node),
		CodeText:   ex.tree.Text(node),
		Bases:      bases,
		Attributes: attrs,
	})
	return name
}

// recordFunction captures a function or method definition together with
// the raw call references found anywhere in its subtree.
func (ex *extractor) recordFunction(node *sitter.Node, state extractState) {
	name := ex.tree.Text(node.ChildByFieldName("name"))
	if name == "" {
		return
	}

	qualified := name
	if state.class != "" {
		qualified = state.class + "." + name
	}

	ex.symbols.Functions = append(ex.symbols.Functions, FunctionSymbol{
		Name:     qualified,
		Position: nodePosition(node),
		CodeText: ex.tree.Text(node),
		IsStatic: ex.hasStaticDecorator(node),
	})
	ex.symbols.Calls[qualified] = ex.collectCalls(node, state.class)
}

// hasStaticDecorator reports whether any decorator attached to the
// function contains the static-method marker. Decorators are siblings of
// the definition inside a decorated_definition wrapper node.
func (ex *extractor) hasStaticDecorator(fnNode *sitter.Node) bool {
	parent := fnNode.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return false
	}
	for i := 0; i < int(parent.ChildCount()); i++ {
		child := parent.Child(i)
		if child.Type() == "decorator" && strings.Contains(ex.tree.Text(child), staticMethodMarker) {
			return true
		}
	}
	return false
}

// collectCalls gathers the callee text of every call expression in the
// subtree, in source order. Calls written as "self.<member>" are rewritten
// to "<Class>.<member>" using the lexical enclosing class: self-calls bind
// statically to the class the method is written in, not the runtime type.
// Polymorphic dispatch is intentionally not modeled.
func (ex *extractor) collectCalls(node *sitter.Node, class string) []string {
	calls := []string{}
	ex.findCalls(node, class, &calls)
	return calls
}

func (ex *extractor) findCalls(node *sitter.Node, class string, calls *[]string) {
	if node.Type() == "call" {
		if fn := node.ChildByFieldName("function"); fn != nil {
			text := ex.tree.Text(fn)
			if class != "" && strings.HasPrefix(text, "self.") {
				text = class + "." + strings.TrimPrefix(text, "self.")
			}
			*calls = append(*calls, text)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		ex.findCalls(node.Child(i), class, calls)
	}
}

// nodePosition converts Tree-sitter's 0-indexed points to 1-indexed
// source positions.
func nodePosition(node *sitter.Node) SourcePosition {
	return SourcePosition{
		StartLine: int(node.StartPoint().Row) + 1,
		StartCol:  int(node.StartPoint().Column) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		EndCol:    int(node.EndPoint().Column) + 1,
	}
}
