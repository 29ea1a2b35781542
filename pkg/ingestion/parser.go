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

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ParseError reports a file whose source could not be parsed into a usable
// syntax tree. Callers at the corpus level catch it, log the file identity
// and move on; it never aborts a whole-corpus run.
type ParseError struct {
	// ErrorCount is the number of ERROR nodes Tree-sitter produced.
	ErrorCount int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax errors in source (%d error nodes)", e.ErrorCount)
}

// SyntaxTree is an immutable parse result. It owns the underlying
// Tree-sitter tree and the source bytes it indexes into; it is scoped to
// the extraction of a single file and must be closed afterwards.
type SyntaxTree struct {
	tree   *sitter.Tree
	source []byte
}

// Root returns the root node of the tree.
func (t *SyntaxTree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Text returns the verbatim source text covered by node.
func (t *SyntaxTree) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(t.source[node.StartByte():node.EndByte()])
}

// Close releases the Tree-sitter tree.
func (t *SyntaxTree) Close() {
	t.tree.Close()
}

// Parse parses Python source text into a SyntaxTree.
//
// A fresh Tree-sitter parser is created per call: parser instances are not
// safe for concurrent use, and per-call construction keeps Parse a pure
// function of its input so file extraction can fan out across workers.
//
// Tree-sitter itself is error-tolerant and always yields a tree; Parse
// converts trees containing ERROR nodes into a *ParseError so malformed
// files are excluded from the corpus instead of contributing partial,
// misleading symbols.
func Parse(source []byte) (*SyntaxTree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		count := countErrorNodes(root)
		tree.Close()
		return nil, &ParseError{ErrorCount: count}
	}

	return &SyntaxTree{tree: tree, source: source}, nil
}

// countErrorNodes counts ERROR nodes in the subtree rooted at node.
func countErrorNodes(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	count := 0
	if node.Type() == "ERROR" || node.IsMissing() {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrorNodes(node.Child(i))
	}
	return count
}
