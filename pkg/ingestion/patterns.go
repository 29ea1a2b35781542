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

import "strings"

// PatternRule is one textual design-pattern heuristic applied to every
// class in the corpus. Match receives the verbatim class source text and
// reports whether the class participates in the pattern.
//
// Rules are deliberately textual, not semantic: they are cheap signals
// for a reviewer to follow up on, tolerant of false positives and
// negatives, and adding one never requires touching the extractor.
type PatternRule struct {
	// Name labels the DesignPattern node ("Singleton").
	Name string
	// Role is stored on the PARTICIPATES_IN edge ("instance_owner").
	Role string
	// Match decides participation from the class source text alone.
	Match func(classText string) bool
}

// PatternMatch records one detected (class, pattern) participation.
type PatternMatch struct {
	ClassID string
	Pattern string
	Role    string
}

// DefaultPatternRules returns the built-in rule set.
func DefaultPatternRules() []PatternRule {
	return []PatternRule{
		{
			Name: "Singleton",
			Role: "instance_owner",
			Match: func(classText string) bool {
				return strings.Contains(classText, "__new__") &&
					strings.Contains(classText, "cls._instance")
			},
		},
	}
}

// DetectPatterns runs every rule over every class in one file's symbols
// and returns the matches in class declaration order.
func DetectPatterns(filePath string, symbols *FileSymbols, rules []PatternRule) []PatternMatch {
	var matches []PatternMatch
	for _, class := range symbols.Classes {
		for _, rule := range rules {
			if rule.Match(class.CodeText) {
				matches = append(matches, PatternMatch{
					ClassID: SymbolID(filePath, class.Name),
					Pattern: rule.Name,
					Role:    rule.Role,
				})
			}
		}
	}
	return matches
}
