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

import "testing"

func TestSymbolTableResolve(t *testing.T) {
	table := SymbolTable{
		"feed":           "zoo/keeper.py::feed",
		"Dog.bark":       "pets/dog.py::Dog.bark",
		"mathlib.square": "vendor/mathlib.py::mathlib.square",
	}
	aliases := map[string]string{"ml": "mathlib"}

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"exact bare name", "feed", "zoo/keeper.py::feed"},
		{"exact qualified name", "Dog.bark", "pets/dog.py::Dog.bark"},
		{"alias substitution", "ml.square", "vendor/mathlib.py::mathlib.square"},
		{"alias without table entry", "ml.cube", ""},
		{"unknown alias", "np.array", ""},
		{"unknown bare name", "missing", ""},
		{"dotted without alias", "animal.speak", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Resolve(tt.raw, aliases)
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSymbolTableResolve_AliasSplitsAtFirstDot(t *testing.T) {
	// "pkg.sub.fn" splits into ("pkg", "sub.fn"): only the leading
	// segment is treated as a candidate alias.
	table := SymbolTable{"mypkg.sub.fn": "src/mypkg.py::mypkg.sub.fn"}
	aliases := map[string]string{"mp": "mypkg"}

	got := table.Resolve("mp.sub.fn", aliases)
	want := "src/mypkg.py::mypkg.sub.fn"
	if got != want {
		t.Errorf("Resolve(mp.sub.fn) = %q, want %q", got, want)
	}
}

func TestSymbolID(t *testing.T) {
	if got := SymbolID("pets/dog.py", "Dog.bark"); got != "pets/dog.py::Dog.bark" {
		t.Errorf("SymbolID = %q", got)
	}
	if got := AttributeID("pets/dog.py::Dog", "legs"); got != "pets/dog.py::Dog::legs" {
		t.Errorf("AttributeID = %q", got)
	}
}
