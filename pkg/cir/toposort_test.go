// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package cir

import (
	"testing"
)

func Test_Toposort_01(t *testing.T) {
	// A definition using another is emitted after it.
	var (
		inner = &StructDef{Id: "inner", Fields: []Field{{"n", FInt{64}}}}
		outer = &StructDef{Id: "outer", Fields: []Field{
			{"i", Struct{Id: "inner", Fields: inner.Fields}},
		}}
	)
	//
	sorted, err := SortTypeDefs([]TypeDef{outer, inner})
	if err != nil {
		t.Fatal(err)
	}
	//
	check_TopoOrder(t, sorted)
}

func Test_Toposort_02(t *testing.T) {
	// Insertion order breaks ties between unrelated definitions.
	var (
		a = &EnumDef{Id: "a", Ctors: []string{"A"}}
		b = &EnumDef{Id: "b", Ctors: []string{"B"}}
		c = &EnumDef{Id: "c", Ctors: []string{"C"}}
	)
	//
	sorted, err := SortTypeDefs([]TypeDef{a, b, c})
	if err != nil {
		t.Fatal(err)
	}
	//
	for i, id := range []string{"a", "b", "c"} {
		if sorted[i].TypeId() != id {
			t.Errorf("insertion order not preserved: %v", sorted)
		}
	}
}

func Test_Toposort_03(t *testing.T) {
	// A genuine cycle is a fatal input error.
	var (
		a = &StructDef{Id: "a", Fields: []Field{{"b", Struct{Id: "b"}}}}
		b = &StructDef{Id: "b", Fields: []Field{{"a", Struct{Id: "a"}}}}
	)
	//
	if _, err := SortTypeDefs([]TypeDef{a, b}); err == nil {
		t.Error("expected cycle detection")
	}
}

func Test_Toposort_04(t *testing.T) {
	// Recursion through a list is not a cycle: the node type indirects
	// through a pointer.
	tree := &VariantDef{Id: "tree", Ctors: []Ctor{
		{"Leaf", LInt{}},
		{"Node", List{Variant{Id: "tree"}}},
	}}
	//
	sorted, err := SortTypeDefs([]TypeDef{tree})
	if err != nil {
		t.Fatal(err)
	}
	//
	if len(sorted) != 1 {
		t.Errorf("definition lost in sorting: %v", sorted)
	}
}

func Test_Toposort_05(t *testing.T) {
	// Deeper chains sort transitively.
	var (
		a = &EnumDef{Id: "a", Ctors: []string{"A"}}
		b = &StructDef{Id: "b", Fields: []Field{{"a", Enum{Id: "a", Ctors: []string{"A"}}}}}
		c = &VariantDef{Id: "c", Ctors: []Ctor{{"C", Struct{Id: "b"}}}}
	)
	//
	sorted, err := SortTypeDefs([]TypeDef{c, b, a})
	if err != nil {
		t.Fatal(err)
	}
	//
	check_TopoOrder(t, sorted)
}

// ===================================================================
// Test Helpers
// ===================================================================

// Every definition must appear after everything it uses.
func check_TopoOrder(t *testing.T, sorted []TypeDef) {
	t.Helper()
	//
	position := map[string]int{}
	//
	for i, def := range sorted {
		position[def.TypeId()] = i
	}
	//
	for _, def := range sorted {
		for _, used := range typeDeps(def) {
			if at, ok := position[used]; ok && at > position[def.TypeId()] {
				t.Errorf("%s used before its definition by %s", used, def.TypeId())
			}
		}
	}
}
