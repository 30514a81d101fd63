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
	"strings"
	"testing"
)

func Test_Variants_01(t *testing.T) {
	// A polymorphic constructor used at one concrete representation
	// produces one monomorphic constructor at the supremum.
	var (
		tree = &VariantDef{Id: "tree", Ctors: []Ctor{
			{"Leaf", Poly{"a"}},
			{"Node", List{Variant{Id: "tree"}}},
		}}
		treeRep = Variant{Id: "tree"}
		call    = Funcall{
			Dst:  LocId{"t", treeRep},
			Ctor: true,
			Fn:   "Leaf",
			Args: []Val{Id{"x", FInt{64}}},
		}
		fn      = &FnDef{Name: "build", Ret: Unit{}, Body: []Instr{call}}
		program = &Program{Types: []TypeDef{tree}, Fns: []*FnDef{fn}}
	)
	//
	if err := SpecialiseVariants(program); err != nil {
		t.Fatal(err)
	}
	// The constructor list holds only monomorphic entries.
	for _, c := range tree.Ctors {
		if IsPoly(c.Arg) {
			t.Errorf("constructor %s remains polymorphic", c.Name)
		}
	}
	// The synthesised constructor sits at the supremum of the usage.
	found := false
	//
	for _, c := range tree.Ctors {
		if strings.HasPrefix(c.Name, "Leaf_") {
			found = true
			//
			if !Equal(c.Arg, LInt{}) {
				t.Errorf("expected promotion to arbitrary precision, got %s", c.Arg)
			}
		}
	}
	//
	if !found {
		t.Fatal("no monomorphic constructor synthesised")
	}
	// The call site was rewritten with a representation cast.
	if !callsCtorWith(fn.Body, "Leaf_", LInt{}) {
		t.Errorf("call site not rewritten: %v", fn.Body)
	}
}

func Test_Variants_02(t *testing.T) {
	// Two uses at the same representation share one constructor.
	var (
		box = &VariantDef{Id: "box", Ctors: []Ctor{{"Box", Poly{"a"}}}}
		one = Funcall{Dst: LocId{"b1", Variant{Id: "box"}}, Ctor: true, Fn: "Box", Args: []Val{Id{"x", LInt{}}}}
		two = Funcall{Dst: LocId{"b2", Variant{Id: "box"}}, Ctor: true, Fn: "Box", Args: []Val{Id{"y", LInt{}}}}
		fn  = &FnDef{Name: "pack", Ret: Unit{}, Body: []Instr{one, two}}
		//
		program = &Program{Types: []TypeDef{box}, Fns: []*FnDef{fn}}
	)
	//
	if err := SpecialiseVariants(program); err != nil {
		t.Fatal(err)
	}
	//
	if len(box.Ctors) != 1 {
		t.Errorf("expected a single shared constructor, got %d", len(box.Ctors))
	}
}

func Test_Variants_03(t *testing.T) {
	// An unused polymorphic constructor disappears, leaving only the
	// monomorphic one.
	var (
		opt = &VariantDef{Id: "opt", Ctors: []Ctor{
			{"None", Unit{}},
			{"Some", Poly{"a"}},
		}}
		program = &Program{Types: []TypeDef{opt}}
	)
	//
	if err := SpecialiseVariants(program); err != nil {
		t.Fatal(err)
	}
	//
	if len(opt.Ctors) != 1 || opt.Ctors[0].Name != "None" {
		t.Errorf("expected only the monomorphic constructor, got %v", opt.Ctors)
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func callsCtorWith(instrs []Instr, prefix string, rep Rep) bool {
	var stack = append([]Instr{}, instrs...)
	//
	for len(stack) > 0 {
		var next Instr
		//
		next, stack = stack[len(stack)-1], stack[:len(stack)-1]
		//
		switch next := next.(type) {
		case Funcall:
			if strings.HasPrefix(next.Fn, prefix) && Equal(next.Args[0].RepOf(), rep) {
				return true
			}
		case If:
			stack = append(stack, next.Then...)
			stack = append(stack, next.Else...)
		case Block:
			stack = append(stack, next.Body...)
		case TryBlock:
			stack = append(stack, next.Body...)
		}
	}
	//
	return false
}
