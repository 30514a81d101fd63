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

func Test_UniqueNames_01(t *testing.T) {
	fn := &FnDef{Name: "f", Ret: Unit{}, Body: []Instr{
		Decl{LInt{}, "x"},
		Clear{LInt{}, "x"},
		Decl{LInt{}, "x"},
		Clear{LInt{}, "x"},
	}}
	//
	UniqueNames(fn)
	//
	first := fn.Body[0].(Decl)
	second := fn.Body[2].(Decl)
	//
	if first.Name == second.Name {
		t.Fatal("duplicate declaration names survive")
	}
	// The paired clear follows the rename.
	if kill := fn.Body[3].(Clear); kill.Name != second.Name {
		t.Errorf("clear not renamed with its declaration: %s", kill.Name)
	}
}

func Test_UniqueNames_02(t *testing.T) {
	// Declarations inside branches are renamed apart as well.
	fn := &FnDef{Name: "g", Ret: Unit{}, Body: []Instr{
		Decl{FInt{64}, "t"},
		If{
			Cond: Id{"c", Bool{}},
			Then: []Instr{Decl{FInt{64}, "t"}},
			Rep:  Unit{},
		},
	}}
	//
	UniqueNames(fn)
	//
	var (
		outer  = fn.Body[0].(Decl)
		branch = fn.Body[1].(If)
		inner  = branch.Then[0].(Decl)
	)
	//
	if outer.Name == inner.Name {
		t.Error("shadowed declaration not renamed")
	}
}

func Test_RemoveAlias_01(t *testing.T) {
	// create x; x = y; mutate x; y = x; kill x  ==>  mutate y
	instrs := []Instr{
		Decl{LInt{}, "x"},
		Copy{Dst: LocId{"x", LInt{}}, Src: Id{"y", LInt{}}},
		Funcall{Dst: LocId{"x", LInt{}}, Extern: true, Fn: "add_int", Args: []Val{Id{"x", LInt{}}, Int64Val(1)}},
		Copy{Dst: LocId{"y", LInt{}}, Src: Id{"x", LInt{}}},
		Clear{LInt{}, "x"},
	}
	//
	out := RemoveAlias(instrs)
	//
	if len(out) != 1 {
		t.Fatalf("expected single surviving instruction, got %d", len(out))
	}
	//
	call := out[0].(Funcall)
	//
	if root, _ := RootOf(call.Dst); root != "y" {
		t.Errorf("interior occurrences not renamed: %v", call)
	}
}

func Test_RemoveAlias_02(t *testing.T) {
	// When y is touched in between, the pattern is declined.
	instrs := []Instr{
		Decl{LInt{}, "x"},
		Copy{Dst: LocId{"x", LInt{}}, Src: Id{"y", LInt{}}},
		Funcall{Dst: LocId{"y", LInt{}}, Extern: true, Fn: "undefined_int", Args: nil},
		Copy{Dst: LocId{"y", LInt{}}, Src: Id{"x", LInt{}}},
		Clear{LInt{}, "x"},
	}
	//
	if out := RemoveAlias(instrs); len(out) != len(instrs) {
		t.Error("unsound alias removal applied")
	}
}

func Test_Combine_01(t *testing.T) {
	// create x; create y; mutate y; x = y; kill y  ==>  create x; mutate x
	instrs := []Instr{
		Decl{LInt{}, "x"},
		Decl{LInt{}, "y"},
		Funcall{Dst: LocId{"y", LInt{}}, Extern: true, Fn: "undefined_int", Args: nil},
		Copy{Dst: LocId{"x", LInt{}}, Src: Id{"y", LInt{}}},
		Clear{LInt{}, "y"},
	}
	//
	out := CombineVariables(instrs)
	//
	if len(out) != 2 {
		t.Fatalf("expected two surviving instructions, got %d", len(out))
	}
	//
	call := out[1].(Funcall)
	//
	if root, _ := RootOf(call.Dst); root != "x" {
		t.Errorf("interior occurrences not renamed: %v", call)
	}
}

func Test_Combine_02(t *testing.T) {
	// When x is read in between, the pattern is declined.
	instrs := []Instr{
		Decl{LInt{}, "x"},
		Decl{LInt{}, "y"},
		Funcall{Dst: LocId{"y", LInt{}}, Extern: true, Fn: "add_int", Args: []Val{Id{"x", LInt{}}, Int64Val(1)}},
		Copy{Dst: LocId{"x", LInt{}}, Src: Id{"y", LInt{}}},
		Clear{LInt{}, "y"},
	}
	//
	if out := CombineVariables(instrs); len(out) != len(instrs) {
		t.Error("unsound combination applied")
	}
}

func Test_HoistAlias_01(t *testing.T) {
	// After a reset of a struct local whose next use is a plain copy and
	// which is dead afterwards, the copy becomes an alias.
	var (
		rep    = Struct{Id: "s", Fields: []Field{{"f", LInt{}}}}
		instrs = []Instr{
			Reset{rep, "x"},
			Copy{Dst: LocId{"y", rep}, Src: Id{"x", rep}},
		}
	)
	//
	out := HoistAlias(instrs)
	//
	if _, ok := out[1].(Alias); !ok {
		t.Errorf("expected alias, got %v", out[1])
	}
}

func Test_HoistAlias_02(t *testing.T) {
	// A later use of the local declines the rewrite.
	var (
		rep    = Struct{Id: "s", Fields: []Field{{"f", LInt{}}}}
		instrs = []Instr{
			Reset{rep, "x"},
			Copy{Dst: LocId{"y", rep}, Src: Id{"x", rep}},
			Funcall{Dst: LocId{"u", Unit{}}, Extern: true, Fn: "print", Args: []Val{Id{"x", rep}}},
		}
	)
	//
	out := HoistAlias(instrs)
	//
	if _, ok := out[1].(Alias); ok {
		t.Error("unsound alias hoisting applied")
	}
}
