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
package isa

import (
	"testing"

	"github.com/consensys/go-isagen/pkg/cir"
)

func Test_Lower_01(t *testing.T) {
	// Primitive named types.
	check_Lower(t, NamedType{"bit"}, cir.Bit{})
	check_Lower(t, NamedType{"bool"}, cir.Bool{})
	check_Lower(t, NamedType{"int"}, cir.LInt{})
	check_Lower(t, NamedType{"nat"}, cir.LInt{})
	check_Lower(t, NamedType{"unit"}, cir.Unit{})
	check_Lower(t, NamedType{"string"}, cir.String{})
	check_Lower(t, NamedType{"real"}, cir.Real{})
}

func Test_Lower_02(t *testing.T) {
	// Literal range bounds within the machine range.
	check_Lower(t, RangeType{Num(0), Num(255)}, cir.FInt{Width: 64})
	check_Lower(t, RangeType{Num(-128), Num(127)}, cir.FInt{Width: 64})
	check_Lower(t, AtomType{Num(42)}, cir.FInt{Width: 64})
	check_Lower(t, ItselfType{Num(7)}, cir.FInt{Width: 64})
	check_Lower(t, ImplicitType{Num(3)}, cir.FInt{Width: 64})
	check_Lower(t, AtomBoolType{}, cir.Bool{})
}

func Test_Lower_03(t *testing.T) {
	// Symbolic bounds discharge through the prover, or fall back to
	// arbitrary precision.
	bounded := ExistsType{
		Kids:       []string{"n"},
		Constraint: Constraint{NumVar{"n"}, CmpLeq, Num(100)},
		Body:       RangeType{Num(0), NumVar{"n"}},
	}
	//
	check_Lower(t, bounded, cir.FInt{Width: 64})
	//
	unbounded := ExistsType{
		Kids:       []string{"n"},
		Constraint: Constraint{Num(0), CmpLeq, NumVar{"n"}},
		Body:       RangeType{Num(0), NumVar{"n"}},
	}
	//
	check_Lower(t, unbounded, cir.LInt{})
}

func Test_Lower_04(t *testing.T) {
	// Bit-vectors: fixed, small and arbitrary.
	check_Lower(t, BitsType(Num(32), OrdDec), cir.FBits{Width: 32, Dir: cir.Dec})
	check_Lower(t, BitsType(Num(64), OrdInc), cir.FBits{Width: 64, Dir: cir.Inc})
	//
	small := ExistsType{
		Kids:       []string{"n"},
		Constraint: Constraint{NumVar{"n"}, CmpLeq, Num(64)},
		Body:       BitsType(NumVar{"n"}, OrdDec),
	}
	//
	check_Lower(t, small, cir.SBits{Cap: 64, Dir: cir.Dec})
	//
	check_Lower(t, BitsType(NumVar{"m"}, OrdDec), cir.LBits{Dir: cir.Dec})
}

func Test_Lower_05(t *testing.T) {
	// Lists, vectors, registers, tuples, type variables.
	check_Lower(t, ListType{NamedType{"int"}}, cir.List{Elem: cir.LInt{}})
	check_Lower(t,
		VectorType{Num(8), OrdDec, NamedType{"bool"}},
		cir.Vector{Dir: cir.Dec, Elem: cir.Bool{}})
	check_Lower(t, RegisterType{BitsType(Num(64), OrdDec)}, cir.Ref{Elem: cir.FBits{Width: 64, Dir: cir.Dec}})
	check_Lower(t,
		TupleType{[]Type{NamedType{"bool"}, NamedType{"int"}}},
		cir.Tup{Elems: []cir.Rep{cir.Bool{}, cir.LInt{}}})
	check_Lower(t, VarType{"a"}, cir.Poly{Id: "a"})
}

func Test_Lower_06(t *testing.T) {
	// Named declarations resolve through the environment.
	env := NewEnv()
	env.DeclareEnum(&EnumDecl{Id: "colour", Ctors: []string{"Red", "Green"}})
	env.DeclareRecord(&RecordDecl{Id: "pair", Fields: []TypedField{
		{"fst", NamedType{"int"}},
		{"snd", NamedType{"bool"}},
	}})
	env.DeclareSynonym("word", BitsType(Num(32), OrdDec))
	//
	ctx := NewContext(env, IntervalProver{})
	//
	rep, err := ctx.LowerType(NamedType{"colour"})
	if err != nil {
		t.Fatal(err)
	}
	//
	if enum, ok := rep.(cir.Enum); !ok || len(enum.Ctors) != 2 {
		t.Errorf("unexpected enum lowering %s", rep)
	}
	//
	rep, err = ctx.LowerType(NamedType{"pair"})
	if err != nil {
		t.Fatal(err)
	}
	//
	if s, ok := rep.(cir.Struct); !ok || !cir.Equal(s.Fields[0].Rep, cir.LInt{}) {
		t.Errorf("unexpected record lowering %s", rep)
	}
	//
	check_LowerIn(t, ctx, NamedType{"word"}, cir.FBits{Width: 32, Dir: cir.Dec})
}

func Test_Lower_07(t *testing.T) {
	// Recursive variants tie the knot by identifier.
	env := NewEnv()
	env.DeclareVariant(&VariantDecl{Id: "tree", Ctors: []CtorDecl{
		{"Leaf", NamedType{"int"}},
		{"Node", ListType{NamedType{"tree"}}},
	}})
	//
	ctx := NewContext(env, IntervalProver{})
	//
	rep, err := ctx.LowerType(NamedType{"tree"})
	if err != nil {
		t.Fatal(err)
	}
	//
	variant, ok := rep.(cir.Variant)
	if !ok || len(variant.Ctors) != 2 {
		t.Fatalf("unexpected variant lowering %s", rep)
	}
	//
	list, ok := variant.Ctors[1].Arg.(cir.List)
	if !ok {
		t.Fatalf("unexpected constructor argument %s", variant.Ctors[1].Arg)
	}
	//
	if !cir.Equal(list.Elem, cir.Variant{Id: "tree"}) {
		t.Errorf("recursive reference not resolved by id: %s", list.Elem)
	}
}

func Test_Lower_08(t *testing.T) {
	// Lowering is deterministic in the pair (type, constraints).
	types := []Type{
		RangeType{Num(0), Num(10)},
		BitsType(Num(12), OrdDec),
		ListType{TupleType{[]Type{NamedType{"bit"}, NamedType{"int"}}}},
	}
	//
	ctx := NewContext(NewEnv(), IntervalProver{})
	//
	for _, typ := range types {
		first, err1 := ctx.LowerType(typ)
		second, err2 := ctx.LowerType(typ)
		//
		if err1 != nil || err2 != nil {
			t.Fatal(err1, err2)
		}
		//
		if !cir.Equal(first, second) {
			t.Errorf("non-deterministic lowering: %s vs %s", first, second)
		}
	}
}

func Test_Lower_09(t *testing.T) {
	// Unknown named types are fatal, with a message.
	ctx := NewContext(NewEnv(), IntervalProver{})
	//
	if _, err := ctx.LowerType(NamedType{"mystery"}); err == nil {
		t.Error("expected lowering failure")
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Lower(t *testing.T, typ Type, expected cir.Rep) {
	t.Helper()
	//
	ctx := NewContext(NewEnv(), IntervalProver{})
	check_LowerIn(t, ctx, typ, expected)
}

func check_LowerIn(t *testing.T, ctx *Context, typ Type, expected cir.Rep) {
	t.Helper()
	//
	actual, err := ctx.LowerType(typ)
	if err != nil {
		t.Fatalf("lowering failed: %s", err)
	}
	//
	if !cir.Equal(actual, expected) {
		t.Errorf("lowered to %s, expected %s", actual, expected)
	}
}
