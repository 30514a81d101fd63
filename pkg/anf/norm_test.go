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
package anf

import (
	"math/big"
	"testing"

	"github.com/consensys/go-isagen/pkg/cir"
	"github.com/consensys/go-isagen/pkg/isa"
)

func Test_Norm_01(t *testing.T) {
	// Nested applications flatten into lets over atomic arguments.
	var (
		intTy = isa.NamedType{Id: "int"}
		x     = &isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "x"}
		y     = &isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "y"}
		z     = &isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "z"}
		inner = &isa.App{ExprBase: isa.ExprBase{Type: intTy}, Fn: "add_int", Args: []isa.Expr{x, y}}
		outer = &isa.App{ExprBase: isa.ExprBase{Type: intTy}, Fn: "add_int", Args: []isa.Expr{inner, z}}
	)
	//
	norm := NewNormaliser(newTestContext())
	//
	expr, err := norm.Normalise(outer)
	if err != nil {
		t.Fatal(err)
	}
	//
	let, ok := expr.(ELet)
	if !ok {
		t.Fatalf("expected binding for inner application, got %T", expr)
	}
	//
	if _, ok := let.Bound.(EApp); !ok {
		t.Errorf("expected bound application, got %T", let.Bound)
	}
	//
	app, ok := let.Body.(EApp)
	if !ok {
		t.Fatalf("expected application body, got %T", let.Body)
	}
	//
	check_Atomic(t, app.Args...)
}

func Test_Norm_02(t *testing.T) {
	// The logical connectives become conditionals, preserving their
	// short-circuit semantics.
	var (
		boolTy = isa.NamedType{Id: "bool"}
		a      = &isa.Var{ExprBase: isa.ExprBase{Type: boolTy}, Name: "a"}
		b      = &isa.Var{ExprBase: isa.ExprBase{Type: boolTy}, Name: "b"}
		and    = &isa.App{ExprBase: isa.ExprBase{Type: boolTy}, Fn: "and_bool", Args: []isa.Expr{a, b}}
		or     = &isa.App{ExprBase: isa.ExprBase{Type: boolTy}, Fn: "or_bool", Args: []isa.Expr{a, b}}
	)
	//
	norm := NewNormaliser(newTestContext())
	//
	expr, err := norm.Normalise(and)
	if err != nil {
		t.Fatal(err)
	}
	//
	cond, ok := expr.(EIf)
	if !ok {
		t.Fatalf("conjunction not rewritten to conditional: %T", expr)
	}
	//
	check_BoolLit(t, cond.Else, false)
	//
	expr, err = norm.Normalise(or)
	if err != nil {
		t.Fatal(err)
	}
	//
	cond, ok = expr.(EIf)
	if !ok {
		t.Fatalf("disjunction not rewritten to conditional: %T", expr)
	}
	//
	check_BoolLit(t, cond.Then, true)
}

func Test_Norm_03(t *testing.T) {
	// Leaves carry their lowered representations; loop indices are
	// recorded as 64-bit machine integers.
	var (
		intTy = isa.NamedType{Id: "int"}
		idx   = &isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "i"}
		loop  = &isa.ForEach{
			ExprBase: isa.ExprBase{Type: isa.NamedType{Id: "unit"}},
			Index:    "i",
			From:     lit64(0), To: lit64(10), Step: lit64(1),
			Up:   true,
			Body: idx,
		}
	)
	//
	norm := NewNormaliser(newTestContext())
	//
	expr, err := norm.Normalise(loop)
	if err != nil {
		t.Fatal(err)
	}
	//
	forEach, ok := expr.(EFor)
	if !ok {
		t.Fatalf("expected loop, got %T", expr)
	}
	//
	body, ok := forEach.Body.(EVal)
	if !ok {
		t.Fatalf("expected atomic body, got %T", forEach.Body)
	}
	//
	if !cir.Equal(body.Val.RepOf(), cir.FInt{Width: 64}) {
		t.Errorf("loop index lowered to %s, expected fixed width", body.Val.RepOf())
	}
}

func Test_Norm_04(t *testing.T) {
	// Pattern bindings pick up the representation of the scrutinee
	// component they bind.
	env := isa.NewEnv()
	ctx := isa.NewContext(env, isa.IntervalProver{})
	//
	var (
		intTy = isa.NamedType{Id: "int"}
		tupTy = isa.TupleType{Elems: []isa.Type{intTy, isa.NamedType{Id: "bool"}}}
		pair  = &isa.Var{ExprBase: isa.ExprBase{Type: tupTy}, Name: "p"}
		fst   = &isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "a"}
		match = &isa.Match{
			ExprBase:  isa.ExprBase{Type: intTy},
			Scrutinee: pair,
			Arms: []isa.Arm{{
				Pattern: isa.PatTuple{Elems: []isa.Pattern{
					isa.PatVar{Name: "a", Type: intTy},
					isa.PatWild{},
				}},
				Body: fst,
			}},
		}
	)
	//
	norm := NewNormaliser(ctx)
	//
	expr, err := norm.Normalise(match)
	if err != nil {
		t.Fatal(err)
	}
	//
	m, ok := expr.(EMatch)
	if !ok {
		t.Fatalf("expected match, got %T", expr)
	}
	//
	body, ok := m.Arms[0].Body.(EVal)
	if !ok {
		t.Fatalf("expected atomic arm body, got %T", m.Arms[0].Body)
	}
	//
	if !cir.Equal(body.Val.RepOf(), cir.LInt{}) {
		t.Errorf("pattern binding lowered to %s", body.Val.RepOf())
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func newTestContext() *isa.Context {
	return isa.NewContext(isa.NewEnv(), isa.IntervalProver{})
}

func lit64(v int64) *isa.Lit {
	return &isa.Lit{
		ExprBase: isa.ExprBase{Type: isa.RangeType{Lo: isa.Num(v), Hi: isa.Num(v)}},
		Int:      big.NewInt(v),
	}
}

func check_Atomic(t *testing.T, vals ...Val) {
	t.Helper()
	//
	for _, val := range vals {
		switch val.(type) {
		case Lit, Id, Inline:
		case Tuple:
		default:
			t.Errorf("non-atomic operand %T", val)
		}
	}
}

func check_BoolLit(t *testing.T, expr Expr, expected bool) {
	t.Helper()
	//
	val, ok := expr.(EVal)
	if !ok {
		t.Fatalf("expected literal branch, got %T", expr)
	}
	//
	lit, ok := val.Val.(Lit)
	if !ok {
		t.Fatalf("expected literal, got %T", val.Val)
	}
	//
	if b, ok := lit.Lit.(cir.LitBool); !ok || b.Value != expected {
		t.Errorf("expected %t literal", expected)
	}
}
