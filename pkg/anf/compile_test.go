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
	"testing"

	"github.com/consensys/go-isagen/pkg/cir"
	"github.com/consensys/go-isagen/pkg/isa"
)

func Test_Compile_01(t *testing.T) {
	// A heap-represented let declares and clears exactly once.
	var (
		intTy = isa.NamedType{Id: "int"}
		def   = &isa.FnDef{
			Name:   "id",
			Params: []isa.FnParam{{Name: "x", Type: intTy}},
			Ret:    intTy,
			Body: &isa.Let{
				ExprBase: isa.ExprBase{Type: intTy},
				Name:     "y",
				Bound:    &isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "x"},
				Body:     &isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "y"},
			},
		}
	)
	//
	fn := compileOne(t, def)
	//
	if !fn.HeapRet {
		t.Error("arbitrary-precision results return through the heap")
	}
	//
	check_Balanced(t, fn.Body)
}

func Test_Compile_02(t *testing.T) {
	// Early returns unwind live heap locals before transferring to the
	// function exit.
	var (
		intTy = isa.NamedType{Id: "int"}
		unit  = isa.NamedType{Id: "unit"}
		ret   = &isa.Return{
			ExprBase: isa.ExprBase{Type: unit},
			Arg:      &isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "y"},
		}
		def = &isa.FnDef{
			Name:   "f",
			Params: []isa.FnParam{{Name: "c", Type: isa.NamedType{Id: "bool"}}},
			Ret:    intTy,
			Body: &isa.Let{
				ExprBase: isa.ExprBase{Type: intTy},
				Name:     "y",
				Bound:    &isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "zero"},
				Body: &isa.Block{
					ExprBase: isa.ExprBase{Type: intTy},
					Stmts: []isa.Expr{
						&isa.If{
							ExprBase: isa.ExprBase{Type: unit},
							Cond:     &isa.Var{ExprBase: isa.ExprBase{Type: isa.NamedType{Id: "bool"}}, Name: "c"},
							Then:     ret,
							Else:     &isa.Lit{ExprBase: isa.ExprBase{Type: unit}, IsUnit: true},
						},
						&isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "y"},
					},
				},
			},
		}
	)
	//
	fn := compileOne(t, def)
	// The early exit performs a clear before its goto.
	if !unwindsBeforeGoto(fn.Body) {
		t.Error("early exit does not unwind live heap locals")
	}
	//
	check_Balanced(t, fn.Body)
}

func Test_Compile_03(t *testing.T) {
	// Matches terminate with a failure instruction when no arm applies.
	var (
		intTy = isa.NamedType{Id: "int"}
		def   = &isa.FnDef{
			Name:   "pick",
			Params: []isa.FnParam{{Name: "x", Type: intTy}},
			Ret:    intTy,
			Body: &isa.Match{
				ExprBase:  isa.ExprBase{Type: intTy},
				Scrutinee: &isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "x"},
				Arms: []isa.Arm{{
					Pattern: isa.PatVar{Name: "v", Type: intTy},
					Body:    &isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "v"},
				}},
			},
		}
	)
	//
	fn := compileOne(t, def)
	//
	found := false
	//
	for _, instr := range fn.Body {
		if _, ok := instr.(cir.MatchFailure); ok {
			found = true
		}
	}
	//
	if !found {
		t.Error("match compiled without failure edge")
	}
}

func Test_Compile_04(t *testing.T) {
	// A definition whose parameters disagree with its signature arity is
	// fatal.
	var (
		intTy = isa.NamedType{Id: "int"}
		def   = &isa.FnDef{
			Name:   "mismatch",
			Params: []isa.FnParam{{Name: "x", Type: intTy}},
			Arg:    isa.TupleType{Elems: []isa.Type{intTy, intTy}},
			Ret:    intTy,
			Body:   &isa.Var{ExprBase: isa.ExprBase{Type: intTy}, Name: "x"},
		}
		ctx      = isa.NewContext(isa.NewEnv(), isa.IntervalProver{})
		compiler = NewCompiler(ctx, cir.DEFAULT_OPTIMISATION)
	)
	//
	if _, err := compiler.CompileFn(def); err == nil {
		t.Error("expected arity mismatch failure")
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func compileOne(t *testing.T, def *isa.FnDef) *cir.FnDef {
	t.Helper()
	//
	var (
		ctx      = isa.NewContext(isa.NewEnv(), isa.IntervalProver{})
		compiler = NewCompiler(ctx, cir.DEFAULT_OPTIMISATION)
	)
	//
	fn, err := compiler.CompileFn(def)
	if err != nil {
		t.Fatal(err)
	}
	//
	return fn
}

// Along the linear spine of a function body, the heap declarations and
// clears must balance.
func check_Balanced(t *testing.T, instrs []cir.Instr) {
	t.Helper()
	//
	declared := map[string]int{}
	cleared := map[string]int{}
	//
	countResources(instrs, declared, cleared)
	//
	for name, n := range declared {
		if cleared[name] < n {
			t.Errorf("local %s declared %d times but cleared %d", name, n, cleared[name])
		}
	}
}

func countResources(instrs []cir.Instr, declared map[string]int, cleared map[string]int) {
	for _, instr := range instrs {
		switch instr := instr.(type) {
		case cir.Decl:
			if !instr.Rep.IsStack() {
				declared[instr.Name]++
			}
		case cir.Init:
			if !instr.Rep.IsStack() {
				declared[instr.Name]++
			}
		case cir.Clear:
			cleared[instr.Name]++
		case cir.If:
			countResources(instr.Then, declared, cleared)
			countResources(instr.Else, declared, cleared)
		case cir.Block:
			countResources(instr.Body, declared, cleared)
		case cir.TryBlock:
			countResources(instr.Body, declared, cleared)
		}
	}
}

// Somewhere in the body, a clear must immediately precede a goto to the
// function exit.
func unwindsBeforeGoto(instrs []cir.Instr) bool {
	found := false
	//
	var scan func([]cir.Instr)
	//
	scan = func(instrs []cir.Instr) {
		for i := 0; i+1 < len(instrs); i++ {
			if _, ok := instrs[i].(cir.Clear); !ok {
				continue
			}
			//
			if jump, ok := instrs[i+1].(cir.Goto); ok && jump.Label == cir.EndLabel {
				found = true
			}
		}
		//
		for _, instr := range instrs {
			switch instr := instr.(type) {
			case cir.If:
				scan(instr.Then)
				scan(instr.Else)
			case cir.Block:
				scan(instr.Body)
			case cir.TryBlock:
				scan(instr.Body)
			}
		}
	}
	//
	scan(instrs)
	//
	return found
}
