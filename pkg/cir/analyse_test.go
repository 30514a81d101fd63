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
	"math/big"
	"testing"
)

func Test_Analyse_01(t *testing.T) {
	// Fixed-width addition masks back to the result width.
	var (
		x = Id{"x", FBits{32, Dec}}
		y = Id{"y", FBits{32, Dec}}
	)
	//
	val, ok := Analyse("add_bits", []Val{x, y}, FBits{32, Dec})
	if !ok {
		t.Fatal("expected specialisation")
	}
	//
	masked, ok := val.(Binary)
	if !ok || masked.Op != "&" {
		t.Fatalf("expected masked result, got %v", val)
	}
	//
	if sum, ok := masked.Lhs.(Binary); !ok || sum.Op != "+" {
		t.Errorf("expected inner addition, got %v", masked.Lhs)
	}
	//
	mask, ok := masked.Rhs.(Lit)
	if !ok {
		t.Fatalf("expected mask literal, got %v", masked.Rhs)
	}
	//
	expected := big.NewInt(0xFFFFFFFF)
	if bits := mask.Val.(LitBits); bits.Value.Cmp(expected) != 0 {
		t.Errorf("expected mask 0xFFFFFFFF, got %s", bits.Value)
	}
	//
	if !Equal(val.RepOf(), FBits{32, Dec}) {
		t.Errorf("unexpected result representation %s", val.RepOf())
	}
}

func Test_Analyse_02(t *testing.T) {
	// Addition at full machine width declines.
	var (
		x = Id{"x", FBits{64, Dec}}
		y = Id{"y", FBits{64, Dec}}
	)
	//
	if _, ok := Analyse("add_bits", []Val{x, y}, FBits{64, Dec}); ok {
		t.Error("expected declination at width 64")
	}
}

func Test_Analyse_03(t *testing.T) {
	// Zero extension of a fixed vector is the identity on the fragment.
	var (
		x = Id{"x", FBits{32, Dec}}
	)
	//
	val, ok := Analyse("zero_extend", []Val{x, Int64Val(64)}, FBits{64, Dec})
	if !ok {
		t.Fatal("expected specialisation")
	}
	//
	retyped, ok := val.(Retyped)
	if !ok {
		t.Fatalf("expected identity rewrite, got %v", val)
	}
	//
	if !Equal(retyped.Rep, (FBits{64, Dec})) {
		t.Errorf("unexpected representation %s", retyped.Rep)
	}
}

func Test_Analyse_04(t *testing.T) {
	// Sign extension routes to the fast helpers with explicit widths.
	var (
		fixed = Id{"x", FBits{8, Dec}}
		small = Id{"y", SBits{64, Dec}}
	)
	//
	val, ok := Analyse("sign_extend", []Val{fixed, Int64Val(32)}, FBits{32, Dec})
	if !ok {
		t.Fatal("expected specialisation")
	}
	//
	if call, ok := val.(CallInline); !ok || call.Fn != "fast_sign_extend" || len(call.Args) != 3 {
		t.Errorf("unexpected rewrite %v", val)
	}
	//
	val, ok = Analyse("sign_extend", []Val{small, Int64Val(32)}, FBits{32, Dec})
	if !ok {
		t.Fatal("expected specialisation")
	}
	//
	if call, ok := val.(CallInline); !ok || call.Fn != "fast_sign_extend2" {
		t.Errorf("unexpected rewrite %v", val)
	}
}

func Test_Analyse_05(t *testing.T) {
	// Appending within a machine word shifts and ors; wider falls back.
	var (
		hi = Id{"hi", FBits{40, Dec}}
		lo = Id{"lo", FBits{20, Dec}}
	)
	//
	val, ok := Analyse("append", []Val{hi, lo}, FBits{60, Dec})
	if !ok {
		t.Fatal("expected specialisation")
	}
	//
	or, ok := val.(Binary)
	if !ok || or.Op != "|" {
		t.Fatalf("expected or, got %v", val)
	}
	//
	if shift, ok := or.Lhs.(Binary); !ok || shift.Op != "<<" {
		t.Errorf("expected shifted left operand, got %v", or.Lhs)
	}
	//
	if !Equal(val.RepOf(), FBits{60, Dec}) {
		t.Errorf("unexpected result representation %s", val.RepOf())
	}
	// Total width 80 exceeds the machine word.
	wide := Id{"w", FBits{40, Dec}}
	//
	if _, ok := Analyse("append", []Val{hi, wide}, LBits{Dec}); ok {
		t.Error("expected declination at width 80")
	}
}

func Test_Analyse_06(t *testing.T) {
	// Small-vector appends route to the dedicated helpers.
	var (
		s = Id{"s", SBits{64, Dec}}
		f = Id{"f", FBits{16, Dec}}
	)
	//
	check_AnalyseHelper(t, "append", []Val{s, s}, SBits{64, Dec}, "append_ss")
	check_AnalyseHelper(t, "append", []Val{s, f}, SBits{64, Dec}, "append_sf")
	check_AnalyseHelper(t, "append", []Val{f, s}, SBits{64, Dec}, "append_fs")
}

func Test_Analyse_07(t *testing.T) {
	// Comparisons: fixed operands compare directly, small ones through
	// helpers, mixtures decline.
	var (
		f = Id{"f", FBits{16, Dec}}
		s = Id{"s", SBits{64, Dec}}
	)
	//
	val, ok := Analyse("eq_bits", []Val{f, f}, Bool{})
	if !ok {
		t.Fatal("expected specialisation")
	}
	//
	if cmp, ok := val.(Binary); !ok || cmp.Op != "==" {
		t.Errorf("unexpected rewrite %v", val)
	}
	//
	check_AnalyseHelper(t, "eq_bits", []Val{s, s}, Bool{}, "eq_sbits")
	check_AnalyseHelper(t, "neq_bits", []Val{s, s}, Bool{}, "neq_sbits")
	//
	if _, ok := Analyse("eq_bits", []Val{f, s}, Bool{}); ok {
		t.Error("expected declination for mixed operands")
	}
}

func Test_Analyse_08(t *testing.T) {
	// Subrange extraction produces the shift-and-mask pattern.
	var (
		vec = Id{"v", FBits{32, Dec}}
		hi  = Lit{LitInt{big.NewInt(15)}, FInt{64}}
		lo  = Lit{LitInt{big.NewInt(4)}, FInt{64}}
	)
	//
	val, ok := Analyse("vector_subrange", []Val{vec, hi, lo}, FBits{12, Dec})
	if !ok {
		t.Fatal("expected specialisation")
	}
	//
	masked, ok := val.(Binary)
	if !ok || masked.Op != "&" {
		t.Fatalf("expected mask, got %v", val)
	}
	//
	mask, ok := masked.Lhs.(Binary)
	if !ok || mask.Op != ">>" {
		t.Fatalf("expected shifted mask, got %v", masked.Lhs)
	}
	//
	if inline, ok := mask.Lhs.(Inline); !ok || inline.Code != "UINT64_MAX" {
		t.Errorf("expected UINT64_MAX mask source, got %v", mask.Lhs)
	}
	//
	if !Equal(val.RepOf(), FBits{12, Dec}) {
		t.Errorf("unexpected result representation %s", val.RepOf())
	}
}

func Test_Analyse_09(t *testing.T) {
	// Undefined values pick canonical representatives.
	check_AnalyseLit(t, "undefined_bool", Bool{})
	check_AnalyseLit(t, "undefined_bits", FBits{16, Dec})
	check_AnalyseLit(t, "undefined_int", FInt{64})
	//
	val, ok := Analyse("undefined_int", nil, Enum{Id: "e", Ctors: []string{"A", "B"}})
	if !ok {
		t.Fatal("expected specialisation")
	}
	//
	if id, ok := val.(Id); !ok || id.Name != "A" {
		t.Errorf("expected first constructor, got %v", val)
	}
	// Arbitrary-precision targets decline.
	if _, ok := Analyse("undefined_int", nil, LInt{}); ok {
		t.Error("expected declination for arbitrary precision")
	}
}

func Test_Analyse_10(t *testing.T) {
	// Integer arithmetic specialises only with a machine-representable
	// destination.
	var (
		x = Id{"x", FInt{64}}
		y = Id{"y", FInt{64}}
	)
	//
	val, ok := Analyse("add_int", []Val{x, y}, FInt{64})
	if !ok {
		t.Fatal("expected specialisation")
	}
	//
	if add, ok := val.(Binary); !ok || add.Op != "+" {
		t.Errorf("unexpected rewrite %v", val)
	}
	//
	if _, ok := Analyse("add_int", []Val{x, y}, LInt{}); ok {
		t.Error("expected declination for arbitrary-precision destination")
	}
	//
	val, ok = Analyse("neg_int", []Val{x}, FInt{64})
	if !ok {
		t.Fatal("expected specialisation")
	}
	//
	if neg, ok := val.(Unary); !ok || neg.Op != "-" {
		t.Errorf("unexpected rewrite %v", val)
	}
}

func Test_Analyse_11(t *testing.T) {
	// Unknown operations and malformed operand lists decline rather than
	// fail.
	if _, ok := Analyse("mysterious_op", []Val{Int64Val(1)}, Bool{}); ok {
		t.Error("expected declination for unknown operation")
	}
	// Too few arguments would panic inside the analysis; it must decline.
	if _, ok := Analyse("eq_bits", []Val{}, Bool{}); ok {
		t.Error("expected declination for malformed call")
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_AnalyseHelper(t *testing.T, fn string, args []Val, ret Rep, helper string) {
	t.Helper()
	//
	val, ok := Analyse(fn, args, ret)
	if !ok {
		t.Fatalf("expected specialisation of %s", fn)
	}
	//
	if call, ok := val.(CallInline); !ok || call.Fn != helper {
		t.Errorf("expected call to %s, got %v", helper, val)
	}
}

func check_AnalyseLit(t *testing.T, fn string, ret Rep) {
	t.Helper()
	//
	val, ok := Analyse(fn, nil, ret)
	if !ok {
		t.Fatalf("expected specialisation of %s at %s", fn, ret)
	}
	//
	if _, ok := val.(Lit); !ok {
		t.Errorf("expected canonical literal, got %v", val)
	}
}
