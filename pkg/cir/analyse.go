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
)

// Analyse attempts to specialise a call to a built-in operation over values
// of known representation into an inline machine-level expression.  The
// second result indicates success; for every combination of operation and
// representations not recognised here, the call is left for the general
// runtime primitive.  Any failure arising inside the analysis (including
// panics from subordinate helpers) is treated as a declination rather than
// an error.
func Analyse(fn string, args []Val, ret Rep) (val Val, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			val, ok = nil, false
		}
	}()
	//
	switch fn {
	case "eq_bits":
		return analyseBitsComparison("==", "eq_sbits", args)
	case "neq_bits":
		return analyseBitsComparison("!=", "neq_sbits", args)
	case "eq_int":
		return analyseIntComparison("==", args)
	case "neq_int":
		return analyseIntComparison("!=", args)
	case "lt_int":
		return analyseIntComparison("<", args)
	case "gt_int":
		return analyseIntComparison(">", args)
	case "lteq_int":
		return analyseIntComparison("<=", args)
	case "gteq_int":
		return analyseIntComparison(">=", args)
	case "eq_bool", "eq_bit":
		return Binary{"==", args[0], args[1], Bool{}}, true
	case "not_bool":
		return Unary{"!", args[0], Bool{}}, true
	case "zero_extend":
		return analyseZeroExtend(args, ret)
	case "sign_extend":
		return analyseSignExtend(args, ret)
	case "add_bits":
		return analyseAddBits("+", args)
	case "sub_bits":
		return analyseAddBits("-", args)
	case "xor_bits":
		return analyseBitwise("^", args)
	case "or_bits":
		return analyseBitwise("|", args)
	case "and_bits":
		return analyseBitwise("&", args)
	case "not_bits":
		return analyseNotBits(args)
	case "vector_subrange":
		return analyseSubrange(args)
	case "vector_access":
		return analyseAccess(args)
	case "slice":
		return analyseSlice(args)
	case "append":
		return analyseAppend(args)
	case "unsigned":
		return analyseUnsigned(args)
	case "signed":
		return analyseSigned(args)
	case "replicate_bits":
		return analyseReplicate(args)
	case "update_subrange":
		return analyseUpdateSubrange(args)
	case "undefined_bool", "undefined_bit", "undefined_int", "undefined_bits", "undefined_unit":
		return analyseUndefined(ret)
	case "add_int":
		return analyseIntArith("+", args, ret)
	case "sub_int":
		return analyseIntArith("-", args, ret)
	case "neg_int":
		return analyseIntNeg(args, ret)
	}
	//
	return nil, false
}

// Equality over bit-vectors: fixed operands compare directly; small operands
// must also compare their runtime lengths, which the helper does.
func analyseBitsComparison(op string, helper string, args []Val) (Val, bool) {
	var (
		_, lFixed = fbitsOf(args[0])
		_, rFixed = fbitsOf(args[1])
		_, lSmall = sbitsOf(args[0])
		_, rSmall = sbitsOf(args[1])
	)
	//
	switch {
	case lFixed && rFixed:
		return Binary{op, args[0], args[1], Bool{}}, true
	case lSmall && rSmall:
		return CallInline{helper, []Val{args[0], args[1]}, Bool{}}, true
	default:
		return nil, false
	}
}

func analyseIntComparison(op string, args []Val) (Val, bool) {
	if isFInt(args[0]) && isFInt(args[1]) {
		return Binary{op, args[0], args[1], Bool{}}, true
	}
	//
	return nil, false
}

// Zero extension to a fixed target is the identity on the underlying bits:
// fixed sources are simply retyped, whilst small sources go through a fast
// helper which masks to the runtime length.
func analyseZeroExtend(args []Val, ret Rep) (Val, bool) {
	fret, ok := ret.(FBits)
	if !ok {
		return nil, false
	}
	//
	if _, ok := fbitsOf(args[0]); ok {
		return Retyped{args[0], fret}, true
	}
	//
	if _, ok := sbitsOf(args[0]); ok {
		return CallInline{"fast_zero_extend", []Val{args[0]}, fret}, true
	}
	//
	return nil, false
}

func analyseSignExtend(args []Val, ret Rep) (Val, bool) {
	fret, ok := ret.(FBits)
	if !ok {
		return nil, false
	}
	//
	if src, ok := fbitsOf(args[0]); ok {
		srcWidth := Int64Val(int64(src.Width))
		retWidth := Int64Val(int64(fret.Width))
		//
		return CallInline{"fast_sign_extend", []Val{args[0], srcWidth, retWidth}, fret}, true
	}
	//
	if _, ok := sbitsOf(args[0]); ok {
		retWidth := Int64Val(int64(fret.Width))
		//
		return CallInline{"fast_sign_extend2", []Val{args[0], retWidth}, fret}, true
	}
	//
	return nil, false
}

// Additive operations can overflow their width, hence the result is masked
// back down.  At width 64 the mask would be a no-op in theory, but the
// machine addition itself is only safe below that, so 64 declines.
func analyseAddBits(op string, args []Val) (Val, bool) {
	var (
		lhs, lok = fbitsOf(args[0])
		_, rok   = fbitsOf(args[1])
	)
	//
	if !lok || !rok || lhs.Width > 63 {
		return nil, false
	}
	//
	sum := Binary{op, args[0], args[1], lhs}
	//
	return Binary{"&", sum, maskLit(lhs.Width), lhs}, true
}

func analyseBitwise(op string, args []Val) (Val, bool) {
	var (
		lhs, lok = fbitsOf(args[0])
		_, rok   = fbitsOf(args[1])
	)
	//
	if !lok || !rok {
		return nil, false
	}
	//
	return Binary{op, args[0], args[1], lhs}, true
}

func analyseNotBits(args []Val) (Val, bool) {
	rep, ok := fbitsOf(args[0])
	if !ok {
		return nil, false
	}
	//
	return Binary{"&", Unary{"~", args[0], rep}, maskLit(rep.Width), rep}, true
}

// Subranges of fixed vectors with literal bounds become a shift and mask:
// ((UINT64_MAX >> (64 - len)) & (vec >> lo)).
func analyseSubrange(args []Val) (Val, bool) {
	src, ok := fbitsOf(args[0])
	if !ok {
		return nil, false
	}
	//
	hi, hiOk := litIntOf(args[1])
	lo, loOk := litIntOf(args[2])
	//
	if !hiOk || !loOk {
		return nil, false
	}
	//
	length := uint(hi.Int64()-lo.Int64()) + 1
	//
	return shiftMask(args[0], lo.Int64(), length, src.Dir), true
}

func analyseAccess(args []Val) (Val, bool) {
	if _, ok := fbitsOf(args[0]); !ok {
		return nil, false
	}
	//
	if !isFInt(args[1]) {
		return nil, false
	}
	//
	shifted := Binary{">>", args[0], args[1], FBits{64, Dec}}
	one := Lit{LitBits{big.NewInt(1), 1}, Bit{}}
	//
	return Binary{"&", shifted, one, Bit{}}, true
}

func analyseSlice(args []Val) (Val, bool) {
	src, ok := fbitsOf(args[0])
	if !ok {
		return nil, false
	}
	//
	lo, loOk := litIntOf(args[1])
	length, lenOk := litIntOf(args[2])
	//
	if !loOk || !lenOk {
		return nil, false
	}
	//
	return shiftMask(args[0], lo.Int64(), uint(length.Int64()), src.Dir), true
}

// Appending fixed vectors whose combined width still fits a machine word is
// a shift and an or; combinations involving small vectors route to the
// dedicated helpers.  Anything wider declines, falling back to the
// heap-allocated primitive.
func analyseAppend(args []Val) (Val, bool) {
	var (
		lhs, lFixed = fbitsOf(args[0])
		rhs, rFixed = fbitsOf(args[1])
		_, lSmall   = sbitsOf(args[0])
		_, rSmall   = sbitsOf(args[1])
	)
	//
	switch {
	case lFixed && rFixed && lhs.Width+rhs.Width <= 64:
		var (
			rep     = FBits{lhs.Width + rhs.Width, lhs.Dir}
			shifted = Binary{"<<", args[0], Int64Val(int64(rhs.Width)), rep}
		)
		//
		return Binary{"|", shifted, args[1], rep}, true
	case lSmall && rSmall:
		return CallInline{"append_ss", []Val{args[0], args[1]}, SBits{64, Dec}}, true
	case lSmall && rFixed:
		return CallInline{"append_sf", []Val{args[0], args[1], Int64Val(int64(rhs.Width))}, SBits{64, Dec}}, true
	case lFixed && rSmall:
		return CallInline{"append_fs", []Val{args[0], Int64Val(int64(lhs.Width)), args[1]}, SBits{64, Dec}}, true
	default:
		return nil, false
	}
}

// An unsigned read of fewer than 64 bits is already the value itself.
func analyseUnsigned(args []Val) (Val, bool) {
	src, ok := fbitsOf(args[0])
	if !ok || src.Width > 63 {
		return nil, false
	}
	//
	return CallInline{"fast_unsigned", []Val{args[0]}, FInt{64}}, true
}

func analyseSigned(args []Val) (Val, bool) {
	src, ok := fbitsOf(args[0])
	if !ok || src.Width > 64 {
		return nil, false
	}
	//
	return CallInline{"fast_signed", []Val{args[0], Int64Val(int64(src.Width))}, FInt{64}}, true
}

func analyseReplicate(args []Val) (Val, bool) {
	src, ok := fbitsOf(args[0])
	if !ok {
		return nil, false
	}
	//
	count, countOk := litIntOf(args[1])
	if !countOk {
		return nil, false
	}
	//
	total := src.Width * uint(count.Int64())
	if total > 64 {
		return nil, false
	}
	//
	rep := FBits{total, src.Dir}
	call := CallInline{"fast_replicate_bits", []Val{Int64Val(int64(src.Width)), args[0], args[1]}, rep}
	//
	return call, true
}

func analyseUpdateSubrange(args []Val) (Val, bool) {
	src, ok := fbitsOf(args[0])
	if !ok {
		return nil, false
	}
	//
	if _, ok := fbitsOf(args[3]); !ok {
		return nil, false
	}
	//
	call := CallInline{"fast_update_subrange", []Val{args[0], args[1], args[2], args[3]}, src}
	//
	return call, true
}

// Undefined values of recognised representations pick a canonical
// representative.
func analyseUndefined(ret Rep) (Val, bool) {
	switch ret := ret.(type) {
	case Bool:
		return False(), true
	case Bit:
		return Lit{LitBits{big.NewInt(0), 1}, Bit{}}, true
	case FInt:
		return Lit{LitInt{big.NewInt(0)}, ret}, true
	case FBits:
		return Lit{LitBits{big.NewInt(0), ret.Width}, ret}, true
	case Enum:
		if len(ret.Ctors) > 0 {
			return Id{ret.Ctors[0], ret}, true
		}
	case Unit:
		return UnitVal(), true
	}
	//
	return nil, false
}

// Integer arithmetic specialises when the destination range is provably
// machine-representable, which the lowered return representation records.
func analyseIntArith(op string, args []Val, ret Rep) (Val, bool) {
	fret, ok := ret.(FInt)
	if !ok || !isFInt(args[0]) || !isFInt(args[1]) {
		return nil, false
	}
	//
	return Binary{op, args[0], args[1], fret}, true
}

func analyseIntNeg(args []Val, ret Rep) (Val, bool) {
	fret, ok := ret.(FInt)
	if !ok || !isFInt(args[0]) {
		return nil, false
	}
	//
	return Unary{"-", args[0], fret}, true
}

// ============================================================================
// Helpers
// ============================================================================

func fbitsOf(v Val) (FBits, bool) {
	rep, ok := v.RepOf().(FBits)
	return rep, ok
}

func sbitsOf(v Val) (SBits, bool) {
	rep, ok := v.RepOf().(SBits)
	return rep, ok
}

func isFInt(v Val) bool {
	_, ok := v.RepOf().(FInt)
	return ok
}

// Extract a compile-time integer from a literal operand.
func litIntOf(v Val) (*big.Int, bool) {
	lit, ok := v.(Lit)
	if !ok {
		return nil, false
	}
	//
	switch payload := lit.Val.(type) {
	case LitInt:
		return payload.Value, true
	case LitBits:
		return payload.Value, true
	default:
		return nil, false
	}
}

// The all-ones mask of a given width, as a bits literal.
func maskLit(width uint) Val {
	var mask big.Int
	//
	mask.Lsh(big.NewInt(1), width)
	mask.Sub(&mask, big.NewInt(1))
	//
	return Lit{LitBits{&mask, width}, FBits{width, Dec}}
}

// The canonical extraction pattern for a subrange of a fixed vector:
// ((UINT64_MAX >> (64 - len)) & (vec >> lo)).
func shiftMask(vec Val, lo int64, length uint, dir Dir) Val {
	var (
		rep     = FBits{length, dir}
		uintMax = Inline{"UINT64_MAX", FBits{64, dir}}
		mask    = Binary{">>", uintMax, Int64Val(64 - int64(length)), rep}
		shifted = Binary{">>", vec, Int64Val(lo), FBits{64, dir}}
	)
	//
	return Binary{"&", mask, shifted, rep}
}
