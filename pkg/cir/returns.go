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
	"fmt"
	"reflect"
)

// ReturnSlot is the local which return rewriting introduces to carry the
// result of a stack-returning function to its single exit.
const ReturnSlot = "gret"

// ReturnPointer is the synthetic parameter through which a heap-returning
// function writes its result.
const ReturnPointer = "gret_ptr"

// EndLabel is the single function-exit label.
const EndLabel = "end_function"

// FixReturns rewrites a function body so that it has exactly one exit.  For
// stack-returning functions, a named slot is allocated, every assignment to
// the return position becomes an assignment to that slot, and the slot is
// returned at the exit label.  For heap-returning functions, the caller
// provides a pointer; every assignment to the return position becomes a copy
// through that pointer, and the exit label carries no return value.
func FixReturns(fn *FnDef) {
	if fn.HeapRet {
		fixHeapReturns(fn)
	} else {
		fixStackReturns(fn)
	}
}

func fixStackReturns(fn *FnDef) {
	slot := LocId{Name: ReturnSlot, Rep: fn.Ret}
	//
	body := rewriteReturns(fn.Body, slot)
	// Declare the slot, terminate at the single exit.
	instrs := []Instr{Decl{Rep: fn.Ret, Name: ReturnSlot}}
	instrs = append(instrs, body...)
	instrs = append(instrs, Label{Name: EndLabel})
	instrs = append(instrs, Return{Val: Id{Name: ReturnSlot, Rep: fn.Ret}})
	//
	fn.Body = instrs
}

func fixHeapReturns(fn *FnDef) {
	pointer := LocAddr{Loc: LocId{Name: ReturnPointer, Rep: fn.Ret}}
	//
	body := rewriteReturns(fn.Body, pointer)
	//
	instrs := body
	instrs = append(instrs, Label{Name: EndLabel})
	instrs = append(instrs, End{})
	//
	fn.Body = instrs
}

// Rewrite every assignment to the return position into an assignment to a
// given destination.  The recursion descends into blocks, conditionals,
// calls whose destination is the return slot and direct copies to it; other
// terminals are preserved unchanged.  Anything else reaching the return
// position is an internal error.
func rewriteReturns(instrs []Instr, dst Loc) []Instr {
	ninstrs := make([]Instr, len(instrs))
	//
	for i, instr := range instrs {
		ninstrs[i] = rewriteReturn(instr, dst)
	}
	//
	return ninstrs
}

func rewriteReturn(instr Instr, dst Loc) Instr {
	switch instr := instr.(type) {
	case Copy:
		if IsReturn(instr.Dst) {
			return Copy{Dst: rebase(instr.Dst, dst), Src: instr.Src}
		}
	case Funcall:
		if IsReturn(instr.Dst) {
			return Funcall{Dst: rebase(instr.Dst, dst), Extern: instr.Extern, Ctor: instr.Ctor, Fn: instr.Fn, Args: instr.Args}
		}
	case If:
		return If{
			Cond: instr.Cond,
			Then: rewriteReturns(instr.Then, dst),
			Else: rewriteReturns(instr.Else, dst),
			Rep:  instr.Rep,
		}
	case Block:
		return Block{Body: rewriteReturns(instr.Body, dst)}
	case TryBlock:
		return TryBlock{Body: rewriteReturns(instr.Body, dst)}
	case Return, End:
		// A function body must not terminate itself before rewriting.
		name := reflect.TypeOf(instr).Name()
		panic(fmt.Sprintf("unexpected %s instruction during return rewriting", name))
	}
	//
	return instr
}

// Replace the return slot at the base of a left-value chain with a given
// destination.
func rebase(loc Loc, dst Loc) Loc {
	switch loc := loc.(type) {
	case LocReturn:
		return dst
	case LocField:
		return LocField{Loc: rebase(loc.Loc, dst), Field: loc.Field, Rep: loc.Rep}
	case LocTuple:
		return LocTuple{Loc: rebase(loc.Loc, dst), Index: loc.Index, Rep: loc.Rep}
	default:
		name := reflect.TypeOf(loc).Name()
		panic(fmt.Sprintf("unexpected left-value %s at return position", name))
	}
}
