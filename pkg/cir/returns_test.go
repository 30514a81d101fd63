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

func Test_Returns_01(t *testing.T) {
	// Stack variant: slot declared up front, returned at the single exit.
	fn := &FnDef{
		Name: "f",
		Ret:  FInt{64},
		Body: []Instr{
			Copy{Dst: LocReturn{FInt{64}}, Src: Int64Val(1)},
		},
	}
	//
	FixReturns(fn)
	//
	if decl, ok := fn.Body[0].(Decl); !ok || decl.Name != ReturnSlot {
		t.Fatalf("expected slot declaration, got %v", fn.Body[0])
	}
	//
	if copied, ok := fn.Body[1].(Copy); !ok || !isSlot(copied.Dst) {
		t.Errorf("terminal copy not redirected: %v", fn.Body[1])
	}
	//
	check_SingleExit(t, fn.Body, true)
}

func Test_Returns_02(t *testing.T) {
	// Heap variant with early returns inside nested structure: both return
	// sites become copies through the caller pointer, one exit label at the
	// end, no value returned there.
	var (
		val  = Id{"x", LInt{}}
		body = []Instr{
			Block{[]Instr{
				If{
					Cond: Id{"c", Bool{}},
					Then: []Instr{
						Copy{Dst: LocReturn{LInt{}}, Src: val},
						Goto{EndLabel},
					},
					Rep: Unit{},
				},
			}},
			Copy{Dst: LocReturn{LInt{}}, Src: val},
		}
		fn = &FnDef{Name: "g", Ret: LInt{}, HeapRet: true, Body: body}
	)
	//
	FixReturns(fn)
	//
	check_SingleExit(t, fn.Body, false)
	check_NoReturnSlot(t, fn.Body)
	//
	if countPointerCopies(fn.Body) != 2 {
		t.Errorf("expected both return sites rewritten through the pointer")
	}
}

func Test_Returns_03(t *testing.T) {
	// Calls whose destination is the return slot are redirected too.
	fn := &FnDef{
		Name: "h",
		Ret:  FInt{64},
		Body: []Instr{
			Funcall{Dst: LocReturn{FInt{64}}, Fn: "callee", Args: nil},
		},
	}
	//
	FixReturns(fn)
	//
	if call, ok := fn.Body[1].(Funcall); !ok || !isSlot(call.Dst) {
		t.Errorf("terminal call not redirected: %v", fn.Body[1])
	}
}

func Test_Returns_04(t *testing.T) {
	// A body already containing a return is an internal error.
	defer func() {
		if recover() == nil {
			t.Error("expected panic on unrecognised shape")
		}
	}()
	//
	fn := &FnDef{Name: "bad", Ret: FInt{64}, Body: []Instr{Return{Val: Int64Val(0)}}}
	FixReturns(fn)
}

// ===================================================================
// Test Helpers
// ===================================================================

func isSlot(loc Loc) bool {
	id, ok := loc.(LocId)
	return ok && id.Name == ReturnSlot
}

func check_SingleExit(t *testing.T, instrs []Instr, stack bool) {
	t.Helper()
	//
	labels := 0
	//
	for _, instr := range instrs {
		if label, ok := instr.(Label); ok && label.Name == EndLabel {
			labels++
		}
	}
	//
	if labels != 1 {
		t.Errorf("expected exactly one exit label, found %d", labels)
	}
	//
	last := instrs[len(instrs)-1]
	//
	if stack {
		if _, ok := last.(Return); !ok {
			t.Errorf("expected terminal return, got %v", last)
		}
	} else {
		if _, ok := last.(End); !ok {
			t.Errorf("expected terminal end, got %v", last)
		}
	}
}

func check_NoReturnSlot(t *testing.T, instrs []Instr) {
	t.Helper()
	//
	stack := append([]Instr{}, instrs...)
	//
	for len(stack) > 0 {
		var next Instr
		//
		next, stack = stack[len(stack)-1], stack[:len(stack)-1]
		//
		switch next := next.(type) {
		case Copy:
			if IsReturn(next.Dst) {
				t.Errorf("return position survived rewriting: %v", next)
			}
		case Funcall:
			if IsReturn(next.Dst) {
				t.Errorf("return position survived rewriting: %v", next)
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
}

func countPointerCopies(instrs []Instr) int {
	var (
		count = 0
		stack = append([]Instr{}, instrs...)
	)
	//
	for len(stack) > 0 {
		var next Instr
		//
		next, stack = stack[len(stack)-1], stack[:len(stack)-1]
		//
		switch next := next.(type) {
		case Copy:
			if _, ok := next.Dst.(LocAddr); ok {
				count++
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
	return count
}
