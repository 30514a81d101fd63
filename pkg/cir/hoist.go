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

	"github.com/bits-and-blooms/bitset"
)

// HoistAllocations lifts heap-represented locals of non-recursive functions
// into the function prologue and epilogue: the declaration moves to the
// prologue, its paired clears move to a single epilogue clear, and the
// declaration site becomes a reset re-initialising the already-allocated
// slot.  Recursive functions are skipped, since a hoisted slot would be
// shared across activations.  Returns the number of functions hoisted.
func HoistAllocations(program *Program) int {
	var (
		recursive = recursiveFns(program)
		hoisted   = 0
		counter   = uint(0)
	)
	//
	for _, fn := range program.Fns {
		if fn.Extern || recursive[fn.Name] {
			continue
		}
		//
		if hoistFn(fn, &counter) {
			hoisted++
		}
	}
	//
	return hoisted
}

// The set of functions which can reach themselves through the call graph.
func recursiveFns(program *Program) map[string]bool {
	var (
		index = map[string]uint{}
		calls = make([][]uint, len(program.Fns))
	)
	//
	for i, fn := range program.Fns {
		index[fn.Name] = uint(i)
	}
	//
	for i, fn := range program.Fns {
		for _, callee := range calleesOf(fn.Body) {
			if j, ok := index[callee]; ok {
				calls[i] = append(calls[i], j)
			}
		}
	}
	//
	recursive := map[string]bool{}
	// A function is recursive if it is reachable from itself.  Reachability
	// is computed per function with an iterative depth-first search.
	for i, fn := range program.Fns {
		var (
			visited = bitset.New(uint(len(program.Fns)))
			stack   = append([]uint{}, calls[i]...)
		)
		//
		for len(stack) > 0 {
			var next uint
			//
			next, stack = stack[len(stack)-1], stack[:len(stack)-1]
			//
			if next == uint(i) {
				recursive[fn.Name] = true
				break
			}
			//
			if visited.Test(next) {
				continue
			}
			//
			visited.Set(next)
			stack = append(stack, calls[next]...)
		}
	}
	//
	return recursive
}

// Every generated function called anywhere within an instruction sequence.
func calleesOf(instrs []Instr) []string {
	var (
		callees []string
		stack   = append([]Instr{}, instrs...)
	)
	//
	for len(stack) > 0 {
		var next Instr
		//
		next, stack = stack[len(stack)-1], stack[:len(stack)-1]
		//
		switch next := next.(type) {
		case Funcall:
			if !next.Extern {
				callees = append(callees, next.Fn)
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
	return callees
}

// Hoist a single function.  Every heap-represented declaration found in the
// body is renamed apart, its declaration moved to the prologue, its clears
// dropped in favour of a single epilogue clear, and the declaration site
// replaced by a reset.
func hoistFn(fn *FnDef, counter *uint) bool {
	var (
		renames  = map[string]string{}
		prologue = len(fn.Prologue)
	)
	//
	fn.Body = hoistInstrs(fn.Body, fn, renames, counter)
	//
	return len(fn.Prologue) > prologue
}

func hoistInstrs(instrs []Instr, fn *FnDef, renames map[string]string, counter *uint) []Instr {
	var ninstrs []Instr
	//
	for _, instr := range instrs {
		// The declaration of a hoisted local dominates its uses, so applying
		// the renames accumulated so far rewrites exactly the occurrences
		// below it.
		for from, to := range renames {
			instr = SubstInstr(instr, from, to)
		}
		//
		switch instr := instr.(type) {
		case Decl:
			if !instr.Rep.IsStack() {
				fresh := hoistLocal(instr.Rep, instr.Name, fn, counter)
				renames[instr.Name] = fresh
				//
				ninstrs = append(ninstrs, Reset{Rep: instr.Rep, Name: fresh})
				//
				continue
			}
		case Init:
			if !instr.Rep.IsStack() {
				fresh := hoistLocal(instr.Rep, instr.Name, fn, counter)
				renames[instr.Name] = fresh
				//
				ninstrs = append(ninstrs, Reset{Rep: instr.Rep, Name: fresh})
				ninstrs = append(ninstrs, Copy{Dst: LocId{Name: fresh, Rep: instr.Rep}, Src: instr.Val})
				//
				continue
			}
		case Clear:
			// A clear of a hoisted local has moved to the epilogue.
			if isHoisted(fn, instr.Name) {
				continue
			}
		case If:
			ninstrs = append(ninstrs, If{
				Cond: instr.Cond,
				Then: hoistInstrs(instr.Then, fn, renames, counter),
				Else: hoistInstrs(instr.Else, fn, renames, counter),
				Rep:  instr.Rep,
			})
			//
			continue
		case Block:
			ninstrs = append(ninstrs, Block{hoistInstrs(instr.Body, fn, renames, counter)})
			continue
		case TryBlock:
			ninstrs = append(ninstrs, TryBlock{hoistInstrs(instr.Body, fn, renames, counter)})
			continue
		}
		//
		ninstrs = append(ninstrs, instr)
	}
	//
	return ninstrs
}

// Allocate a prologue / epilogue pair for a hoisted local, returning its
// fresh name.
func hoistLocal(rep Rep, name string, fn *FnDef, counter *uint) string {
	fresh := fmt.Sprintf("gh$%d_%s", *counter, name)
	*counter++
	//
	fn.Prologue = append(fn.Prologue, Decl{Rep: rep, Name: fresh})
	fn.Epilogue = append(fn.Epilogue, Clear{Rep: rep, Name: fresh})
	//
	return fresh
}

func isHoisted(fn *FnDef, name string) bool {
	for _, instr := range fn.Prologue {
		if decl, ok := instr.(Decl); ok && decl.Name == name {
			return true
		}
	}
	//
	return false
}
