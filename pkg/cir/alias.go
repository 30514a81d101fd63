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

// The peephole passes over the linear instruction stream.  All of them are
// conservative: whenever liveness cannot be established from the shape of
// the stream alone, the pattern is declined.
package cir

import "fmt"

// UniqueNames assigns a fresh identifier to each declaration whose name has
// been seen earlier in the same function, so that every declaration in a
// function is unique.  Allocation hoisting relies on this.
func UniqueNames(fn *FnDef) {
	seen := map[string]bool{}
	//
	for _, param := range fn.Params {
		seen[param.Name] = true
	}
	//
	counter := uint(0)
	fn.Body = uniqueNames(fn.Body, seen, &counter)
}

func uniqueNames(instrs []Instr, seen map[string]bool, counter *uint) []Instr {
	var out []Instr
	//
	for i := 0; i < len(instrs); i++ {
		instr := instrs[i]
		//
		if name, ok := declOf(instr); ok {
			if seen[name] {
				fresh := fmt.Sprintf("%s$u%d", name, *counter)
				*counter++
				// Rename the declaration and everything below it in this
				// region, which includes the paired clear.
				tail := SubstInstrs(instrs[i:], name, fresh)
				instrs = append(instrs[:i:i], tail...)
				instr = instrs[i]
				name = fresh
			}
			//
			seen[name] = true
			out = append(out, instr)
			//
			continue
		}
		//
		switch instr := instr.(type) {
		case If:
			out = append(out, If{
				Cond: instr.Cond,
				Then: uniqueNames(instr.Then, seen, counter),
				Else: uniqueNames(instr.Else, seen, counter),
				Rep:  instr.Rep,
			})
		case Block:
			out = append(out, Block{uniqueNames(instr.Body, seen, counter)})
		case TryBlock:
			out = append(out, TryBlock{uniqueNames(instr.Body, seen, counter)})
		default:
			out = append(out, instr)
		}
	}
	//
	return out
}

func declOf(instr Instr) (string, bool) {
	switch instr := instr.(type) {
	case Decl:
		return instr.Name, true
	case Init:
		return instr.Name, true
	default:
		return "", false
	}
}

// RemoveAlias detects the shape
//
//	create x; x = y; ... ; y = x; kill x
//
// where x is mutated but y untouched in between, rewrites the interior
// occurrences of x to y, and deletes the bracketing create / copy / copy /
// kill.  The value simply lives in y throughout.
func RemoveAlias(instrs []Instr) []Instr {
	instrs = mapNested(instrs, RemoveAlias)
	//
	for i := 0; i+1 < len(instrs); i++ {
		x, ok := declNameOf(instrs[i])
		if !ok {
			continue
		}
		//
		y, ok := copyBetween(instrs[i+1], x)
		if !ok {
			continue
		}
		//
		for j := i + 2; j+1 < len(instrs); j++ {
			if back, ok := copyBetween(instrs[j], y); !ok || back != x {
				continue
			}
			//
			if kill, ok := instrs[j+1].(Clear); !ok || kill.Name != x {
				continue
			}
			// y must be untouched strictly between the two copies, and x
			// must not escape beyond its kill.
			interior := instrs[i+2 : j]
			if ReadsAny(interior, y) || WritesAny(interior, y) || usedBeyond(instrs[j+2:], x) {
				continue
			}
			//
			var out []Instr
			//
			out = append(out, instrs[:i]...)
			out = append(out, SubstInstrs(interior, x, y)...)
			out = append(out, instrs[j+2:]...)
			//
			return out
		}
	}
	//
	return instrs
}

// CombineVariables detects the shape
//
//	create x; create y; ... ; x = y; kill y
//
// where y is mutated but x untouched in between, rewrites the interior
// occurrences of y to x, and deletes the creation of y, the copy and the
// kill.  The two locals denote the same value.
func CombineVariables(instrs []Instr) []Instr {
	instrs = mapNested(instrs, CombineVariables)
	//
	for k := 0; k < len(instrs); k++ {
		y, ok := declNameOf(instrs[k])
		if !ok {
			continue
		}
		//
		for j := k + 1; j+1 < len(instrs); j++ {
			x, ok := copyFrom(instrs[j], y)
			if !ok {
				continue
			}
			//
			if kill, ok := instrs[j+1].(Clear); !ok || kill.Name != y {
				continue
			}
			// x must exist and be untouched strictly between the creation of
			// y and the copy, and y must not escape beyond its kill.
			if !declaredBefore(instrs[:k], x) {
				break
			}
			//
			interior := instrs[k+1 : j]
			if ReadsAny(interior, x) || WritesAny(interior, x) || usedBeyond(instrs[j+2:], y) {
				break
			}
			//
			var out []Instr
			//
			out = append(out, instrs[:k]...)
			out = append(out, SubstInstrs(interior, y, x)...)
			out = append(out, instrs[j+2:]...)
			//
			return out
		}
	}
	//
	return instrs
}

// HoistAlias rewrites, after a reset of a struct-represented local x whose
// next use is a plain copy y = x with x unreferenced afterwards, that copy
// into an alias carrying no deep copy.  This pass is experimental: it has
// not been proven correct against all lifetime shapes, hence it is gated
// behind the experimental configuration flag.
func HoistAlias(instrs []Instr) []Instr {
	instrs = mapNested(instrs, HoistAlias)
	//
	for i := 0; i < len(instrs); i++ {
		reset, ok := instrs[i].(Reset)
		if !ok {
			continue
		}
		//
		if _, ok := reset.Rep.(Struct); !ok {
			continue
		}
		// Find the next instruction referencing the local.
		for j := i + 1; j < len(instrs); j++ {
			if !Reads(instrs[j], reset.Name) && !Writes(instrs[j], reset.Name) {
				continue
			}
			//
			copied, ok := instrs[j].(Copy)
			if !ok {
				break
			}
			//
			src, ok := copied.Src.(Id)
			if !ok || src.Name != reset.Name || usedBeyond(instrs[j+1:], reset.Name) {
				break
			}
			//
			instrs[j] = Alias{Dst: copied.Dst, Src: copied.Src}
			//
			break
		}
	}
	//
	return instrs
}

// Apply a list transformation to every nested region.
func mapNested(instrs []Instr, fn func([]Instr) []Instr) []Instr {
	out := make([]Instr, len(instrs))
	//
	for i, instr := range instrs {
		switch instr := instr.(type) {
		case If:
			out[i] = If{Cond: instr.Cond, Then: fn(instr.Then), Else: fn(instr.Else), Rep: instr.Rep}
		case Block:
			out[i] = Block{fn(instr.Body)}
		case TryBlock:
			out[i] = TryBlock{fn(instr.Body)}
		default:
			out[i] = instr
		}
	}
	//
	return out
}

func declNameOf(instr Instr) (string, bool) {
	if decl, ok := instr.(Decl); ok {
		return decl.Name, true
	}
	//
	return "", false
}

// Match a plain local-to-local copy "dst = src", returning the source name
// when the destination is the given local.
func copyBetween(instr Instr, dst string) (string, bool) {
	copied, ok := instr.(Copy)
	if !ok {
		return "", false
	}
	//
	target, ok := copied.Dst.(LocId)
	if !ok || target.Name != dst {
		return "", false
	}
	//
	src, ok := copied.Src.(Id)
	if !ok {
		return "", false
	}
	//
	return src.Name, true
}

// Match a plain local-to-local copy "dst = src", returning the destination
// name when the source is the given local.
func copyFrom(instr Instr, src string) (string, bool) {
	copied, ok := instr.(Copy)
	if !ok {
		return "", false
	}
	//
	from, ok := copied.Src.(Id)
	if !ok || from.Name != src {
		return "", false
	}
	//
	target, ok := copied.Dst.(LocId)
	if !ok {
		return "", false
	}
	//
	return target.Name, true
}

func declaredBefore(instrs []Instr, name string) bool {
	for _, instr := range instrs {
		if declared, ok := declOf(instr); ok && declared == name {
			return true
		}
	}
	//
	return false
}

func usedBeyond(instrs []Instr, name string) bool {
	return ReadsAny(instrs, name) || WritesAny(instrs, name)
}
