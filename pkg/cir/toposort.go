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

// SortTypeDefs orders type definitions so that every type used inside a
// definition has been defined before it.  Ties are broken by insertion
// order.  Dependencies mediated by lists and vectors are ignored, since
// those indirect through separately-declared auxiliary types; a remaining
// cycle among definitions is a fatal input error.
func SortTypeDefs(defs []TypeDef) ([]TypeDef, error) {
	var (
		index = map[string]uint{}
		deps  = make([][]uint, len(defs))
	)
	//
	for i, def := range defs {
		index[def.TypeId()] = uint(i)
	}
	// Build the adjacency map: an edge a -> b means a is used inside the
	// definition of b.
	for i, def := range defs {
		for _, id := range typeDeps(def) {
			if j, ok := index[id]; ok && j != uint(i) {
				deps[i] = append(deps[i], j)
			}
		}
	}
	// Iterative depth-first postorder.  A grey node reached again means a
	// cycle.
	var (
		sorted  []TypeDef
		visited = bitset.New(uint(len(defs)))
		grey    = bitset.New(uint(len(defs)))
	)
	//
	type frame struct {
		node     uint
		expanded bool
	}
	//
	for i := range defs {
		if visited.Test(uint(i)) {
			continue
		}
		//
		stack := []frame{{uint(i), false}}
		//
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			//
			if top.expanded {
				grey.Clear(top.node)
				//
				if !visited.Test(top.node) {
					visited.Set(top.node)
					sorted = append(sorted, defs[top.node])
				}
				//
				stack = stack[:len(stack)-1]
				//
				continue
			}
			//
			top.expanded = true
			grey.Set(top.node)
			// Push dependencies in reverse, so they complete in insertion
			// order.
			children := deps[top.node]
			for k := len(children) - 1; k >= 0; k-- {
				child := children[k]
				//
				if grey.Test(child) {
					return nil, fmt.Errorf("cycle in type definitions involving %s and %s",
						defs[top.node].TypeId(), defs[child].TypeId())
				}
				//
				if !visited.Test(child) {
					stack = append(stack, frame{child, false})
				}
			}
		}
	}
	//
	return sorted, nil
}

// The identifiers of the named types used directly inside a definition.
// List and vector elements are excluded: they live behind pointers within
// auxiliary node types, which forward declarations resolve.
func typeDeps(def TypeDef) []string {
	var reps []Rep
	//
	switch def := def.(type) {
	case *StructDef:
		for _, f := range def.Fields {
			reps = append(reps, f.Rep)
		}
	case *VariantDef:
		for _, c := range def.Ctors {
			reps = append(reps, c.Arg)
		}
	}
	//
	var (
		ids   []string
		stack = reps
	)
	//
	for len(stack) > 0 {
		var next Rep
		//
		next, stack = stack[len(stack)-1], stack[:len(stack)-1]
		//
		switch next := next.(type) {
		case Struct:
			ids = append(ids, next.Id)
		case Variant:
			ids = append(ids, next.Id)
		case Enum:
			ids = append(ids, next.Id)
		case Tup:
			stack = append(stack, next.Elems...)
		case Ref:
			stack = append(stack, next.Elem)
		}
	}
	//
	return ids
}
