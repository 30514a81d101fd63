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
	"strings"

	log "github.com/sirupsen/logrus"
)

// SpecialiseVariants monomorphises the polymorphic constructors of every
// tagged-union definition by call-site usage.  For each call of a
// polymorphic constructor, the declared argument representation is unified
// against the actual argument, each binding is promoted to its supremum, and
// a fresh monomorphic constructor is synthesised whose identifier encodes
// the unifier.  Call sites are rewritten to the fresh constructor with
// explicit representation casts.  Afterwards, the constructor list of the
// union holds the originally-monomorphic constructors plus those actually
// synthesised; any remaining polymorphism is fatal.
func SpecialiseVariants(program *Program) error {
	for _, def := range program.Types {
		variant, ok := def.(*VariantDef)
		if !ok || !hasPolyCtor(variant) {
			continue
		}
		//
		specialiseVariant(program, variant)
		//
		if IsPoly(Variant{Id: variant.Id, Ctors: variant.Ctors}) {
			return fmt.Errorf("union %s remains polymorphic after specialisation", variant.Id)
		}
	}
	//
	return nil
}

func hasPolyCtor(def *VariantDef) bool {
	for _, c := range def.Ctors {
		if IsPoly(c.Arg) {
			return true
		}
	}
	//
	return false
}

func specialiseVariant(program *Program, def *VariantDef) {
	var (
		// Constructors which were monomorphic to begin with.
		ctors []Ctor
		// Synthesised constructors, keyed by name for deduplication.
		fresh = map[string]Ctor{}
		order []string
		poly  = map[string]Ctor{}
	)
	//
	for _, c := range def.Ctors {
		if IsPoly(c.Arg) {
			poly[c.Name] = c
		} else {
			ctors = append(ctors, c)
		}
	}
	// Rewrite call sites of polymorphic constructors across every function.
	for _, fn := range program.Fns {
		fn.Body = specialiseInstrs(fn.Body, poly, fresh, &order)
	}
	//
	for i := range program.Lets {
		program.Lets[i].Setup = specialiseInstrs(program.Lets[i].Setup, poly, fresh, &order)
	}
	//
	for _, name := range order {
		ctors = append(ctors, fresh[name])
	}
	//
	log.Debugf("specialised %d constructors of union %s", len(order), def.Id)
	//
	def.Ctors = ctors
}

func specialiseInstrs(instrs []Instr, poly map[string]Ctor, fresh map[string]Ctor, order *[]string) []Instr {
	var ninstrs []Instr
	//
	for _, instr := range instrs {
		switch instr := instr.(type) {
		case Funcall:
			if ctor, ok := poly[instr.Fn]; ok && instr.Ctor {
				ninstrs = append(ninstrs, specialiseCall(instr, ctor, fresh, order)...)
				continue
			}
		case If:
			ninstrs = append(ninstrs, If{
				Cond: instr.Cond,
				Then: specialiseInstrs(instr.Then, poly, fresh, order),
				Else: specialiseInstrs(instr.Else, poly, fresh, order),
				Rep:  instr.Rep,
			})
			//
			continue
		case Block:
			ninstrs = append(ninstrs, Block{specialiseInstrs(instr.Body, poly, fresh, order)})
			continue
		case TryBlock:
			ninstrs = append(ninstrs, TryBlock{specialiseInstrs(instr.Body, poly, fresh, order)})
			continue
		}
		//
		ninstrs = append(ninstrs, instr)
	}
	//
	return ninstrs
}

// Rewrite one call of a polymorphic constructor.  The actual argument
// determines the unifier; its bindings are promoted to their suprema before
// instantiating the declared argument representation.
func specialiseCall(call Funcall, ctor Ctor, fresh map[string]Ctor, order *[]string) []Instr {
	var (
		actual  = call.Args[0].RepOf()
		unifier = map[string]Rep{}
	)
	//
	if !unify(ctor.Arg, actual, unifier) {
		panic(fmt.Sprintf("cannot unify constructor %s against %s", ctor.Name, actual))
	}
	// Promote every constituent to its supremum representation.
	for id, rep := range unifier {
		unifier[id] = Suprema(rep)
	}
	//
	var (
		instantiated = instantiate(ctor.Arg, unifier)
		name         = ctor.Name + encodeUnifier(ctor.Arg, unifier)
	)
	//
	if _, ok := fresh[name]; !ok {
		fresh[name] = Ctor{Name: name, Arg: instantiated}
		*order = append(*order, name)
	}
	// Insert a representation cast when the actual argument does not already
	// have the instantiated representation.
	if Equal(actual, instantiated) {
		return []Instr{Funcall{Dst: call.Dst, Ctor: true, Fn: name, Args: call.Args}}
	}
	//
	var (
		tmp  = fmt.Sprintf("cast$%s$%d", name, len(*order))
		decl = Decl{Rep: instantiated, Name: tmp}
		conv = Copy{Dst: LocId{Name: tmp, Rep: instantiated}, Src: call.Args[0]}
		app  = Funcall{Dst: call.Dst, Ctor: true, Fn: name, Args: []Val{Id{Name: tmp, Rep: instantiated}}}
	)
	//
	instrs := []Instr{decl, conv, app}
	//
	if !instantiated.IsStack() {
		instrs = append(instrs, Clear{Rep: instantiated, Name: tmp})
	}
	//
	return instrs
}

// Unify a declared representation (which may contain deferred placeholders)
// against an actual representation, accumulating the binding of each
// placeholder.
func unify(declared Rep, actual Rep, unifier map[string]Rep) bool {
	switch declared := declared.(type) {
	case Poly:
		if bound, ok := unifier[declared.Id]; ok {
			return Equal(bound, actual)
		}
		//
		unifier[declared.Id] = actual
		//
		return true
	case Tup:
		tup, ok := actual.(Tup)
		if !ok || len(tup.Elems) != len(declared.Elems) {
			return false
		}
		//
		for i, e := range declared.Elems {
			if !unify(e, tup.Elems[i], unifier) {
				return false
			}
		}
		//
		return true
	case List:
		list, ok := actual.(List)
		return ok && unify(declared.Elem, list.Elem, unifier)
	case Vector:
		vector, ok := actual.(Vector)
		return ok && declared.Dir == vector.Dir && unify(declared.Elem, vector.Elem, unifier)
	case Ref:
		ref, ok := actual.(Ref)
		return ok && unify(declared.Elem, ref.Elem, unifier)
	default:
		// Heap-allocated forms absorb their fixed counterparts, since the
		// promotion which follows takes everything to its supremum anyway.
		return Equal(Suprema(declared), Suprema(actual)) || Equal(declared, actual)
	}
}

// Instantiate a declared representation under a unifier.
func instantiate(rep Rep, unifier map[string]Rep) Rep {
	switch rep := rep.(type) {
	case Poly:
		if bound, ok := unifier[rep.Id]; ok {
			return bound
		}
		//
		return rep
	case Tup:
		elems := make([]Rep, len(rep.Elems))
		for i, e := range rep.Elems {
			elems[i] = instantiate(e, unifier)
		}
		//
		return Tup{elems}
	case List:
		return List{instantiate(rep.Elem, unifier)}
	case Vector:
		return Vector{rep.Dir, instantiate(rep.Elem, unifier)}
	case Ref:
		return Ref{instantiate(rep.Elem, unifier)}
	default:
		return rep
	}
}

// Encode a unifier as an identifier suffix, binding by binding in the order
// the placeholders occur within the declared representation.
func encodeUnifier(declared Rep, unifier map[string]Rep) string {
	var (
		builder strings.Builder
		seen    = map[string]bool{}
	)
	//
	for _, id := range polyIdsOf(declared) {
		if seen[id] {
			continue
		}
		//
		seen[id] = true
		//
		builder.WriteString("_")
		builder.WriteString(encodeRep(unifier[id]))
	}
	//
	return builder.String()
}

// The placeholder identifiers of a representation, in occurrence order.  The
// walk is driven by an explicit stack since declared representations can
// nest arbitrarily.
func polyIdsOf(rep Rep) []string {
	var (
		ids   []string
		stack = []Rep{rep}
	)
	//
	for len(stack) > 0 {
		var next Rep
		//
		next, stack = stack[0], stack[1:]
		//
		switch next := next.(type) {
		case Poly:
			ids = append(ids, next.Id)
		case Tup:
			stack = append(next.Elems, stack...)
		case List:
			stack = append([]Rep{next.Elem}, stack...)
		case Vector:
			stack = append([]Rep{next.Elem}, stack...)
		case Ref:
			stack = append([]Rep{next.Elem}, stack...)
		}
	}
	//
	return ids
}

// A canonical identifier fragment for a representation.
func encodeRep(rep Rep) string {
	spelling := rep.String()
	spelling = strings.ReplaceAll(spelling, " ", "_")
	//
	return spelling
}
