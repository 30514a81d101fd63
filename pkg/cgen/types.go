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
package cgen

import (
	"fmt"
	"strings"

	"github.com/consensys/go-isagen/pkg/cir"
)

// CType returns the C type denoting a representation.
func CType(rep cir.Rep) string {
	switch rep := rep.(type) {
	case cir.Unit:
		return "unit"
	case cir.Bit:
		return "mach_bits"
	case cir.Bool:
		return "bool"
	case cir.Enum:
		return "enum " + Zencode(rep.Id)
	case cir.FInt:
		return "mach_int"
	case cir.LInt:
		return "ap_int"
	case cir.FBits:
		return "mach_bits"
	case cir.SBits:
		return "sbits"
	case cir.LBits:
		return "ap_bits"
	case cir.String:
		return "rt_string"
	case cir.Real:
		return "rt_real"
	case cir.Tup:
		return "struct " + Token(rep)
	case cir.Struct:
		return "struct " + Zencode(rep.Id)
	case cir.Variant:
		return "struct " + Zencode(rep.Id)
	case cir.List:
		return Token(rep)
	case cir.Vector:
		return "struct " + Token(rep)
	case cir.Ref:
		return CType(rep.Elem) + " *"
	default:
		panic(fmt.Sprintf("representation %s has no C type", rep))
	}
}

// Token returns the identifier fragment used to name a representation within
// generated helper names and auxiliary type definitions, e.g.
// CREATE(Token(rep)).  Tokens coincide for identical representations, which
// is what deduplicates auxiliary definitions.
func Token(rep cir.Rep) string {
	switch rep := rep.(type) {
	case cir.Enum:
		return Zencode(rep.Id)
	case cir.Struct:
		return Zencode(rep.Id)
	case cir.Variant:
		return Zencode(rep.Id)
	case cir.Tup, cir.List, cir.Vector:
		return sanitise(rep.String())
	default:
		return CType(rep)
	}
}

func sanitise(spelling string) string {
	spelling = strings.ReplaceAll(spelling, " ", "_")
	spelling = strings.ReplaceAll(spelling, "$", "_")
	//
	return spelling
}

// Collect every tuple, list and vector representation occurring anywhere
// within a representation, innermost first.
func auxRepsOf(rep cir.Rep, aux *[]cir.Rep, seen map[string]bool) {
	switch rep := rep.(type) {
	case cir.Tup:
		for _, e := range rep.Elems {
			auxRepsOf(e, aux, seen)
		}
		//
		record(rep, aux, seen)
	case cir.List:
		auxRepsOf(rep.Elem, aux, seen)
		record(rep, aux, seen)
	case cir.Vector:
		auxRepsOf(rep.Elem, aux, seen)
		record(rep, aux, seen)
	case cir.Struct:
		for _, f := range rep.Fields {
			auxRepsOf(f.Rep, aux, seen)
		}
	case cir.Variant:
		for _, c := range rep.Ctors {
			auxRepsOf(c.Arg, aux, seen)
		}
	case cir.Ref:
		auxRepsOf(rep.Elem, aux, seen)
	}
}

func record(rep cir.Rep, aux *[]cir.Rep, seen map[string]bool) {
	key := rep.String()
	//
	if !seen[key] {
		seen[key] = true
		*aux = append(*aux, rep)
	}
}

// A unit of type emission: either a user-declared definition or an auxiliary
// representation.
type typeUnit struct {
	token string
	def   cir.TypeDef
	aux   cir.Rep
}

// emitTypes renders every type the program needs, each at most once
// (auxiliary types deduplicated by the canonical spelling of their
// representation), in an order where every by-value member type is fully
// defined before use.  Lists indirect through pointers, so their typedefs are
// forward declared up front and only their cell bodies participate in the
// ordering.
func (p *Emitter) emitTypes(program *cir.Program) {
	var (
		aux   = collectAuxReps(program)
		units []typeUnit
	)
	//
	for _, def := range program.Types {
		units = append(units, typeUnit{tokenOfDef(def), def, nil})
	}
	//
	for _, rep := range aux {
		token := Token(rep)
		//
		if list, ok := rep.(cir.List); ok {
			p.printf("struct node_%s;\ntypedef struct node_%s *%s;\n", token, token, token)
			units = append(units, typeUnit{token, nil, list})
			//
			continue
		}
		//
		units = append(units, typeUnit{token, nil, rep})
	}
	//
	p.printf("\n")
	// Emit units as their dependencies complete, scanning in insertion order
	// so unrelated definitions keep their declared order.  User definitions
	// arrive topologically sorted, so this terminates unless the input held a
	// by-value cycle, which the sort has already rejected.
	known := map[string]bool{}
	for _, unit := range units {
		known[unit.token] = true
	}
	//
	for emitted := true; emitted && len(units) > 0; {
		emitted = false
		//
		var pending []typeUnit
		//
		for _, unit := range units {
			if p.unitReady(unit, known) {
				p.emitTypeUnit(unit)
				p.generated[unit.token] = true
				emitted = true
			} else {
				pending = append(pending, unit)
			}
		}
		//
		units = pending
	}
	//
	if len(units) > 0 {
		panic(fmt.Sprintf("unresolvable type definition order (%s)", units[0].token))
	}
}

func (p *Emitter) unitReady(unit typeUnit, known map[string]bool) bool {
	var deps []string
	//
	if unit.def != nil {
		deps = defDeps(unit.def)
	} else {
		deps = repDeps(unit.aux)
	}
	//
	for _, dep := range deps {
		if known[dep] && !p.generated[dep] {
			return false
		}
	}
	//
	return true
}

func (p *Emitter) emitTypeUnit(unit typeUnit) {
	if unit.def != nil {
		p.emitTypeDef(unit.def)
		return
	}
	//
	switch rep := unit.aux.(type) {
	case cir.Tup:
		p.emitTupleType(rep, unit.token)
	case cir.List:
		p.emitListType(rep, unit.token)
	case cir.Vector:
		p.emitVectorType(rep, unit.token)
	}
}

func tokenOfDef(def cir.TypeDef) string {
	return Zencode(def.TypeId())
}

// The tokens a definition needs fully defined before it can be emitted.
func defDeps(def cir.TypeDef) []string {
	var reps []cir.Rep
	//
	switch def := def.(type) {
	case *cir.StructDef:
		for _, f := range def.Fields {
			reps = append(reps, f.Rep)
		}
	case *cir.VariantDef:
		for _, c := range def.Ctors {
			reps = append(reps, c.Arg)
		}
	}
	//
	var deps []string
	//
	for _, rep := range reps {
		if token, ok := fullDepOf(rep); ok {
			deps = append(deps, token)
		}
	}
	//
	return deps
}

// The tokens an auxiliary representation needs fully defined.  List cells
// hold their element by value; tuple components and vector elements
// likewise.
func repDeps(rep cir.Rep) []string {
	var (
		elems []cir.Rep
		deps  []string
	)
	//
	switch rep := rep.(type) {
	case cir.Tup:
		elems = rep.Elems
	case cir.List:
		elems = []cir.Rep{rep.Elem}
	case cir.Vector:
		elems = []cir.Rep{rep.Elem}
	}
	//
	for _, e := range elems {
		if token, ok := fullDepOf(e); ok {
			deps = append(deps, token)
		}
	}
	//
	return deps
}

// The token of a representation which must be fully defined before a value
// of it can be held by value.  Lists are pointers behind a typedef which is
// forward declared, so they impose no ordering.
func fullDepOf(rep cir.Rep) (string, bool) {
	switch rep.(type) {
	case cir.Tup, cir.Vector, cir.Struct, cir.Variant, cir.Enum:
		return Token(rep), true
	default:
		return "", false
	}
}

func (p *Emitter) emitTupleType(rep cir.Tup, token string) {
	p.printf("struct %s {\n", token)
	//
	for i, e := range rep.Elems {
		p.printf("  %s ztup%d;\n", CType(e), i)
	}
	//
	p.printf("};\n\n")
	//
	if rep.IsStack() {
		return
	}
	// Lifecycle helpers, memberwise.
	p.printf("static void create_%s(struct %s *rop) {\n", token, token)
	//
	for i, e := range rep.Elems {
		if !e.IsStack() {
			p.printf("  CREATE(%s)(&rop->ztup%d);\n", Token(e), i)
		}
	}
	//
	p.printf("}\n\n")
	p.printf("static void recreate_%s(struct %s *rop) {\n", token, token)
	//
	for i, e := range rep.Elems {
		if !e.IsStack() {
			p.printf("  RECREATE(%s)(&rop->ztup%d);\n", Token(e), i)
		}
	}
	//
	p.printf("}\n\n")
	p.printf("static void kill_%s(struct %s *rop) {\n", token, token)
	//
	for i, e := range rep.Elems {
		if !e.IsStack() {
			p.printf("  KILL(%s)(&rop->ztup%d);\n", Token(e), i)
		}
	}
	//
	p.printf("}\n\n")
	p.printf("static void copy_%s(struct %s *rop, struct %s op) {\n", token, token, token)
	//
	for i, e := range rep.Elems {
		if e.IsStack() {
			p.printf("  rop->ztup%d = op.ztup%d;\n", i, i)
		} else {
			p.printf("  COPY(%s)(&rop->ztup%d, op.ztup%d);\n", Token(e), i, i)
		}
	}
	//
	p.printf("}\n\n")
	p.printf("static bool equal_%s(struct %s op1, struct %s op2) {\n", token, token, token)
	p.printf("  return true")
	//
	for i, e := range rep.Elems {
		if e.IsStack() {
			p.printf(" && (op1.ztup%d == op2.ztup%d)", i, i)
		} else {
			p.printf(" && EQUAL(%s)(op1.ztup%d, op2.ztup%d)", Token(e), i, i)
		}
	}
	//
	p.printf(";\n}\n\n")
}

// A list is a pointer to a cons cell; the typedef was forward declared with
// the cell, so recursive element types resolve.
func (p *Emitter) emitListType(rep cir.List, token string) {
	var (
		elem  = CType(rep.Elem)
		etok  = Token(rep.Elem)
		eheap = !rep.Elem.IsStack()
	)
	//
	p.printf("struct node_%s {\n  %s hd;\n  struct node_%s *tl;\n};\n\n",
		token, elem, token)
	//
	p.printf("static void create_%s(%s *rop) {\n  *rop = NULL;\n}\n\n", token, token)
	p.printf("static void kill_%s(%s *rop) {\n", token, token)
	p.printf("  while (*rop != NULL) {\n    struct node_%s *tl = (*rop)->tl;\n", token)
	//
	if eheap {
		p.printf("    KILL(%s)(&(*rop)->hd);\n", etok)
	}
	//
	p.printf("    free(*rop);\n    *rop = tl;\n  }\n}\n\n")
	p.printf("static void recreate_%s(%s *rop) {\n  kill_%s(rop);\n}\n\n", token, token, token)
	p.printf("static void cons_%s(%s *rop, %s hd, %s tl) {\n", token, token, elem, token)
	p.printf("  *rop = malloc(sizeof(struct node_%s));\n", token)
	//
	if eheap {
		p.printf("  CREATE(%s)(&(*rop)->hd);\n  COPY(%s)(&(*rop)->hd, hd);\n", etok, etok)
	} else {
		p.printf("  (*rop)->hd = hd;\n")
	}
	//
	p.printf("  (*rop)->tl = tl;\n}\n\n")
	p.printf("static void copy_%s(%s *rop, %s op) {\n", token, token, token)
	p.printf("  kill_%s(rop);\n  %s *tl = rop;\n", token, token)
	p.printf("  for (; op != NULL; op = op->tl) {\n")
	p.printf("    *tl = malloc(sizeof(struct node_%s));\n", token)
	//
	if eheap {
		p.printf("    CREATE(%s)(&(*tl)->hd);\n    COPY(%s)(&(*tl)->hd, op->hd);\n", etok, etok)
	} else {
		p.printf("    (*tl)->hd = op->hd;\n")
	}
	//
	p.printf("    (*tl)->tl = NULL;\n    tl = &(*tl)->tl;\n  }\n}\n\n")
	p.printf("static bool equal_%s(%s op1, %s op2) {\n", token, token, token)
	p.printf("  for (; op1 != NULL && op2 != NULL; op1 = op1->tl, op2 = op2->tl) {\n")
	//
	if eheap {
		p.printf("    if (!EQUAL(%s)(op1->hd, op2->hd)) return false;\n", etok)
	} else {
		p.printf("    if (op1->hd != op2->hd) return false;\n")
	}
	//
	p.printf("  }\n  return op1 == op2;\n}\n\n")
}

func (p *Emitter) emitVectorType(rep cir.Vector, token string) {
	var (
		elem  = CType(rep.Elem)
		etok  = Token(rep.Elem)
		eheap = !rep.Elem.IsStack()
	)
	//
	p.printf("struct %s {\n  size_t len;\n  %s *data;\n};\n\n", token, elem)
	//
	p.printf("static void create_%s(struct %s *rop) {\n  rop->len = 0;\n  rop->data = NULL;\n}\n\n", token, token)
	p.printf("static void kill_%s(struct %s *rop) {\n", token, token)
	//
	if eheap {
		p.printf("  for (size_t i = 0; i < rop->len; i++) KILL(%s)(&rop->data[i]);\n", etok)
	}
	//
	p.printf("  free(rop->data);\n  rop->len = 0;\n  rop->data = NULL;\n}\n\n")
	p.printf("static void recreate_%s(struct %s *rop) {\n  kill_%s(rop);\n}\n\n", token, token, token)
	p.printf("static void copy_%s(struct %s *rop, struct %s op) {\n", token, token, token)
	p.printf("  kill_%s(rop);\n  rop->len = op.len;\n  rop->data = malloc(op.len * sizeof(%s));\n", token, elem)
	p.printf("  for (size_t i = 0; i < op.len; i++) {\n")
	//
	if eheap {
		p.printf("    CREATE(%s)(&rop->data[i]);\n    COPY(%s)(&rop->data[i], op.data[i]);\n", etok, etok)
	} else {
		p.printf("    rop->data[i] = op.data[i];\n")
	}
	//
	p.printf("  }\n}\n\n")
	p.printf("static bool equal_%s(struct %s op1, struct %s op2) {\n", token, token, token)
	p.printf("  if (op1.len != op2.len) return false;\n")
	p.printf("  for (size_t i = 0; i < op1.len; i++) {\n")
	//
	if eheap {
		p.printf("    if (!EQUAL(%s)(op1.data[i], op2.data[i])) return false;\n", etok)
	} else {
		p.printf("    if (op1.data[i] != op2.data[i]) return false;\n")
	}
	//
	p.printf("  }\n  return true;\n}\n\n")
}

// Emit a user-declared type definition, together with its lifecycle helpers.
func (p *Emitter) emitTypeDef(def cir.TypeDef) {
	switch def := def.(type) {
	case *cir.EnumDef:
		p.emitEnumDef(def)
	case *cir.StructDef:
		p.emitStructDef(def)
	case *cir.VariantDef:
		p.emitVariantDef(def)
	}
}

func (p *Emitter) emitEnumDef(def *cir.EnumDef) {
	ctors := make([]string, len(def.Ctors))
	for i, c := range def.Ctors {
		ctors[i] = Zencode(c)
	}
	//
	p.printf("enum %s { %s };\n\n", Zencode(def.Id), strings.Join(ctors, ", "))
}

func (p *Emitter) emitStructDef(def *cir.StructDef) {
	token := Zencode(def.Id)
	//
	p.printf("struct %s {\n", token)
	//
	for _, f := range def.Fields {
		p.printf("  %s %s;\n", CType(f.Rep), Zencode(f.Name))
	}
	//
	p.printf("};\n\n")
	//
	rep := cir.Struct{Id: def.Id, Fields: def.Fields}
	if rep.IsStack() {
		return
	}
	//
	p.printf("static void create_%s(struct %s *rop) {\n", token, token)
	//
	for _, f := range def.Fields {
		if !f.Rep.IsStack() {
			p.printf("  CREATE(%s)(&rop->%s);\n", Token(f.Rep), Zencode(f.Name))
		}
	}
	//
	p.printf("}\n\n")
	p.printf("static void recreate_%s(struct %s *rop) {\n", token, token)
	//
	for _, f := range def.Fields {
		if !f.Rep.IsStack() {
			p.printf("  RECREATE(%s)(&rop->%s);\n", Token(f.Rep), Zencode(f.Name))
		}
	}
	//
	p.printf("}\n\n")
	p.printf("static void kill_%s(struct %s *rop) {\n", token, token)
	//
	for _, f := range def.Fields {
		if !f.Rep.IsStack() {
			p.printf("  KILL(%s)(&rop->%s);\n", Token(f.Rep), Zencode(f.Name))
		}
	}
	//
	p.printf("}\n\n")
	p.printf("static void copy_%s(struct %s *rop, struct %s op) {\n", token, token, token)
	//
	for _, f := range def.Fields {
		if f.Rep.IsStack() {
			p.printf("  rop->%s = op.%s;\n", Zencode(f.Name), Zencode(f.Name))
		} else {
			p.printf("  COPY(%s)(&rop->%s, op.%s);\n", Token(f.Rep), Zencode(f.Name), Zencode(f.Name))
		}
	}
	//
	p.printf("}\n\n")
	p.printf("static bool equal_%s(struct %s op1, struct %s op2) {\n", token, token, token)
	p.printf("  return true")
	//
	for _, f := range def.Fields {
		if f.Rep.IsStack() {
			p.printf(" && (op1.%s == op2.%s)", Zencode(f.Name), Zencode(f.Name))
		} else {
			p.printf(" && EQUAL(%s)(op1.%s, op2.%s)", Token(f.Rep), Zencode(f.Name), Zencode(f.Name))
		}
	}
	//
	p.printf(";\n}\n\n")
}

// A tagged union is a kind enumeration plus an anonymous payload union; each
// constructor gets a creation function which callers invoke like any other
// generated function.
func (p *Emitter) emitVariantDef(def *cir.VariantDef) {
	// A union whose constructors were all specialised away is never
	// constructed, hence never referenced.
	if len(def.Ctors) == 0 {
		return
	}
	//
	token := Zencode(def.Id)
	//
	p.printf("enum kind_%s { ", token)
	//
	for i, c := range def.Ctors {
		if i != 0 {
			p.printf(", ")
		}
		//
		p.printf("Kind_%s", Zencode(c.Name))
	}
	//
	p.printf(" };\n\n")
	p.printf("struct %s {\n  enum kind_%s kind;\n  union {\n", token, token)
	//
	for _, c := range def.Ctors {
		p.printf("    %s %s;\n", CType(c.Arg), Zencode(c.Name))
	}
	//
	p.printf("  };\n};\n\n")
	// Lifecycle helpers dispatch on the active constructor.
	p.printf("static void create_%s(struct %s *rop) {\n", token, token)
	p.printf("  rop->kind = Kind_%s;\n", Zencode(def.Ctors[0].Name))
	//
	if !def.Ctors[0].Arg.IsStack() {
		p.printf("  CREATE(%s)(&rop->%s);\n", Token(def.Ctors[0].Arg), Zencode(def.Ctors[0].Name))
	}
	//
	p.printf("}\n\n")
	p.printf("static void kill_%s(struct %s *rop) {\n  switch (rop->kind) {\n", token, token)
	//
	for _, c := range def.Ctors {
		p.printf("  case Kind_%s:", Zencode(c.Name))
		//
		if c.Arg.IsStack() {
			p.printf(" break;\n")
		} else {
			p.printf(" KILL(%s)(&rop->%s); break;\n", Token(c.Arg), Zencode(c.Name))
		}
	}
	//
	p.printf("  }\n}\n\n")
	p.printf("static void recreate_%s(struct %s *rop) {\n  kill_%s(rop);\n", token, token, token)
	p.printf("  rop->kind = Kind_%s;\n", Zencode(def.Ctors[0].Name))
	//
	if !def.Ctors[0].Arg.IsStack() {
		p.printf("  CREATE(%s)(&rop->%s);\n", Token(def.Ctors[0].Arg), Zencode(def.Ctors[0].Name))
	}
	//
	p.printf("}\n\n")
	p.printf("static void copy_%s(struct %s *rop, struct %s op) {\n", token, token, token)
	p.printf("  kill_%s(rop);\n  rop->kind = op.kind;\n  switch (op.kind) {\n", token)
	//
	for _, c := range def.Ctors {
		p.printf("  case Kind_%s:", Zencode(c.Name))
		//
		if c.Arg.IsStack() {
			p.printf(" rop->%s = op.%s; break;\n", Zencode(c.Name), Zencode(c.Name))
		} else {
			p.printf(" CREATE(%s)(&rop->%s); COPY(%s)(&rop->%s, op.%s); break;\n",
				Token(c.Arg), Zencode(c.Name), Token(c.Arg), Zencode(c.Name), Zencode(c.Name))
		}
	}
	//
	p.printf("  }\n}\n\n")
	p.printf("static bool equal_%s(struct %s op1, struct %s op2) {\n", token, token, token)
	p.printf("  if (op1.kind != op2.kind) return false;\n  switch (op1.kind) {\n")
	//
	for _, c := range def.Ctors {
		p.printf("  case Kind_%s:", Zencode(c.Name))
		//
		if c.Arg.IsStack() {
			p.printf(" return op1.%s == op2.%s;\n", Zencode(c.Name), Zencode(c.Name))
		} else {
			p.printf(" return EQUAL(%s)(op1.%s, op2.%s);\n", Token(c.Arg), Zencode(c.Name), Zencode(c.Name))
		}
	}
	//
	p.printf("  }\n  return false;\n}\n\n")
	// Constructor functions.
	for _, c := range def.Ctors {
		p.printf("%svoid %s(struct %s *rop, %s op) {\n",
			p.linkage(), Zencode(c.Name), token, CType(c.Arg))
		p.printf("  recreate_%s(rop);\n  rop->kind = Kind_%s;\n", token, Zencode(c.Name))
		//
		if c.Arg.IsStack() {
			p.printf("  rop->%s = op;\n", Zencode(c.Name))
		} else {
			p.printf("  CREATE(%s)(&rop->%s);\n  COPY(%s)(&rop->%s, op);\n",
				Token(c.Arg), Zencode(c.Name), Token(c.Arg), Zencode(c.Name))
		}
		//
		p.printf("}\n\n")
	}
}
