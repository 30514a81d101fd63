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

// Package anf provides the A-normal form the backend compiles from: an
// expression tree in which every operand position holds an atomic value.  The
// normaliser flattens arbitrary source expressions into this form, binding
// intermediate results with fresh lets, and annotates every leaf with both
// its source type and its lowered representation.
package anf

import (
	"github.com/consensys/go-isagen/pkg/cir"
	"github.com/consensys/go-isagen/pkg/isa"
	"github.com/consensys/go-isagen/pkg/util"
)

// Val is an atomic value: the only forms allowed as operands of a primitive
// call, branch condition or field access after normalisation.
type Val interface {
	// RepOf returns the lowered representation of this value.
	RepOf() cir.Rep
}

// Lit is a literal.
type Lit struct {
	Lit cir.Literal
	Rep cir.Rep
}

// Id references a bound name.
type Id struct {
	Name string
	Rep  cir.Rep
}

// Tuple is a tuple of atomic values.
type Tuple struct {
	Elems []Val
	Rep   cir.Rep
}

// Inline is an already-inline target fragment, produced when a previous pass
// has specialised part of the tree.  Later passes pass it through untouched.
type Inline struct {
	Val cir.Val
}

// RepOf for Lit.
func (p Lit) RepOf() cir.Rep { return p.Rep }

// RepOf for Id.
func (p Id) RepOf() cir.Rep { return p.Rep }

// RepOf for Tuple.
func (p Tuple) RepOf() cir.Rep { return p.Rep }

// RepOf for Inline.
func (p Inline) RepOf() cir.Rep { return p.Val.RepOf() }

// Expr is an expression in A-normal form.  Every expression knows the
// representation of the value it produces.
type Expr interface {
	// RepOf returns the lowered representation of the produced value.
	RepOf() cir.Rep
}

// EVal returns an atomic value.
type EVal struct {
	Val Val
}

// EApp calls a generated function or primitive over atomic arguments.
type EApp struct {
	Fn     string
	Extern bool
	Args   []Val
	Rep    cir.Rep
}

// ECtor applies a variant constructor to an atomic argument.
type ECtor struct {
	Ctor string
	// Variant is the representation of the constructed union.
	Variant cir.Rep
	Arg     Val
}

// EField projects a field from an atomic value.
type EField struct {
	Arg   Val
	Field string
	Rep   cir.Rep
}

// ELet binds the result of one expression within another.
type ELet struct {
	Name string
	Rep  cir.Rep
	// Mut indicates the binding is assigned to within the body.
	Mut   bool
	Bound Expr
	Body  Expr
}

// EIf branches on an atomic condition.
type EIf struct {
	Cond Val
	Then Expr
	Else Expr
	Rep  cir.Rep
}

// Arm is a single pattern-match arm over an atomic scrutinee.
type Arm struct {
	Pattern isa.Pattern
	Guard   util.Option[Expr]
	Body    Expr
}

// EMatch scrutinises an atomic value against pattern arms.
type EMatch struct {
	Scrut Val
	Arms  []Arm
	Rep   cir.Rep
}

// ETry evaluates a body with handler arms for thrown exceptions.
type ETry struct {
	Body Expr
	Arms []Arm
	Rep  cir.Rep
}

// EThrow raises an atomic exception value.
type EThrow struct {
	Arg Val
}

// EReturn exits the enclosing function early with an atomic value.
type EReturn struct {
	Arg Val
}

// EBlock evaluates expressions in sequence, producing the last.
type EBlock struct {
	Stmts []Expr
}

// EAssign writes the value of an expression into a mutable local or
// register, possibly below a path of field projections.
type EAssign struct {
	Name   string
	Rep    cir.Rep
	Fields []string
	// FieldReps carries the representation at each projection step.
	FieldReps []cir.Rep
	Value     Expr
}

// EStruct constructs a record value from named atomic fields.
type EStruct struct {
	Id    string
	Names []string
	Vals  []Val
	Rep   cir.Rep
}

// EVectorLit constructs a vector from atomic elements.
type EVectorLit struct {
	Elems []Val
	Rep   cir.Rep
}

// EListLit constructs a list from atomic elements.
type EListLit struct {
	Elems []Val
	Rep   cir.Rep
}

// ECast re-types an atomic value into another representation.
type ECast struct {
	Arg Val
	Rep cir.Rep
}

// EFor iterates a 64-bit machine index over an inclusive range.
type EFor struct {
	Index string
	From  Val
	To    Val
	Step  Val
	Up    bool
	Body  Expr
}

// ELoop is a while or until loop.
type ELoop struct {
	While bool
	Cond  Expr
	Body  Expr
}

// RepOf for EVal.
func (p EVal) RepOf() cir.Rep { return p.Val.RepOf() }

// RepOf for EApp.
func (p EApp) RepOf() cir.Rep { return p.Rep }

// RepOf for ECtor.
func (p ECtor) RepOf() cir.Rep { return p.Variant }

// RepOf for EField.
func (p EField) RepOf() cir.Rep { return p.Rep }

// RepOf for ELet.
func (p ELet) RepOf() cir.Rep { return p.Body.RepOf() }

// RepOf for EIf.
func (p EIf) RepOf() cir.Rep { return p.Rep }

// RepOf for EMatch.
func (p EMatch) RepOf() cir.Rep { return p.Rep }

// RepOf for ETry.
func (p ETry) RepOf() cir.Rep { return p.Rep }

// RepOf for EThrow.
func (p EThrow) RepOf() cir.Rep { return cir.Unit{} }

// RepOf for EReturn.
func (p EReturn) RepOf() cir.Rep { return cir.Unit{} }

// RepOf for EBlock.
func (p EBlock) RepOf() cir.Rep {
	if n := len(p.Stmts); n > 0 {
		return p.Stmts[n-1].RepOf()
	}
	//
	return cir.Unit{}
}

// RepOf for EAssign.
func (p EAssign) RepOf() cir.Rep { return cir.Unit{} }

// RepOf for EStruct.
func (p EStruct) RepOf() cir.Rep { return p.Rep }

// RepOf for EVectorLit.
func (p EVectorLit) RepOf() cir.Rep { return p.Rep }

// RepOf for EListLit.
func (p EListLit) RepOf() cir.Rep { return p.Rep }

// RepOf for ECast.
func (p ECast) RepOf() cir.Rep { return p.Rep }

// RepOf for EFor.
func (p EFor) RepOf() cir.Rep { return cir.Unit{} }

// RepOf for ELoop.
func (p ELoop) RepOf() cir.Rep { return cir.Unit{} }
