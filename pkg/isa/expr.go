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
package isa

import (
	"math/big"

	"github.com/consensys/go-isagen/pkg/util/source"
)

// Expr is a typed expression of the source IR.  Every expression knows its
// own type (assigned by the front-end type checker) and its location in the
// original specification.
type Expr interface {
	// TypeOf returns the type assigned by the front end.
	TypeOf() Type
	// LocOf returns the location of this expression in the original source.
	LocOf() source.Loc
}

// ExprBase carries the fields common to all expressions.
type ExprBase struct {
	Type Type
	Loc  source.Loc
}

// TypeOf returns the type assigned by the front end.
func (p ExprBase) TypeOf() Type { return p.Type }

// LocOf returns the location of this expression in the original source.
func (p ExprBase) LocOf() source.Loc { return p.Loc }

// Lit is a literal of the source algebra.
type Lit struct {
	ExprBase
	// Exactly one of the following is set, according to Type.
	Int    *big.Int
	Bits   *big.Int
	Width  uint
	Bool   bool
	Str    string
	Real   string
	IsUnit bool
}

// Var references a bound local, parameter, register or enumeration
// constructor.
type Var struct {
	ExprBase
	Name string
}

// Let binds the value of an expression within a body.
type Let struct {
	ExprBase
	Name  string
	Bound Expr
	Body  Expr
}

// If is a conditional expression.
type If struct {
	ExprBase
	Cond Expr
	Then Expr
	Else Expr
}

// App is a call to a generated function or to a primitive operation.
type App struct {
	ExprBase
	Fn   string
	Args []Expr
}

// Tuple constructs a product value.
type Tuple struct {
	ExprBase
	Elems []Expr
}

// Field projects a field out of a record value.
type Field struct {
	ExprBase
	Arg  Expr
	Name string
}

// StructLit constructs a record value from named fields.
type StructLit struct {
	ExprBase
	Id     string
	Names  []string
	Values []Expr
}

// Ctor applies a variant constructor.
type Ctor struct {
	ExprBase
	Name string
	Arg  Expr
}

// VectorLit constructs a vector from element expressions.
type VectorLit struct {
	ExprBase
	Elems []Expr
}

// ListLit constructs a list from element expressions.
type ListLit struct {
	ExprBase
	Elems []Expr
}

// Cast re-types an expression; the underlying value is unchanged, though its
// representation may differ.
type Cast struct {
	ExprBase
	Arg Expr
}

// Match scrutinises a value against an ordered list of pattern arms.
type Match struct {
	ExprBase
	Scrutinee Expr
	Arms      []Arm
}

// Try evaluates a body, transferring control to the handler arms when an
// exception is thrown.
type Try struct {
	ExprBase
	Body Expr
	Arms []Arm
}

// Throw raises an exception value.
type Throw struct {
	ExprBase
	Arg Expr
}

// Return exits the enclosing function early with a value.
type Return struct {
	ExprBase
	Arg Expr
}

// Block evaluates statements in sequence, producing the value of the last.
type Block struct {
	ExprBase
	Stmts []Expr
}

// Assign writes a value into a mutable local or register.
type Assign struct {
	ExprBase
	Name string
	// TargetType is the declared type of the assignment target.
	TargetType Type
	// Fields traces a path of field projections below the named target, e.g.
	// r.f.g = v.  Empty for a plain assignment.
	Fields []string
	Value  Expr
}

// ForEach iterates an index over an inclusive range.  Loop indices are
// assumed to fit a 64-bit machine integer.
type ForEach struct {
	ExprBase
	Index string
	From  Expr
	To    Expr
	Step  Expr
	Up    bool
	Body  Expr
}

// Loop is a while or until loop.
type Loop struct {
	ExprBase
	// While indicates the condition is checked before the body.
	While bool
	Cond  Expr
	Body  Expr
}

// Arm is a single pattern-matching arm.
type Arm struct {
	Pattern Pattern
	Guard   Expr
	Body    Expr
}

// Pattern is a pattern of the source IR.
type Pattern interface {
	pattern()
}

// PatWild matches anything, binding nothing.
type PatWild struct{}

// PatVar matches anything, binding it to a name.
type PatVar struct {
	Name string
	Type Type
}

// PatLit matches a literal value.
type PatLit struct {
	Lit *Lit
}

// PatTuple destructures a product value.
type PatTuple struct {
	Elems []Pattern
}

// PatCtor matches a variant constructor, destructuring its argument.
type PatCtor struct {
	Name string
	Arg  Pattern
}

func (PatWild) pattern()  {}
func (PatVar) pattern()   {}
func (PatLit) pattern()   {}
func (PatTuple) pattern() {}
func (PatCtor) pattern()  {}
