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
	"github.com/consensys/go-isagen/pkg/util/source"
)

// Def is a top-level definition of the source IR.
type Def interface {
	def()
}

// FnParam pairs a parameter name with its declared type.
type FnParam struct {
	Name string
	Type Type
}

// FnDef defines a function: parameters, declared signature and body.  The
// signature may bind kind variables which the parameter and return types
// mention.
type FnDef struct {
	Name string
	// Kind variables bound by the signature, with their constraints.
	Kids        []string
	Constraints []Constraint
	Params      []FnParam
	// Arg is the declared argument type of the function's signature; for
	// multi-parameter functions this is a tuple whose arity must agree with
	// Params.
	Arg  Type
	Ret  Type
	Body Expr
	Loc  source.Loc
}

// TypeDefKind distinguishes the forms a type definition can take.
type TypeDefKind uint8

const (
	// SynonymDef is a transparent type synonym.
	SynonymDef TypeDefKind = iota
	// RecordDef is a named record.
	RecordDef
	// VariantDefKind is a named tagged union.
	VariantDefKind
	// EnumDefKind is a named enumeration.
	EnumDefKind
)

// TypeDef defines a named type.  Exactly one of the payload fields is set,
// according to Kind.
type TypeDef struct {
	Kind    TypeDefKind
	Id      string
	Synonym Type
	Record  *RecordDecl
	Variant *VariantDecl
	Enum    *EnumDecl
	Loc     source.Loc
}

// RegisterDef declares a hardware register.
type RegisterDef struct {
	Name string
	Type Type
	Loc  source.Loc
}

// LetDef is a top-level binding, initialised at model start-up.
type LetDef struct {
	Names []string
	Types []Type
	Init  Expr
	Loc   source.Loc
}

// ExternDef binds a primitive operation name to its runtime implementation.
type ExternDef struct {
	Name    string
	Binding string
	Loc     source.Loc
}

func (*FnDef) def()       {}
func (*TypeDef) def()     {}
func (*RegisterDef) def() {}
func (*LetDef) def()      {}
func (*ExternDef) def()   {}
