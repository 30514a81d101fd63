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

// Param pairs a parameter name with its representation.
type Param struct {
	Name string
	Rep  Rep
}

// FnDef is a compiled function: a linear instruction body together with its
// signature at the representation level.  Functions whose return
// representation is not stack representable are heap-returning: the caller
// passes a pointer which the body fills.
type FnDef struct {
	Name   string
	Params []Param
	Ret    Rep
	// HeapRet indicates the result is written through a caller-provided
	// pointer rather than returned by value.
	HeapRet bool
	// Extern indicates the function is bound to a runtime primitive and has
	// no generated body.
	Extern bool
	Body   []Instr
	// Prologue holds declarations hoisted out of the body.
	Prologue []Instr
	// Epilogue holds the clears paired with hoisted declarations.
	Epilogue []Instr
}

// TypeDef is a generated type definition.
type TypeDef interface {
	// TypeId returns the identifier of the defined type.
	TypeId() string
}

// StructDef defines a named record type.
type StructDef struct {
	Id     string
	Fields []Field
}

// VariantDef defines a named tagged-union type.
type VariantDef struct {
	Id    string
	Ctors []Ctor
}

// EnumDef defines a named enumeration type.
type EnumDef struct {
	Id    string
	Ctors []string
}

// TypeId for StructDef.
func (p *StructDef) TypeId() string { return p.Id }

// TypeId for VariantDef.
func (p *VariantDef) TypeId() string { return p.Id }

// TypeId for EnumDef.
func (p *EnumDef) TypeId() string { return p.Id }

// RegDef declares a hardware register as a file-scope mutable cell.
type RegDef struct {
	Name string
	Rep  Rep
}

// LetDef is a compiled top-level binding: the bound names, the instructions
// which establish them at start-up, and the index used to derive the
// initialiser / finaliser pair.
type LetDef struct {
	Index    int
	Bindings []Param
	Setup    []Instr
}

// Program is the complete lowered form of a specification: everything the
// emitter needs to produce the final textual artifact.
type Program struct {
	Types     []TypeDef
	Registers []RegDef
	Lets      []LetDef
	Fns       []*FnDef
	// HasException indicates the source declared an exception variant, and
	// hence that the process-wide exception state must be generated.
	HasException bool
	// ExceptionRep is the representation of the exception variant, when
	// declared.
	ExceptionRep Rep
}

// FnOf returns the function with a given name, if any.
func (p *Program) FnOf(name string) (*FnDef, bool) {
	for _, fn := range p.Fns {
		if fn.Name == name {
			return fn, true
		}
	}
	//
	return nil, false
}

// TypeOf returns the type definition with a given identifier, if any.
func (p *Program) TypeOf(id string) (TypeDef, bool) {
	for _, def := range p.Types {
		if def.TypeId() == id {
			return def, true
		}
	}
	//
	return nil, false
}
