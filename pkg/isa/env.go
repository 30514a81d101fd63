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

// TypedField pairs a field name with its source type.
type TypedField struct {
	Name string
	Type Type
}

// CtorDecl declares a variant constructor together with its argument type.
// The argument type may mention type variables, in which case the constructor
// is polymorphic until specialised.
type CtorDecl struct {
	Name string
	Arg  Type
}

// RecordDecl declares a named record type.
type RecordDecl struct {
	Id     string
	Fields []TypedField
}

// VariantDecl declares a named tagged-union type.
type VariantDecl struct {
	Id    string
	Ctors []CtorDecl
}

// EnumDecl declares a named enumeration type.
type EnumDecl struct {
	Id    string
	Ctors []string
}

// Env exposes the type-level information the backend needs from the front
// end: synonym expansion, record / variant / enumeration lookup, and extern
// bindings for primitive operations.  The caller may populate it up front;
// the pipeline also registers into it the type and extern definitions it
// compiles.
type Env struct {
	synonyms map[string]Type
	records  map[string]*RecordDecl
	variants map[string]*VariantDecl
	enums    map[string]*EnumDecl
	externs  map[string]string
}

// NewEnv constructs an empty environment.
func NewEnv() *Env {
	return &Env{
		synonyms: map[string]Type{},
		records:  map[string]*RecordDecl{},
		variants: map[string]*VariantDecl{},
		enums:    map[string]*EnumDecl{},
		externs:  map[string]string{},
	}
}

// DeclareSynonym registers a type synonym.
func (p *Env) DeclareSynonym(id string, t Type) {
	p.synonyms[id] = t
}

// DeclareRecord registers a record declaration.
func (p *Env) DeclareRecord(decl *RecordDecl) {
	p.records[decl.Id] = decl
}

// DeclareVariant registers a variant declaration.
func (p *Env) DeclareVariant(decl *VariantDecl) {
	p.variants[decl.Id] = decl
}

// DeclareEnum registers an enumeration declaration.
func (p *Env) DeclareEnum(decl *EnumDecl) {
	p.enums[decl.Id] = decl
}

// DeclareExtern registers the runtime binding for a primitive operation.
func (p *Env) DeclareExtern(fn string, binding string) {
	p.externs[fn] = binding
}

// Synonym looks up a type synonym.
func (p *Env) Synonym(id string) (Type, bool) {
	t, ok := p.synonyms[id]
	return t, ok
}

// Record looks up a record declaration.
func (p *Env) Record(id string) (*RecordDecl, bool) {
	d, ok := p.records[id]
	return d, ok
}

// Variant looks up a variant declaration.
func (p *Env) Variant(id string) (*VariantDecl, bool) {
	d, ok := p.variants[id]
	return d, ok
}

// Enum looks up an enumeration declaration.
func (p *Env) Enum(id string) (*EnumDecl, bool) {
	d, ok := p.enums[id]
	return d, ok
}

// Extern looks up the runtime binding for a primitive operation.
func (p *Env) Extern(fn string) (string, bool) {
	b, ok := p.externs[fn]
	return b, ok
}

// EnumOfCtor returns the enumeration declaring a given constructor, if any.
func (p *Env) EnumOfCtor(ctor string) (*EnumDecl, bool) {
	for _, decl := range p.enums {
		for _, c := range decl.Ctors {
			if c == ctor {
				return decl, true
			}
		}
	}
	//
	return nil, false
}

// VariantOfCtor returns the variant declaring a given constructor, if any.
func (p *Env) VariantOfCtor(ctor string) (*VariantDecl, *CtorDecl, bool) {
	for _, decl := range p.variants {
		for i, c := range decl.Ctors {
			if c.Name == ctor {
				return decl, &decl.Ctors[i], true
			}
		}
	}
	//
	return nil, nil, false
}
