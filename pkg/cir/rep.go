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
)

// Dir determines the index ordering of a bit-vector or vector representation.
type Dir uint8

const (
	// Dec indicates indices count downwards (most significant index first).
	Dec Dir = iota
	// Inc indicates indices count upwards.
	Inc
)

func (d Dir) String() string {
	if d == Inc {
		return "inc"
	}
	//
	return "dec"
}

// Rep describes how a value lives at runtime.  Every local, parameter, field
// and return slot of the linear IR has exactly one representation, assigned
// during type lowering and never re-inferred afterwards.
type Rep interface {
	// IsStack determines whether a value of this representation can live
	// without heap allocation.
	IsStack() bool
	// String returns the canonical spelling of this representation.  The
	// spelling is used for deduplicating generated auxiliary types and for
	// deriving the identifiers of specialised variant constructors, so it must
	// be injective over the representation algebra.
	String() string
}

// Unit is the representation of the unit type.
type Unit struct{}

// Bit is the representation of a single bit.
type Bit struct{}

// Bool is the representation of a boolean.
type Bool struct{}

// Enum is the representation of an enumeration with a fixed constructor set.
type Enum struct {
	Id    string
	Ctors []string
}

// FInt is a fixed-width signed machine integer of width at most 64.
type FInt struct {
	Width uint
}

// LInt is a heap-allocated arbitrary-precision integer.
type LInt struct{}

// FBits is a fixed-width bit-vector of width at most 64.
type FBits struct {
	Width uint
	Dir   Dir
}

// SBits is a small bit-vector whose capacity is bounded by 64 but whose
// actual length is only known at runtime.
type SBits struct {
	Cap uint
	Dir Dir
}

// LBits is a heap-allocated arbitrary-length bit-vector.
type LBits struct {
	Dir Dir
}

// String is a heap-allocated character string.
type String struct{}

// Real is a heap-allocated real number.
type Real struct{}

// Tup is an anonymous product of representations.
type Tup struct {
	Elems []Rep
}

// Field pairs a field name with its representation.
type Field struct {
	Name string
	Rep  Rep
}

// Struct is a named record with ordered fields.
type Struct struct {
	Id     string
	Fields []Field
}

// Ctor pairs a variant constructor name with its argument representation.
type Ctor struct {
	Name string
	Arg  Rep
}

// Variant is a named tagged union with ordered constructors.
type Variant struct {
	Id    string
	Ctors []Ctor
}

// List is a heap-allocated singly-linked list.
type List struct {
	Elem Rep
}

// Vector is a heap-allocated growable vector.
type Vector struct {
	Dir  Dir
	Elem Rep
}

// Ref is a reference to a mutable cell (e.g. a register).
type Ref struct {
	Elem Rep
}

// Poly is a placeholder for a representation which has been deferred, i.e.
// because the enclosing construct is still polymorphic.  No Poly may survive
// variant specialisation.
type Poly struct {
	Id string
}

// IsStack implementations.  Heap-allocated primitives, lists and vectors are
// never stack representable; products are stack representable only when every
// component is; variants never are; references and deferred placeholders
// always are.

// IsStack for Unit.
func (p Unit) IsStack() bool { return true }

// IsStack for Bit.
func (p Bit) IsStack() bool { return true }

// IsStack for Bool.
func (p Bool) IsStack() bool { return true }

// IsStack for Enum.
func (p Enum) IsStack() bool { return true }

// IsStack for FInt.
func (p FInt) IsStack() bool { return true }

// IsStack for LInt.
func (p LInt) IsStack() bool { return false }

// IsStack for FBits.
func (p FBits) IsStack() bool { return true }

// IsStack for SBits.
func (p SBits) IsStack() bool { return true }

// IsStack for LBits.
func (p LBits) IsStack() bool { return false }

// IsStack for String.
func (p String) IsStack() bool { return false }

// IsStack for Real.
func (p Real) IsStack() bool { return false }

// IsStack for Tup.
func (p Tup) IsStack() bool {
	for _, e := range p.Elems {
		if !e.IsStack() {
			return false
		}
	}
	//
	return true
}

// IsStack for Struct.
func (p Struct) IsStack() bool {
	for _, f := range p.Fields {
		if !f.Rep.IsStack() {
			return false
		}
	}
	//
	return true
}

// IsStack for Variant.
func (p Variant) IsStack() bool { return false }

// IsStack for List.
func (p List) IsStack() bool { return false }

// IsStack for Vector.
func (p Vector) IsStack() bool { return false }

// IsStack for Ref.
func (p Ref) IsStack() bool { return true }

// IsStack for Poly.
func (p Poly) IsStack() bool { return true }

func (p Unit) String() string { return "unit" }

func (p Bit) String() string { return "bit" }

func (p Bool) String() string { return "bool" }

func (p Enum) String() string { return fmt.Sprintf("enum %s", p.Id) }

func (p FInt) String() string { return fmt.Sprintf("fint%d", p.Width) }

func (p LInt) String() string { return "lint" }

func (p FBits) String() string { return fmt.Sprintf("fbits%d_%s", p.Width, p.Dir) }

func (p SBits) String() string { return fmt.Sprintf("sbits%d_%s", p.Cap, p.Dir) }

func (p LBits) String() string { return fmt.Sprintf("lbits_%s", p.Dir) }

func (p String) String() string { return "string" }

func (p Real) String() string { return "real" }

func (p Tup) String() string {
	var builder strings.Builder
	//
	builder.WriteString(fmt.Sprintf("tup%d_", len(p.Elems)))
	//
	for i, e := range p.Elems {
		if i != 0 {
			builder.WriteString("_")
		}
		//
		builder.WriteString(e.String())
	}
	//
	return builder.String()
}

func (p Struct) String() string { return fmt.Sprintf("struct %s", p.Id) }

func (p Variant) String() string { return fmt.Sprintf("variant %s", p.Id) }

func (p List) String() string { return fmt.Sprintf("list_%s", p.Elem) }

func (p Vector) String() string { return fmt.Sprintf("vector_%s_%s", p.Dir, p.Elem) }

func (p Ref) String() string { return fmt.Sprintf("ref_%s", p.Elem) }

func (p Poly) String() string { return fmt.Sprintf("poly %s", p.Id) }

// Equal determines whether two representations are identical.  Since String
// is injective over the representation algebra, structural equality coincides
// with equality of canonical spellings.
func Equal(a Rep, b Rep) bool {
	return a.String() == b.String()
}

// Suprema maps a representation to its least upper bound in the
// representation lattice: fixed-width and small forms are taken to their
// heap-allocated counterparts, and tuples, vectors and lists are mapped
// pointwise.  All other representations, including structs, variants and
// references, are returned unchanged; their contents are not widened.
func Suprema(rep Rep) Rep {
	switch rep := rep.(type) {
	case FInt:
		return LInt{}
	case FBits:
		return LBits{rep.Dir}
	case SBits:
		return LBits{rep.Dir}
	case Tup:
		elems := make([]Rep, len(rep.Elems))
		for i, e := range rep.Elems {
			elems[i] = Suprema(e)
		}
		//
		return Tup{elems}
	case Vector:
		return Vector{rep.Dir, Suprema(rep.Elem)}
	case List:
		return List{Suprema(rep.Elem)}
	default:
		return rep
	}
}

// IsPoly determines whether a given representation contains a deferred
// placeholder anywhere within it.
func IsPoly(rep Rep) bool {
	switch rep := rep.(type) {
	case Poly:
		return true
	case Tup:
		for _, e := range rep.Elems {
			if IsPoly(e) {
				return true
			}
		}
	case Struct:
		for _, f := range rep.Fields {
			if IsPoly(f.Rep) {
				return true
			}
		}
	case Variant:
		for _, c := range rep.Ctors {
			if IsPoly(c.Arg) {
				return true
			}
		}
	case List:
		return IsPoly(rep.Elem)
	case Vector:
		return IsPoly(rep.Elem)
	case Ref:
		return IsPoly(rep.Elem)
	}
	//
	return false
}
