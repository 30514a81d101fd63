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
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/consensys/go-isagen/pkg/cir"
	"github.com/consensys/go-isagen/pkg/util/source"
)

// MinInt64 is the smallest value representable by a fixed-width machine
// integer.
var MinInt64 = big.NewInt(math.MinInt64)

// MaxInt64 is the largest value representable by a fixed-width machine
// integer.
var MaxInt64 = big.NewInt(math.MaxInt64)

// Sixtyfour bounds the width of fixed and small bit-vector representations.
var Sixtyfour = big.NewInt(64)

// Context carries everything type lowering needs: the global environment,
// the local kind environment, the proving capability, and the source location
// against which failures are reported.  Contexts are cheap to copy; the memo
// table for named types is shared between copies so that a named type lowers
// to the identical representation everywhere.
type Context struct {
	// Global type information from the front end.
	Env *Env
	// Kind variables currently in scope.
	Kinds KindEnv
	// Capability for discharging bound queries.
	Prover Prover
	// Location used when reporting lowering failures.
	Loc source.Loc
	// Memoised representations of named types.
	named map[string]cir.Rep
	// Named types currently being lowered, to tie recursive knots.
	busy map[string]bool
}

// NewContext constructs a fresh lowering context over a given environment and
// prover.
func NewContext(env *Env, prover Prover) *Context {
	return &Context{
		Env:    env,
		Kinds:  NewKindEnv(),
		Prover: prover,
		Loc:    source.UnknownLoc,
		named:  map[string]cir.Rep{},
		busy:   map[string]bool{},
	}
}

// WithKinds returns a copy of this context using a given kind environment.
// The memo table is shared with the original.
func (p *Context) WithKinds(kinds KindEnv) *Context {
	ctx := *p
	ctx.Kinds = kinds
	//
	return &ctx
}

// At returns a copy of this context reporting errors at a given location.
func (p *Context) At(loc source.Loc) *Context {
	ctx := *p
	ctx.Loc = loc
	//
	return &ctx
}

// LowerType maps a source type to its runtime representation.  The decision
// rules are applied first-match-first: primitives, singleton types,
// integer ranges (consulting the prover for symbolic bounds), lists,
// bit-vectors (fixed, small or arbitrary according to what is provable about
// their length), vectors, registers, named types, tuples, existentials and
// type variables.  Anything else is a fatal lowering error.
func (p *Context) LowerType(t Type) (cir.Rep, *source.Error) {
	switch t := t.(type) {
	case NamedType:
		return p.lowerNamed(t)
	case AtomBoolType:
		return cir.Bool{}, nil
	case ItselfType:
		return p.lowerRange(t.N, t.N)
	case AtomType:
		return p.lowerRange(t.N, t.N)
	case ImplicitType:
		return p.lowerRange(t.N, t.N)
	case RangeType:
		return p.lowerRange(t.Lo, t.Hi)
	case ListType:
		elem, err := p.LowerType(t.Elem)
		if err != nil {
			return nil, err
		}
		//
		return cir.List{Elem: elem}, nil
	case VectorType:
		return p.lowerVector(t)
	case RegisterType:
		elem, err := p.LowerType(t.Elem)
		if err != nil {
			return nil, err
		}
		//
		return cir.Ref{Elem: elem}, nil
	case TupleType:
		return p.lowerTuple(t)
	case ExistsType:
		kinds := p.Kinds.BindAll(t.Kids).Refine(t.Constraint)
		//
		return p.WithKinds(kinds).LowerType(t.Body)
	case VarType:
		return cir.Poly{Id: t.Name}, nil
	default:
		name := reflect.TypeOf(t).Name()
		return nil, source.Errorf(p.Loc, "type %s has no runtime representation", name)
	}
}

// Lower the primitive types, or resolve a named record / variant /
// enumeration / synonym through the environment.
func (p *Context) lowerNamed(t NamedType) (cir.Rep, *source.Error) {
	switch t.Id {
	case "bit":
		return cir.Bit{}, nil
	case "bool":
		return cir.Bool{}, nil
	case "int", "nat":
		return cir.LInt{}, nil
	case "unit":
		return cir.Unit{}, nil
	case "string":
		return cir.String{}, nil
	case "real":
		return cir.Real{}, nil
	}
	// Synonyms expand transparently.
	if syn, ok := p.Env.Synonym(t.Id); ok {
		return p.LowerType(syn)
	}
	// Recursive references are resolved by id alone; the constructor or field
	// list is attached where the definition itself is lowered.
	if p.busy[t.Id] {
		if _, ok := p.Env.Record(t.Id); ok {
			return cir.Struct{Id: t.Id}, nil
		}
		//
		return cir.Variant{Id: t.Id}, nil
	}
	//
	if rep, ok := p.named[t.Id]; ok {
		return rep, nil
	}
	//
	rep, err := p.lowerDecl(t)
	if err != nil {
		return nil, err
	}
	//
	p.named[t.Id] = rep
	//
	return rep, nil
}

func (p *Context) lowerDecl(t NamedType) (cir.Rep, *source.Error) {
	p.busy[t.Id] = true
	defer delete(p.busy, t.Id)
	//
	if decl, ok := p.Env.Record(t.Id); ok {
		fields := make([]cir.Field, len(decl.Fields))
		//
		for i, f := range decl.Fields {
			rep, err := p.LowerType(f.Type)
			if err != nil {
				return nil, err
			}
			//
			fields[i] = cir.Field{Name: f.Name, Rep: rep}
		}
		//
		return cir.Struct{Id: t.Id, Fields: fields}, nil
	}
	//
	if decl, ok := p.Env.Variant(t.Id); ok {
		ctors := make([]cir.Ctor, len(decl.Ctors))
		//
		for i, c := range decl.Ctors {
			rep, err := p.LowerType(c.Arg)
			if err != nil {
				return nil, err
			}
			//
			ctors[i] = cir.Ctor{Name: c.Name, Arg: rep}
		}
		//
		return cir.Variant{Id: t.Id, Ctors: ctors}, nil
	}
	//
	if decl, ok := p.Env.Enum(t.Id); ok {
		return cir.Enum{Id: t.Id, Ctors: decl.Ctors}, nil
	}
	//
	return nil, source.Errorf(p.Loc, "unknown type \"%s\"", t.Id)
}

// Lower a constrained integer range.  When both bounds are literal constants
// within the fixed-width range, or the prover can discharge the bound
// queries, the value lives in a machine integer; otherwise it requires
// arbitrary precision.
func (p *Context) lowerRange(lo NumExpr, hi NumExpr) (cir.Rep, *source.Error) {
	loConst, loOk := ConstOf(p.Kinds, lo)
	hiConst, hiOk := ConstOf(p.Kinds, hi)
	// Literal bounds within the machine range need no proof.
	if loOk && hiOk && loConst.Cmp(MinInt64) >= 0 && hiConst.Cmp(MaxInt64) <= 0 {
		return cir.FInt{Width: 64}, nil
	}
	// Otherwise consult the prover.
	if p.Prover.ProveGeq(p.Kinds, lo, MinInt64) && p.Prover.ProveLeq(p.Kinds, hi, MaxInt64) {
		return cir.FInt{Width: 64}, nil
	}
	//
	return cir.LInt{}, nil
}

// Lower a vector type.  Bit-vectors are special-cased: a literal length of at
// most 64 gives a fixed representation; a provable bound of 64 gives a small
// representation carrying its length at runtime; anything else is
// heap-allocated.
func (p *Context) lowerVector(t VectorType) (cir.Rep, *source.Error) {
	dir := dirOf(t.Ord)
	//
	if IsBit(t.Elem) {
		if n, ok := ConstOf(p.Kinds, t.Len); ok && n.Cmp(Sixtyfour) <= 0 && n.Sign() >= 0 {
			return cir.FBits{Width: uint(n.Uint64()), Dir: dir}, nil
		}
		//
		if p.Prover.ProveLeq(p.Kinds, t.Len, Sixtyfour) {
			return cir.SBits{Cap: 64, Dir: dir}, nil
		}
		//
		return cir.LBits{Dir: dir}, nil
	}
	//
	elem, err := p.LowerType(t.Elem)
	if err != nil {
		return nil, err
	}
	//
	return cir.Vector{Dir: dir, Elem: elem}, nil
}

func (p *Context) lowerTuple(t TupleType) (cir.Rep, *source.Error) {
	elems := make([]cir.Rep, len(t.Elems))
	//
	for i, e := range t.Elems {
		rep, err := p.LowerType(e)
		if err != nil {
			return nil, err
		}
		//
		elems[i] = rep
	}
	//
	return cir.Tup{Elems: elems}, nil
}

// LowerTypes lowers a sequence of types under the same context.
func (p *Context) LowerTypes(types []Type) ([]cir.Rep, *source.Error) {
	reps := make([]cir.Rep, len(types))
	//
	for i, t := range types {
		rep, err := p.LowerType(t)
		if err != nil {
			return nil, err
		}
		//
		reps[i] = rep
	}
	//
	return reps, nil
}

func dirOf(ord Order) cir.Dir {
	if ord == OrdInc {
		return cir.Inc
	}
	//
	return cir.Dec
}

// String for CmpOp, used in diagnostics.
func (op CmpOp) String() string {
	switch op {
	case CmpLeq:
		return "<="
	case CmpGeq:
		return ">="
	default:
		return "=="
	}
}

// String renders a constraint for diagnostics.
func (c Constraint) String() string {
	return fmt.Sprintf("%v %s %v", c.Lhs, c.Op, c.Rhs)
}
