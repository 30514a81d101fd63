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
	"math/big"

	"github.com/consensys/go-isagen/pkg/util/math"
)

// NumExpr is a length or index expression appearing inside a type, e.g. the
// width of a bit-vector or the bounds of an integer range.  Such expressions
// are evaluated symbolically over the kind environment during type lowering.
type NumExpr interface {
	numExpr()
}

// NumConst is a constant length expression.
type NumConst struct {
	Value *big.Int
}

// NumVar references a kind variable bound by an enclosing existential or
// function signature.
type NumVar struct {
	Name string
}

// NumAdd is the sum of two length expressions.
type NumAdd struct {
	Lhs NumExpr
	Rhs NumExpr
}

// NumSub is the difference of two length expressions.
type NumSub struct {
	Lhs NumExpr
	Rhs NumExpr
}

// NumMul is the product of two length expressions.
type NumMul struct {
	Lhs NumExpr
	Rhs NumExpr
}

// NumNeg is the negation of a length expression.
type NumNeg struct {
	Arg NumExpr
}

func (NumConst) numExpr() {}
func (NumVar) numExpr()   {}
func (NumAdd) numExpr()   {}
func (NumSub) numExpr()   {}
func (NumMul) numExpr()   {}
func (NumNeg) numExpr()   {}

// Num constructs a constant length expression.
func Num(v int64) NumExpr {
	return NumConst{big.NewInt(v)}
}

// CmpOp is a comparison operator within a kind constraint.
type CmpOp uint8

const (
	// CmpLeq is less-than-or-equal.
	CmpLeq CmpOp = iota
	// CmpGeq is greater-than-or-equal.
	CmpGeq
	// CmpEq is equality.
	CmpEq
)

// Constraint restricts the kind variables in scope, e.g. 'n <= 64.  A
// conjunction is represented as a slice of constraints.
type Constraint struct {
	Lhs NumExpr
	Op  CmpOp
	Rhs NumExpr
}

// KindEnv maps kind variables to the interval of values they may take under
// the constraints currently in scope.  Environments are persistent: binding
// returns an extended copy, leaving the original untouched, so that each
// branch of an expression can carry its own constraints.
type KindEnv struct {
	bounds map[string]math.Interval
}

// NewKindEnv constructs an empty kind environment.
func NewKindEnv() KindEnv {
	return KindEnv{map[string]math.Interval{}}
}

// Bind returns this environment extended with a binding for a given kind
// variable.
func (p KindEnv) Bind(name string, iv math.Interval) KindEnv {
	nbounds := make(map[string]math.Interval, len(p.bounds)+1)
	//
	for k, v := range p.bounds {
		nbounds[k] = v
	}
	//
	nbounds[name] = iv
	//
	return KindEnv{nbounds}
}

// BindAll returns this environment extended with unconstrained bindings for
// the given kind variables.
func (p KindEnv) BindAll(names []string) KindEnv {
	env := p
	//
	for _, n := range names {
		env = env.Bind(n, math.INFINITY)
	}
	//
	return env
}

// Get returns the interval bound to a given kind variable, or the infinite
// interval when the variable is unknown.
func (p KindEnv) Get(name string) math.Interval {
	if iv, ok := p.bounds[name]; ok {
		return iv
	}
	//
	return math.INFINITY
}

// Refine returns this environment narrowed by a given constraint.  Only
// constraints which directly bound a single kind variable refine the
// environment; anything else leaves it unchanged (which remains sound, since
// bounds only ever over-approximate).
func (p KindEnv) Refine(c Constraint) KindEnv {
	if v, ok := c.Lhs.(NumVar); ok {
		return p.refineVar(v.Name, c.Op, c.Rhs)
	}
	// Mirror the constraint so the variable is on the left.
	if v, ok := c.Rhs.(NumVar); ok {
		return p.refineVar(v.Name, flip(c.Op), c.Lhs)
	}
	//
	return p
}

// RefineAll returns this environment narrowed by each of the given
// constraints in turn.
func (p KindEnv) RefineAll(cs []Constraint) KindEnv {
	env := p
	//
	for _, c := range cs {
		env = env.Refine(c)
	}
	//
	return env
}

func (p KindEnv) refineVar(name string, op CmpOp, bound NumExpr) KindEnv {
	var (
		iv = p.Get(name)
		bv = RangeOf(p, bound)
	)
	//
	switch op {
	case CmpLeq:
		iv.Intersect(math.UpTo(bv.MaxValue()))
	case CmpGeq:
		iv.Intersect(math.From(bv.MinValue()))
	case CmpEq:
		iv.Intersect(bv)
	}
	//
	return p.Bind(name, iv)
}

// RangeOf evaluates a length expression to the interval of values it may take
// under a given kind environment.
func RangeOf(env KindEnv, e NumExpr) math.Interval {
	switch e := e.(type) {
	case NumConst:
		return math.NewInterval(*e.Value, *e.Value)
	case NumVar:
		return env.Get(e.Name)
	case NumAdd:
		iv := RangeOf(env, e.Lhs)
		iv.Add(RangeOf(env, e.Rhs))
		//
		return iv
	case NumSub:
		iv := RangeOf(env, e.Lhs)
		iv.Sub(RangeOf(env, e.Rhs))
		//
		return iv
	case NumMul:
		iv := RangeOf(env, e.Lhs)
		iv.Mul(RangeOf(env, e.Rhs))
		//
		return iv
	case NumNeg:
		iv := RangeOf(env, e.Arg)
		iv.Neg()
		//
		return iv
	default:
		panic(fmt.Sprintf("unknown length expression %T", e))
	}
}

// ConstOf evaluates a length expression to a constant, if it is one under the
// given environment.
func ConstOf(env KindEnv, e NumExpr) (*big.Int, bool) {
	iv := RangeOf(env, e)
	//
	if iv.IsConstant() {
		minVal := iv.MinValue()
		val := minVal.IntVal()
		return &val, true
	}
	//
	return nil, false
}

func flip(op CmpOp) CmpOp {
	switch op {
	case CmpLeq:
		return CmpGeq
	case CmpGeq:
		return CmpLeq
	default:
		return CmpEq
	}
}
