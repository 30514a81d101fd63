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
package anf

import (
	"fmt"
	"reflect"

	"github.com/consensys/go-isagen/pkg/cir"
	"github.com/consensys/go-isagen/pkg/isa"
	"github.com/consensys/go-isagen/pkg/util"
	"github.com/consensys/go-isagen/pkg/util/source"
)

// Normaliser lowers nested source expressions into A-normal form, annotating
// every leaf with its lowered representation.  Normalisation preserves
// semantics; in particular the short-circuit behaviour of the logical
// connectives is made explicit as conditionals, and kind constraints are
// carried along each branch so that type lowering is performed under the
// correct environment.
type Normaliser struct {
	ctx *isa.Context
	// Representations of the locals currently in scope.
	locals map[string]cir.Rep
	// Monotonic counter for fresh binding names.
	counter uint
}

// NewNormaliser constructs a normaliser over a given lowering context.
func NewNormaliser(ctx *isa.Context) *Normaliser {
	return &Normaliser{ctx, map[string]cir.Rep{}, 0}
}

// DeclareLocal records the representation of a name already in scope (e.g. a
// function parameter).
func (p *Normaliser) DeclareLocal(name string, rep cir.Rep) {
	p.locals[name] = rep
}

// Normalise lowers a source expression into A-normal form.  Lowering
// failures short-circuit the traversal and surface as a located error.
func (p *Normaliser) Normalise(e isa.Expr) (expr Expr, err *source.Error) {
	defer func() {
		if r := recover(); r != nil {
			if fail, ok := r.(*source.Error); ok {
				expr, err = nil, fail
			} else {
				panic(r)
			}
		}
	}()
	//
	return p.norm(e), nil
}

// A pending binding produced when an operand position required flattening.
type binding struct {
	name  string
	bound Expr
}

func (p *Normaliser) fresh() string {
	name := fmt.Sprintf("g$%d", p.counter)
	p.counter++
	//
	return name
}

// Lower a source type under the current context, reporting failures at a
// given location.
func (p *Normaliser) lower(t isa.Type, loc source.Loc) cir.Rep {
	rep, err := p.ctx.At(loc).LowerType(t)
	if err != nil {
		panic(err)
	}
	//
	return rep
}

// Wrap a sequence of pending bindings around an expression, innermost last.
func lets(bindings []binding, body Expr) Expr {
	for i := len(bindings) - 1; i >= 0; i-- {
		b := bindings[i]
		body = ELet{b.name, b.bound.RepOf(), false, b.bound, body}
	}
	//
	return body
}

// Flatten an expression into an atomic value, producing bindings for
// anything which is not already atomic.
func (p *Normaliser) toVal(e isa.Expr) (Val, []binding) {
	switch e := e.(type) {
	case *isa.Lit:
		return p.litVal(e), nil
	case *isa.Var:
		return Id{e.Name, p.repOfVar(e)}, nil
	case *isa.Tuple:
		var (
			elems    = make([]Val, len(e.Elems))
			reps     = make([]cir.Rep, len(e.Elems))
			bindings []binding
		)
		//
		for i, elem := range e.Elems {
			var bs []binding
			elems[i], bs = p.toVal(elem)
			reps[i] = elems[i].RepOf()
			bindings = append(bindings, bs...)
		}
		//
		return Tuple{elems, cir.Tup{Elems: reps}}, bindings
	default:
		var (
			name  = p.fresh()
			bound = p.norm(e)
		)
		//
		return Id{name, bound.RepOf()}, []binding{{name, bound}}
	}
}

// Flatten a sequence of expressions into atomic values.
func (p *Normaliser) toVals(es []isa.Expr) ([]Val, []binding) {
	var (
		vals     = make([]Val, len(es))
		bindings []binding
	)
	//
	for i, e := range es {
		var bs []binding
		vals[i], bs = p.toVal(e)
		bindings = append(bindings, bs...)
	}
	//
	return vals, bindings
}

func (p *Normaliser) litVal(e *isa.Lit) Val {
	rep := p.lower(e.TypeOf(), e.LocOf())
	//
	switch {
	case e.IsUnit:
		return Lit{cir.LitUnit{}, rep}
	case e.Int != nil:
		return Lit{cir.LitInt{Value: e.Int}, rep}
	case e.Bits != nil:
		return Lit{cir.LitBits{Value: e.Bits, Width: e.Width}, rep}
	case e.Str != "":
		return Lit{cir.LitString{Value: e.Str}, rep}
	case e.Real != "":
		return Lit{cir.LitReal{Value: e.Real}, rep}
	default:
		return Lit{cir.LitBool{Value: e.Bool}, rep}
	}
}

// The representation of a variable is the one recorded when it came into
// scope; for anything not locally bound (e.g. enumeration constructors or
// registers) it is recovered from the front-end type.
func (p *Normaliser) repOfVar(e *isa.Var) cir.Rep {
	if rep, ok := p.locals[e.Name]; ok {
		return rep
	}
	//
	return p.lower(e.TypeOf(), e.LocOf())
}

//nolint:gocyclo
func (p *Normaliser) norm(e isa.Expr) Expr {
	switch e := e.(type) {
	case *isa.Lit:
		return EVal{p.litVal(e)}
	case *isa.Var:
		return EVal{Id{e.Name, p.repOfVar(e)}}
	case *isa.Tuple:
		val, bindings := p.toVal(e)
		return lets(bindings, EVal{val})
	case *isa.App:
		return p.normApp(e)
	case *isa.Let:
		return p.normLet(e)
	case *isa.If:
		cond, bindings := p.toVal(e.Cond)
		rep := p.lower(e.TypeOf(), e.LocOf())
		//
		return lets(bindings, EIf{cond, p.norm(e.Then), p.norm(e.Else), rep})
	case *isa.Field:
		arg, bindings := p.toVal(e.Arg)
		rep := p.lower(e.TypeOf(), e.LocOf())
		//
		return lets(bindings, EField{arg, e.Name, rep})
	case *isa.StructLit:
		vals, bindings := p.toVals(e.Values)
		rep := p.lower(e.TypeOf(), e.LocOf())
		//
		return lets(bindings, EStruct{e.Id, e.Names, vals, rep})
	case *isa.Ctor:
		arg, bindings := p.toVal(e.Arg)
		rep := p.lower(e.TypeOf(), e.LocOf())
		//
		return lets(bindings, ECtor{e.Name, rep, arg})
	case *isa.VectorLit:
		vals, bindings := p.toVals(e.Elems)
		rep := p.lower(e.TypeOf(), e.LocOf())
		//
		return lets(bindings, EVectorLit{vals, rep})
	case *isa.ListLit:
		vals, bindings := p.toVals(e.Elems)
		rep := p.lower(e.TypeOf(), e.LocOf())
		//
		return lets(bindings, EListLit{vals, rep})
	case *isa.Cast:
		arg, bindings := p.toVal(e.Arg)
		rep := p.lower(e.TypeOf(), e.LocOf())
		//
		return lets(bindings, ECast{arg, rep})
	case *isa.Match:
		return p.normMatch(e)
	case *isa.Try:
		return p.normTry(e)
	case *isa.Throw:
		arg, bindings := p.toVal(e.Arg)
		return lets(bindings, EThrow{arg})
	case *isa.Return:
		arg, bindings := p.toVal(e.Arg)
		return lets(bindings, EReturn{arg})
	case *isa.Block:
		stmts := make([]Expr, len(e.Stmts))
		for i, s := range e.Stmts {
			stmts[i] = p.norm(s)
		}
		//
		return EBlock{stmts}
	case *isa.Assign:
		return p.normAssign(e)
	case *isa.ForEach:
		return p.normForEach(e)
	case *isa.Loop:
		return ELoop{e.While, p.norm(e.Cond), p.norm(e.Body)}
	default:
		name := reflect.TypeOf(e).Elem().Name()
		panic(source.Errorf(e.LocOf(), "unknown source expression \"%s\"", name))
	}
}

// Calls to the logical connectives are rewritten as conditionals, making
// their short-circuit semantics explicit.  Everything else flattens its
// arguments and becomes a direct application.
func (p *Normaliser) normApp(e *isa.App) Expr {
	switch e.Fn {
	case "and_bool":
		cond, bindings := p.toVal(e.Args[0])
		rhs := p.norm(e.Args[1])
		//
		return lets(bindings, EIf{cond, rhs, EVal{Lit{cir.LitBool{Value: false}, cir.Bool{}}}, cir.Bool{}})
	case "or_bool":
		cond, bindings := p.toVal(e.Args[0])
		rhs := p.norm(e.Args[1])
		//
		return lets(bindings, EIf{cond, EVal{Lit{cir.LitBool{Value: true}, cir.Bool{}}}, rhs, cir.Bool{}})
	}
	//
	vals, bindings := p.toVals(e.Args)
	rep := p.lower(e.TypeOf(), e.LocOf())
	_, extern := p.ctx.Env.Extern(e.Fn)
	//
	return lets(bindings, EApp{e.Fn, extern, vals, rep})
}

func (p *Normaliser) normLet(e *isa.Let) Expr {
	bound := p.norm(e.Bound)
	// Bring the binding into scope for the body only.
	saved, had := p.locals[e.Name]
	p.locals[e.Name] = bound.RepOf()
	//
	body := p.norm(e.Body)
	//
	if had {
		p.locals[e.Name] = saved
	} else {
		delete(p.locals, e.Name)
	}
	//
	mut := assignsTo(e.Body, e.Name)
	//
	return ELet{e.Name, bound.RepOf(), mut, bound, body}
}

func (p *Normaliser) normMatch(e *isa.Match) Expr {
	scrut, bindings := p.toVal(e.Scrutinee)
	rep := p.lower(e.TypeOf(), e.LocOf())
	arms := p.normArms(e.Arms, scrut.RepOf())
	//
	return lets(bindings, EMatch{scrut, arms, rep})
}

func (p *Normaliser) normTry(e *isa.Try) Expr {
	var (
		rep  = p.lower(e.TypeOf(), e.LocOf())
		body = p.norm(e.Body)
		arms = p.normArms(e.Arms, p.exceptionRep())
	)
	//
	return ETry{body, arms, rep}
}

func (p *Normaliser) normArms(arms []isa.Arm, scrutRep cir.Rep) []Arm {
	narms := make([]Arm, len(arms))
	//
	for i, arm := range arms {
		restore := p.bindPattern(arm.Pattern, scrutRep)
		//
		guard := util.None[Expr]()
		if arm.Guard != nil {
			guard = util.Some(p.norm(arm.Guard))
		}
		//
		narms[i] = Arm{arm.Pattern, guard, p.norm(arm.Body)}
		//
		restore()
	}
	//
	return narms
}

// Bring the variables bound by a pattern into scope, with the
// representations induced by the scrutinee.  Returns a function restoring
// the previous scope.
func (p *Normaliser) bindPattern(pat isa.Pattern, rep cir.Rep) func() {
	var (
		saved = map[string]cir.Rep{}
		had   = map[string]bool{}
	)
	//
	p.bindPatternInto(pat, rep, saved, had)
	//
	return func() {
		for name := range had {
			if had[name] {
				p.locals[name] = saved[name]
			} else {
				delete(p.locals, name)
			}
		}
	}
}

func (p *Normaliser) bindPatternInto(pat isa.Pattern, rep cir.Rep, saved map[string]cir.Rep, had map[string]bool) {
	switch pat := pat.(type) {
	case isa.PatVar:
		if _, seen := had[pat.Name]; !seen {
			saved[pat.Name], had[pat.Name] = p.locals[pat.Name], hasLocal(p.locals, pat.Name)
		}
		//
		p.locals[pat.Name] = rep
	case isa.PatTuple:
		tup, ok := rep.(cir.Tup)
		if !ok {
			panic(source.Errorf(source.UnknownLoc, "tuple pattern against %s", rep))
		}
		//
		for i, sub := range pat.Elems {
			p.bindPatternInto(sub, tup.Elems[i], saved, had)
		}
	case isa.PatCtor:
		arg := p.ctorArgRep(pat.Name, rep)
		p.bindPatternInto(pat.Arg, arg, saved, had)
	}
}

// The representation of a constructor argument, read off the variant
// representation of the scrutinee.  Recursive back-references carry no
// constructor list, in which case the declaration is lowered directly.
func (p *Normaliser) ctorArgRep(ctor string, rep cir.Rep) cir.Rep {
	if variant, ok := rep.(cir.Variant); ok {
		for _, c := range variant.Ctors {
			if c.Name == ctor {
				return c.Arg
			}
		}
		//
		if decl, cdecl, ok := p.ctx.Env.VariantOfCtor(ctor); ok && decl.Id == variant.Id {
			return p.lower(cdecl.Arg, source.UnknownLoc)
		}
	}
	//
	panic(source.Errorf(source.UnknownLoc, "constructor %s not found in %s", ctor, rep))
}

func (p *Normaliser) exceptionRep() cir.Rep {
	if _, ok := p.ctx.Env.Variant("exception"); ok {
		return p.lower(isa.NamedType{Id: "exception"}, source.UnknownLoc)
	}
	//
	return cir.Unit{}
}

func (p *Normaliser) normAssign(e *isa.Assign) Expr {
	var (
		value = p.norm(e.Value)
		rep   cir.Rep
		ok    bool
	)
	// Resolve the representation of the assignment target.
	if rep, ok = p.locals[e.Name]; !ok {
		rep = p.lower(e.TargetType, e.LocOf())
	}
	// Resolve the representation at each projection step.
	var (
		fieldReps = make([]cir.Rep, len(e.Fields))
		current   = rep
	)
	//
	for i, f := range e.Fields {
		current = fieldRep(current, f)
		fieldReps[i] = current
	}
	//
	return EAssign{e.Name, rep, e.Fields, fieldReps, value}
}

func (p *Normaliser) normForEach(e *isa.ForEach) Expr {
	var (
		bindings []binding
		from, b1 = p.toVal(e.From)
		to, b2   = p.toVal(e.To)
		step, b3 = p.toVal(e.Step)
	)
	//
	bindings = append(bindings, b1...)
	bindings = append(bindings, b2...)
	bindings = append(bindings, b3...)
	// Loop indices are assumed to fit a 64-bit machine integer.
	saved, had := p.locals[e.Index], hasLocal(p.locals, e.Index)
	p.locals[e.Index] = cir.FInt{Width: 64}
	//
	body := p.norm(e.Body)
	//
	if had {
		p.locals[e.Index] = saved
	} else {
		delete(p.locals, e.Index)
	}
	//
	return lets(bindings, EFor{e.Index, from, to, step, e.Up, body})
}

func fieldRep(rep cir.Rep, field string) cir.Rep {
	if s, ok := rep.(cir.Struct); ok {
		for _, f := range s.Fields {
			if f.Name == field {
				return f.Rep
			}
		}
	}
	//
	panic(source.Errorf(source.UnknownLoc, "field %s not found in %s", field, rep))
}

func hasLocal(locals map[string]cir.Rep, name string) bool {
	_, ok := locals[name]
	return ok
}

// Determine whether an expression assigns to a given name anywhere within.
func assignsTo(e isa.Expr, name string) bool {
	found := false
	//
	visitExpr(e, func(sub isa.Expr) {
		if assign, ok := sub.(*isa.Assign); ok && assign.Name == name {
			found = true
		}
	})
	//
	return found
}

// visitExpr applies a function to every node of a source expression.  The
// traversal is driven by an explicit work-list, since pattern-heavy sources
// (e.g. macro-expanded decoders) can nest arbitrarily deeply.
func visitExpr(root isa.Expr, fn func(isa.Expr)) {
	worklist := []isa.Expr{root}
	//
	for len(worklist) > 0 {
		var e isa.Expr
		//
		e, worklist = worklist[len(worklist)-1], worklist[:len(worklist)-1]
		if e == nil {
			continue
		}
		//
		fn(e)
		//
		switch e := e.(type) {
		case *isa.Let:
			worklist = append(worklist, e.Bound, e.Body)
		case *isa.If:
			worklist = append(worklist, e.Cond, e.Then, e.Else)
		case *isa.App:
			worklist = append(worklist, e.Args...)
		case *isa.Tuple:
			worklist = append(worklist, e.Elems...)
		case *isa.Field:
			worklist = append(worklist, e.Arg)
		case *isa.StructLit:
			worklist = append(worklist, e.Values...)
		case *isa.Ctor:
			worklist = append(worklist, e.Arg)
		case *isa.VectorLit:
			worklist = append(worklist, e.Elems...)
		case *isa.ListLit:
			worklist = append(worklist, e.Elems...)
		case *isa.Cast:
			worklist = append(worklist, e.Arg)
		case *isa.Match:
			worklist = append(worklist, e.Scrutinee)
			for _, arm := range e.Arms {
				worklist = append(worklist, arm.Guard, arm.Body)
			}
		case *isa.Try:
			worklist = append(worklist, e.Body)
			for _, arm := range e.Arms {
				worklist = append(worklist, arm.Guard, arm.Body)
			}
		case *isa.Throw:
			worklist = append(worklist, e.Arg)
		case *isa.Return:
			worklist = append(worklist, e.Arg)
		case *isa.Block:
			worklist = append(worklist, e.Stmts...)
		case *isa.Assign:
			worklist = append(worklist, e.Value)
		case *isa.ForEach:
			worklist = append(worklist, e.From, e.To, e.Step, e.Body)
		case *isa.Loop:
			worklist = append(worklist, e.Cond, e.Body)
		}
	}
}
