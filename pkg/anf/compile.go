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
	"github.com/consensys/go-isagen/pkg/util/source"
)

// Compiler translates normalised expressions into linear instruction
// sequences of the target IR.  It honours short-circuit semantics (already
// made explicit by the normaliser), exception-propagation edges for throws
// and match failures, declare-before-use for every introduced local, and a
// clear on every exit path for heap-represented locals.
type Compiler struct {
	ctx    *isa.Context
	config cir.OptimisationConfig
	// Monotonic counter for fresh names and labels.
	counter uint
	// Representation of the exception variant, when one is declared.
	exceptRep cir.Rep
	// Whether the program declares exceptions at all.
	hasExceptions bool
	// Heap-represented locals currently live, innermost last.
	live []cir.Param
	// Labels to transfer control to when an exception is raised, innermost
	// last; the bottom entry is the function-exit label.  Alongside each
	// label, the depth of the live stack at its establishment, so that only
	// locals below the handler are cleared when unwinding to it.
	throwTargets []throwTarget
}

type throwTarget struct {
	label string
	depth int
}

// NewCompiler constructs a compiler over a given lowering context.
func NewCompiler(ctx *isa.Context, config cir.OptimisationConfig) *Compiler {
	var (
		exceptRep     cir.Rep = cir.Unit{}
		hasExceptions bool
	)
	//
	if _, ok := ctx.Env.Variant("exception"); ok {
		rep, err := ctx.LowerType(isa.NamedType{Id: "exception"})
		if err == nil {
			exceptRep, hasExceptions = rep, true
		}
	}
	//
	return &Compiler{
		ctx:           ctx,
		config:        config,
		exceptRep:     exceptRep,
		hasExceptions: hasExceptions,
	}
}

// ExceptionRep returns the representation of the declared exception variant,
// if any.
func (p *Compiler) ExceptionRep() (cir.Rep, bool) {
	return p.exceptRep, p.hasExceptions
}

// CompileFn lowers a single function definition to the target IR.  The body
// is normalised and then compiled into an instruction sequence whose
// terminal positions assign the function-return slot; return rewriting is a
// separate pass.
func (p *Compiler) CompileFn(def *isa.FnDef) (fn *cir.FnDef, err *source.Error) {
	defer func() {
		if r := recover(); r != nil {
			if fail, ok := r.(*source.Error); ok {
				fn, err = nil, fail
			} else {
				panic(r)
			}
		}
	}()
	//
	var (
		kinds = p.ctx.Kinds.BindAll(def.Kids).RefineAll(def.Constraints)
		ctx   = p.ctx.WithKinds(kinds).At(def.Loc)
		norm  = NewNormaliser(ctx)
	)
	// Check the definition against its lowered signature.
	if def.Arg != nil {
		if tup, ok := def.Arg.(isa.TupleType); ok && len(tup.Elems) != len(def.Params) {
			return nil, source.Errorf(def.Loc,
				"function %s has %d parameters but its type has %d", def.Name, len(def.Params), len(tup.Elems))
		}
	}
	//
	params := make([]cir.Param, len(def.Params))
	//
	for i, param := range def.Params {
		rep, err := ctx.LowerType(param.Type)
		if err != nil {
			return nil, err
		}
		//
		params[i] = cir.Param{Name: param.Name, Rep: rep}
		norm.DeclareLocal(param.Name, rep)
	}
	//
	ret, lerr := ctx.LowerType(def.Ret)
	if lerr != nil {
		return nil, lerr
	}
	//
	body, nerr := norm.Normalise(def.Body)
	if nerr != nil {
		return nil, nerr
	}
	// The function-exit label doubles as the bottom throw target.
	p.live = nil
	p.throwTargets = []throwTarget{{cir.EndLabel, 0}}
	//
	instrs := p.compile(body, cir.LocReturn{Rep: ret})
	//
	return &cir.FnDef{
		Name:    def.Name,
		Params:  params,
		Ret:     ret,
		HeapRet: !ret.IsStack(),
		Body:    instrs,
	}, nil
}

// CompileInit lowers a top-level binding initialiser into the instructions
// establishing a given destination.
func (p *Compiler) CompileInit(e isa.Expr, dst cir.Loc) (instrs []cir.Instr, err *source.Error) {
	defer func() {
		if r := recover(); r != nil {
			if fail, ok := r.(*source.Error); ok {
				instrs, err = nil, fail
			} else {
				panic(r)
			}
		}
	}()
	//
	norm := NewNormaliser(p.ctx)
	//
	body, nerr := norm.Normalise(e)
	if nerr != nil {
		return nil, nerr
	}
	//
	p.live = nil
	p.throwTargets = []throwTarget{{cir.EndLabel, 0}}
	//
	return p.compile(body, dst), nil
}

func (p *Compiler) fresh(prefix string) string {
	name := fmt.Sprintf("%s$%d", prefix, p.counter)
	p.counter++
	//
	return name
}

func (p *Compiler) throwTarget() throwTarget {
	return p.throwTargets[len(p.throwTargets)-1]
}

// Clear every live heap local above a given depth, in reverse declaration
// order.  Used when control leaves the current region early.
func (p *Compiler) unwindTo(depth int) []cir.Instr {
	var instrs []cir.Instr
	//
	for i := len(p.live) - 1; i >= depth; i-- {
		instrs = append(instrs, cir.Clear{Rep: p.live[i].Rep, Name: p.live[i].Name})
	}
	//
	return instrs
}

//nolint:gocyclo
func (p *Compiler) compile(e Expr, dst cir.Loc) []cir.Instr {
	switch e := e.(type) {
	case EVal:
		return p.compileVal(e.Val, dst)
	case EApp:
		return p.compileApp(e, dst)
	case ECtor:
		return []cir.Instr{cir.Funcall{Dst: dst, Ctor: true, Fn: e.Ctor, Args: []cir.Val{p.val(e.Arg)}}}
	case EField:
		return []cir.Instr{cir.Copy{Dst: dst, Src: cir.FieldAccess{Arg: p.val(e.Arg), Field: e.Field, Rep: e.Rep}}}
	case ELet:
		return p.compileLet(e, dst)
	case EIf:
		return []cir.Instr{cir.If{
			Cond: p.val(e.Cond),
			Then: p.compile(e.Then, dst),
			Else: p.compile(e.Else, dst),
			Rep:  e.Rep,
		}}
	case EMatch:
		return p.compileMatch(e, dst)
	case ETry:
		return p.compileTry(e, dst)
	case EThrow:
		return p.compileThrow(e)
	case EReturn:
		return p.compileReturn(e)
	case EBlock:
		return p.compileBlock(e, dst)
	case EAssign:
		return p.compileAssign(e)
	case EStruct:
		return p.compileStruct(e, dst)
	case EVectorLit:
		return p.compileVectorLit(e, dst)
	case EListLit:
		return p.compileListLit(e, dst)
	case ECast:
		return []cir.Instr{cir.Copy{Dst: dst, Src: p.val(e.Arg)}}
	case EFor:
		return p.compileFor(e)
	case ELoop:
		return p.compileLoop(e)
	default:
		name := reflect.TypeOf(e).Name()
		panic(fmt.Sprintf("unknown normalised expression \"%s\"", name))
	}
}

// Convert an atomic value into a target value.  Tuples have no target value
// form and are handled componentwise at copy sites.
func (p *Compiler) val(v Val) cir.Val {
	switch v := v.(type) {
	case Lit:
		return cir.Lit{Val: v.Lit, Rep: v.Rep}
	case Id:
		return cir.Id{Name: v.Name, Rep: v.Rep}
	case Inline:
		return v.Val
	default:
		name := reflect.TypeOf(v).Name()
		panic(fmt.Sprintf("value form \"%s\" has no direct target form", name))
	}
}

func (p *Compiler) compileVal(v Val, dst cir.Loc) []cir.Instr {
	// Tuples decompose into componentwise copies.
	if tuple, ok := v.(Tuple); ok {
		var instrs []cir.Instr
		//
		for i, elem := range tuple.Elems {
			component := cir.LocTuple{Loc: dst, Index: i, Rep: elem.RepOf()}
			instrs = append(instrs, p.compileVal(elem, component)...)
		}
		//
		return instrs
	}
	//
	return []cir.Instr{cir.Copy{Dst: dst, Src: p.val(v)}}
}

// Calls to primitives with known representations may specialise into inline
// expressions; everything else becomes a function call, followed by an
// exception check when the callee is generated code which could throw.
func (p *Compiler) compileApp(e EApp, dst cir.Loc) []cir.Instr {
	args := make([]cir.Val, len(e.Args))
	//
	for i, arg := range e.Args {
		args[i] = p.val(arg)
	}
	//
	if e.Extern && p.config.Primops {
		if val, ok := cir.Analyse(e.Fn, args, e.Rep); ok {
			return []cir.Instr{cir.Copy{Dst: dst, Src: val}}
		}
	}
	//
	instrs := []cir.Instr{cir.Funcall{Dst: dst, Extern: e.Extern, Fn: e.Fn, Args: args}}
	// Generated functions propagate pending exceptions to their caller.
	if !e.Extern && p.hasExceptions {
		instrs = append(instrs, p.exceptionCheck()...)
	}
	//
	return instrs
}

// The check placed after a call which may have raised: unwind the live heap
// locals and transfer control to the innermost handler.
func (p *Compiler) exceptionCheck() []cir.Instr {
	var (
		target = p.throwTarget()
		body   = p.unwindTo(target.depth)
		cond   = cir.Id{Name: "have_exception", Rep: cir.Bool{}}
	)
	//
	body = append(body, cir.Goto{Label: target.label})
	//
	if len(body) == 1 {
		return []cir.Instr{cir.Jump{Cond: cond, Label: target.label}}
	}
	//
	return []cir.Instr{cir.If{Cond: cond, Then: body, Rep: cir.Unit{}}}
}

func (p *Compiler) compileLet(e ELet, dst cir.Loc) []cir.Instr {
	var (
		local  = cir.LocId{Name: e.Name, Rep: e.Rep}
		instrs []cir.Instr
	)
	// A let whose bound expression is already a non-tuple value initialises
	// directly; anything else declares and then compiles into the local.
	if val, ok := e.Bound.(EVal); ok && !isTuple(val.Val) {
		instrs = append(instrs, cir.Init{Rep: e.Rep, Name: e.Name, Val: p.val(val.Val)})
	} else {
		instrs = append(instrs, cir.Decl{Rep: e.Rep, Name: e.Name})
		instrs = append(instrs, p.compile(e.Bound, local)...)
	}
	//
	heap := !e.Rep.IsStack()
	if heap {
		p.live = append(p.live, cir.Param{Name: e.Name, Rep: e.Rep})
	}
	//
	instrs = append(instrs, p.compile(e.Body, dst)...)
	//
	if heap {
		p.live = p.live[:len(p.live)-1]
		instrs = append(instrs, cir.Clear{Rep: e.Rep, Name: e.Name})
	}
	//
	return instrs
}

// A match compiles to a chain of arms, each guarded by jumps to the next
// arm.  Falling off the final arm is a match failure, which aborts.
func (p *Compiler) compileMatch(e EMatch, dst cir.Loc) []cir.Instr {
	var (
		scrut  = p.val(e.Scrut)
		end    = p.fresh("match_end")
		instrs []cir.Instr
	)
	//
	for _, arm := range e.Arms {
		next := p.fresh("case")
		instrs = append(instrs, p.compileArm(arm, scrut, dst, next, end)...)
		instrs = append(instrs, cir.Label{Name: next})
	}
	//
	instrs = append(instrs, cir.MatchFailure{})
	instrs = append(instrs, cir.Label{Name: end})
	//
	return instrs
}

// Compile a single arm: tests first (before any binding, so a failed test
// needs no cleanup), then bindings, then the optional guard, then the body.
func (p *Compiler) compileArm(arm Arm, scrut cir.Val, dst cir.Loc, next string, end string) []cir.Instr {
	var (
		instrs []cir.Instr
		binds  []cir.Param
	)
	// Tests
	instrs = append(instrs, p.patternTests(arm.Pattern, scrut, next)...)
	// Bindings
	instrs = append(instrs, p.patternBinds(arm.Pattern, scrut, &binds)...)
	//
	clears := func() []cir.Instr {
		var cs []cir.Instr
		for i := len(binds) - 1; i >= 0; i-- {
			if !binds[i].Rep.IsStack() {
				cs = append(cs, cir.Clear{Rep: binds[i].Rep, Name: binds[i].Name})
			}
		}
		//
		return cs
	}
	// Guard
	if arm.Guard.HasValue() {
		g := p.fresh("guard")
		instrs = append(instrs, cir.Decl{Rep: cir.Bool{}, Name: g})
		instrs = append(instrs, p.compile(arm.Guard.Unwrap(), cir.LocId{Name: g, Rep: cir.Bool{}})...)
		//
		fail := append(clears(), cir.Goto{Label: next})
		instrs = append(instrs, cir.If{
			Cond: cir.Unary{Op: "!", Arg: cir.Id{Name: g, Rep: cir.Bool{}}, Rep: cir.Bool{}},
			Then: fail,
			Rep:  cir.Unit{},
		})
	}
	// Track heap-represented bindings as live across the body.
	depth := len(p.live)
	//
	for _, b := range binds {
		if !b.Rep.IsStack() {
			p.live = append(p.live, b)
		}
	}
	// Body
	instrs = append(instrs, p.compile(arm.Body, dst)...)
	//
	p.live = p.live[:depth]
	//
	instrs = append(instrs, clears()...)
	instrs = append(instrs, cir.Goto{Label: end})
	//
	return instrs
}

// Emit the jumps which reject a scrutinee not matching a pattern.
func (p *Compiler) patternTests(pat isa.Pattern, scrut cir.Val, next string) []cir.Instr {
	switch pat := pat.(type) {
	case isa.PatWild, isa.PatVar:
		return nil
	case isa.PatLit:
		var (
			lit  = p.litOf(pat.Lit, scrut.RepOf())
			cond = cir.Binary{Op: "!=", Lhs: scrut, Rhs: lit, Rep: cir.Bool{}}
		)
		//
		return []cir.Instr{cir.Jump{Cond: cond, Label: next}}
	case isa.PatTuple:
		var instrs []cir.Instr
		//
		tup := scrut.RepOf().(cir.Tup)
		for i, sub := range pat.Elems {
			component := cir.TupleGet{Arg: scrut, Index: i, Rep: tup.Elems[i]}
			instrs = append(instrs, p.patternTests(sub, component, next)...)
		}
		//
		return instrs
	case isa.PatCtor:
		var (
			variant = scrut.RepOf().(cir.Variant)
			kind    = cir.FieldAccess{Arg: scrut, Field: "kind", Rep: kindEnum(variant)}
			tag     = cir.Id{Name: "Kind_" + pat.Name, Rep: kindEnum(variant)}
			cond    = cir.Binary{Op: "!=", Lhs: kind, Rhs: tag, Rep: cir.Bool{}}
			instrs  = []cir.Instr{cir.Jump{Cond: cond, Label: next}}
			payload = cir.FieldAccess{Arg: scrut, Field: pat.Name, Rep: p.ctorArg(variant, pat.Name)}
		)
		//
		return append(instrs, p.patternTests(pat.Arg, payload, next)...)
	default:
		name := reflect.TypeOf(pat).Name()
		panic(fmt.Sprintf("unknown pattern \"%s\"", name))
	}
}

// Emit the initialisations binding pattern variables, recording each binding
// made.
func (p *Compiler) patternBinds(pat isa.Pattern, scrut cir.Val, binds *[]cir.Param) []cir.Instr {
	switch pat := pat.(type) {
	case isa.PatVar:
		rep := scrut.RepOf()
		*binds = append(*binds, cir.Param{Name: pat.Name, Rep: rep})
		//
		return []cir.Instr{cir.Init{Rep: rep, Name: pat.Name, Val: scrut}}
	case isa.PatTuple:
		var instrs []cir.Instr
		//
		tup := scrut.RepOf().(cir.Tup)
		for i, sub := range pat.Elems {
			component := cir.TupleGet{Arg: scrut, Index: i, Rep: tup.Elems[i]}
			instrs = append(instrs, p.patternBinds(sub, component, binds)...)
		}
		//
		return instrs
	case isa.PatCtor:
		var (
			variant = scrut.RepOf().(cir.Variant)
			payload = cir.FieldAccess{Arg: scrut, Field: pat.Name, Rep: p.ctorArg(variant, pat.Name)}
		)
		//
		return p.patternBinds(pat.Arg, payload, binds)
	default:
		return nil
	}
}

func (p *Compiler) litOf(lit *isa.Lit, rep cir.Rep) cir.Val {
	switch {
	case lit.IsUnit:
		return cir.UnitVal()
	case lit.Int != nil:
		return cir.Lit{Val: cir.LitInt{Value: lit.Int}, Rep: rep}
	case lit.Bits != nil:
		return cir.Lit{Val: cir.LitBits{Value: lit.Bits, Width: lit.Width}, Rep: rep}
	case lit.Str != "":
		return cir.Lit{Val: cir.LitString{Value: lit.Str}, Rep: rep}
	default:
		return cir.Lit{Val: cir.LitBool{Value: lit.Bool}, Rep: rep}
	}
}

// The argument representation of a constructor, from the variant
// representation or (for recursive back-references) the declaration.
func (p *Compiler) ctorArg(variant cir.Variant, ctor string) cir.Rep {
	for _, c := range variant.Ctors {
		if c.Name == ctor {
			return c.Arg
		}
	}
	//
	if _, decl, ok := p.ctx.Env.VariantOfCtor(ctor); ok {
		rep, err := p.ctx.LowerType(decl.Arg)
		if err == nil {
			return rep
		}
	}
	//
	panic(fmt.Sprintf("constructor %s not found in %s", ctor, variant))
}

func kindEnum(variant cir.Variant) cir.Rep {
	ctors := make([]string, len(variant.Ctors))
	for i, c := range variant.Ctors {
		ctors[i] = "Kind_" + c.Name
	}
	//
	return cir.Enum{Id: "kind_" + variant.Id, Ctors: ctors}
}

// A try block establishes a handler: the body runs with the handler label as
// its throw target; raised exceptions transfer there, are matched against
// the handler arms, and re-raise outwards when no arm applies.
func (p *Compiler) compileTry(e ETry, dst cir.Loc) []cir.Instr {
	var (
		handler = p.fresh("handler")
		end     = p.fresh("try_end")
		scrut   = cir.Inline{Code: "(*current_exception)", Rep: p.exceptRep}
	)
	//
	p.throwTargets = append(p.throwTargets, throwTarget{handler, len(p.live)})
	body := p.compile(e.Body, dst)
	p.throwTargets = p.throwTargets[:len(p.throwTargets)-1]
	//
	instrs := []cir.Instr{cir.TryBlock{Body: body}}
	instrs = append(instrs, cir.Goto{Label: end})
	instrs = append(instrs, cir.Label{Name: handler})
	// The exception is now being handled.
	instrs = append(instrs, cir.Copy{Dst: cir.LocHaveException{}, Src: cir.False()})
	//
	for _, arm := range e.Arms {
		next := p.fresh("case")
		instrs = append(instrs, p.compileArm(arm, scrut, dst, next, end)...)
		instrs = append(instrs, cir.Label{Name: next})
	}
	// No arm matched: the exception propagates outwards.
	outer := p.throwTarget()
	instrs = append(instrs, cir.Copy{Dst: cir.LocHaveException{}, Src: cir.True()})
	instrs = append(instrs, p.unwindTo(outer.depth)...)
	instrs = append(instrs, cir.Goto{Label: outer.label})
	instrs = append(instrs, cir.Label{Name: end})
	//
	return instrs
}

func (p *Compiler) compileThrow(e EThrow) []cir.Instr {
	var (
		target = p.throwTarget()
		instrs []cir.Instr
	)
	//
	instrs = append(instrs, cir.Copy{Dst: cir.LocCurrentException{Rep: p.exceptRep}, Src: p.val(e.Arg)})
	instrs = append(instrs, cir.Copy{Dst: cir.LocHaveException{}, Src: cir.True()})
	instrs = append(instrs, p.unwindTo(target.depth)...)
	instrs = append(instrs, cir.Goto{Label: target.label})
	//
	return instrs
}

// An early return assigns the return slot, clears everything live and
// transfers to the function exit.  Return rewriting later threads the slot
// or heap pointer.
func (p *Compiler) compileReturn(e EReturn) []cir.Instr {
	var (
		val    = p.val(e.Arg)
		instrs = []cir.Instr{cir.Copy{Dst: cir.LocReturn{Rep: val.RepOf()}, Src: val}}
	)
	//
	instrs = append(instrs, p.unwindTo(0)...)
	instrs = append(instrs, cir.Goto{Label: cir.EndLabel})
	//
	return instrs
}

// Non-final statements of a block discard their values into scratch locals,
// which are cleared immediately when heap represented.
func (p *Compiler) compileBlock(e EBlock, dst cir.Loc) []cir.Instr {
	var instrs []cir.Instr
	//
	for i, stmt := range e.Stmts {
		if i == len(e.Stmts)-1 {
			instrs = append(instrs, p.compile(stmt, dst)...)
			break
		}
		//
		rep := stmt.RepOf()
		//
		if _, ok := rep.(cir.Unit); ok {
			sink := p.fresh("unit")
			instrs = append(instrs, cir.Decl{Rep: rep, Name: sink})
			instrs = append(instrs, p.compile(stmt, cir.LocId{Name: sink, Rep: rep})...)
			//
			continue
		}
		//
		scratch := p.fresh("ignored")
		instrs = append(instrs, cir.Decl{Rep: rep, Name: scratch})
		instrs = append(instrs, p.compile(stmt, cir.LocId{Name: scratch, Rep: rep})...)
		//
		if !rep.IsStack() {
			instrs = append(instrs, cir.Clear{Rep: rep, Name: scratch})
		}
	}
	//
	if len(e.Stmts) == 0 {
		instrs = append(instrs, p.compileVal(Lit{cir.LitUnit{}, cir.Unit{}}, dst)...)
	}
	//
	return instrs
}

func (p *Compiler) compileAssign(e EAssign) []cir.Instr {
	var loc cir.Loc = cir.LocId{Name: e.Name, Rep: e.Rep}
	//
	for i, f := range e.Fields {
		loc = cir.LocField{Loc: loc, Field: f, Rep: e.FieldReps[i]}
	}
	//
	return p.compile(e.Value, loc)
}

func (p *Compiler) compileStruct(e EStruct, dst cir.Loc) []cir.Instr {
	var instrs []cir.Instr
	//
	rep := e.Rep.(cir.Struct)
	//
	for i, name := range e.Names {
		var fieldRep cir.Rep
		//
		for _, f := range rep.Fields {
			if f.Name == name {
				fieldRep = f.Rep
			}
		}
		//
		field := cir.LocField{Loc: dst, Field: name, Rep: fieldRep}
		instrs = append(instrs, p.compileVal(e.Vals[i], field)...)
	}
	//
	return instrs
}

// Vector literals build through the runtime: initialise to the correct
// length, then update each position.
func (p *Compiler) compileVectorLit(e EVectorLit, dst cir.Loc) []cir.Instr {
	name, ok := rootLoc(dst)
	if !ok {
		return p.compileViaScratch(EVectorLit{e.Elems, e.Rep}, dst)
	}
	//
	var (
		self   = cir.Id{Name: name, Rep: e.Rep}
		instrs = []cir.Instr{cir.Funcall{
			Dst: dst, Extern: true, Fn: "vector_init", Args: []cir.Val{cir.Int64Val(int64(len(e.Elems)))},
		}}
	)
	//
	for i, elem := range e.Elems {
		instrs = append(instrs, cir.Funcall{
			Dst: dst, Extern: true, Fn: "vector_update",
			Args: []cir.Val{self, cir.Int64Val(int64(i)), p.val(elem)},
		})
	}
	//
	return instrs
}

// List literals build back to front through cons cells.
func (p *Compiler) compileListLit(e EListLit, dst cir.Loc) []cir.Instr {
	name, ok := rootLoc(dst)
	if !ok {
		return p.compileViaScratch(EListLit{e.Elems, e.Rep}, dst)
	}
	//
	var (
		self   = cir.Id{Name: name, Rep: e.Rep}
		instrs = []cir.Instr{cir.Funcall{Dst: dst, Extern: true, Fn: "list_init", Args: nil}}
	)
	//
	for i := len(e.Elems) - 1; i >= 0; i-- {
		instrs = append(instrs, cir.Funcall{
			Dst: dst, Extern: true, Fn: "list_cons", Args: []cir.Val{p.val(e.Elems[i]), self},
		})
	}
	//
	return instrs
}

// Compile an expression into a fresh scratch local, then copy into the
// destination.  Used when a construction form needs to reference its own
// destination but the destination is not a plain identifier.
func (p *Compiler) compileViaScratch(e Expr, dst cir.Loc) []cir.Instr {
	var (
		rep     = e.RepOf()
		scratch = p.fresh("build")
		local   = cir.LocId{Name: scratch, Rep: rep}
		instrs  = []cir.Instr{cir.Decl{Rep: rep, Name: scratch}}
	)
	//
	instrs = append(instrs, p.compile(e, local)...)
	instrs = append(instrs, cir.Copy{Dst: dst, Src: cir.Id{Name: scratch, Rep: rep}})
	//
	if !rep.IsStack() {
		instrs = append(instrs, cir.Clear{Rep: rep, Name: scratch})
	}
	//
	return instrs
}

func (p *Compiler) compileFor(e EFor) []cir.Instr {
	var (
		idx   = cir.LocId{Name: e.Index, Rep: cir.FInt{Width: 64}}
		idxId = cir.Id{Name: e.Index, Rep: cir.FInt{Width: 64}}
		start = p.fresh("for_start")
		end   = p.fresh("for_end")
		sink  = p.fresh("unit")
	)
	//
	cmp := ">"
	if !e.Up {
		cmp = "<"
	}
	//
	var (
		instrs = []cir.Instr{
			cir.Init{Rep: idx.Rep, Name: e.Index, Val: p.val(e.From)},
			cir.Label{Name: start},
			cir.Jump{Cond: cir.Binary{Op: cmp, Lhs: idxId, Rhs: p.val(e.To), Rep: cir.Bool{}}, Label: end},
			cir.Decl{Rep: cir.Unit{}, Name: sink},
		}
	)
	//
	instrs = append(instrs, p.compile(e.Body, cir.LocId{Name: sink, Rep: cir.Unit{}})...)
	//
	step := "+"
	if !e.Up {
		step = "-"
	}
	//
	next := cir.Binary{Op: step, Lhs: idxId, Rhs: p.val(e.Step), Rep: idx.Rep}
	instrs = append(instrs, cir.Copy{Dst: idx, Src: next})
	instrs = append(instrs, cir.Goto{Label: start})
	instrs = append(instrs, cir.Label{Name: end})
	//
	return instrs
}

func (p *Compiler) compileLoop(e ELoop) []cir.Instr {
	var (
		start = p.fresh("loop_start")
		end   = p.fresh("loop_end")
		g     = p.fresh("cond")
		sink  = p.fresh("unit")
		gLoc  = cir.LocId{Name: g, Rep: cir.Bool{}}
		gId   = cir.Id{Name: g, Rep: cir.Bool{}}
	)
	//
	instrs := []cir.Instr{
		cir.Decl{Rep: cir.Bool{}, Name: g},
		cir.Decl{Rep: cir.Unit{}, Name: sink},
		cir.Label{Name: start},
	}
	//
	body := p.compile(e.Body, cir.LocId{Name: sink, Rep: cir.Unit{}})
	cond := p.compile(e.Cond, gLoc)
	//
	if e.While {
		instrs = append(instrs, cond...)
		instrs = append(instrs, cir.Jump{
			Cond: cir.Unary{Op: "!", Arg: gId, Rep: cir.Bool{}}, Label: end,
		})
		instrs = append(instrs, body...)
	} else {
		instrs = append(instrs, body...)
		instrs = append(instrs, cond...)
		instrs = append(instrs, cir.Jump{
			Cond: cir.Unary{Op: "!", Arg: gId, Rep: cir.Bool{}}, Label: end,
		})
	}
	//
	instrs = append(instrs, cir.Goto{Label: start})
	instrs = append(instrs, cir.Label{Name: end})
	//
	return instrs
}

func isTuple(v Val) bool {
	_, ok := v.(Tuple)
	return ok
}

func rootLoc(loc cir.Loc) (string, bool) {
	if id, ok := loc.(cir.LocId); ok {
		return id.Name, true
	}
	//
	return "", false
}
