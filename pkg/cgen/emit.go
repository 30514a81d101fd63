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
package cgen

import (
	"bufio"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/consensys/go-isagen/pkg/cir"
	"github.com/consensys/go-isagen/pkg/isa"
)

// Emitter translates a lowered program into C source text.  The
// per-instruction translation is a direct surjection from the linear IR to
// statement-oriented text; implicit conversions between representations are
// materialised through the CONVERT_OF helper family.
type Emitter struct {
	out    *bufio.Writer
	env    *isa.Env
	config Config
	// Auxiliary type names already emitted this run.
	generated map[string]bool
	// Epilogue of the function currently being emitted.
	epilogue []cir.Instr
}

// NewEmitter constructs an emitter over a given sink.
func NewEmitter(env *isa.Env, config Config, out io.Writer) *Emitter {
	return &Emitter{
		out:       bufio.NewWriter(out),
		env:       env,
		config:    config,
		generated: map[string]bool{},
	}
}

// Emit renders a complete program and flushes the sink.
func (p *Emitter) Emit(program *cir.Program) error {
	p.emitPreamble()
	p.emitTypes(program)
	//
	if program.HasException {
		p.emitExceptionState(program)
	}
	//
	for _, reg := range program.Registers {
		p.printf("%s %s;\n", CType(reg.Rep), Zencode(reg.Name))
	}
	//
	if len(program.Registers) > 0 {
		p.printf("\n")
	}
	// Top-level binding storage precedes the functions reading it.
	p.emitLetStorage(program)
	p.emitFnSignatures(program)
	//
	for _, fn := range program.Fns {
		if !fn.Extern {
			p.emitFn(fn)
		}
	}
	//
	p.emitLetBindings(program)
	p.emitScaffold(program)
	//
	return p.out.Flush()
}

func (p *Emitter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Emitter) linkage() string {
	if p.config.Static {
		return "static "
	}
	//
	return ""
}

func (p *Emitter) emitPreamble() {
	p.printf("%s", preambleIncludes)
	//
	if !p.config.NoRts {
		p.printf("%s", runtimeInclude)
	}
	//
	p.printf("%s\n", helperMacros)
}

// Collect every auxiliary representation the program mentions, in occurrence
// order.
func collectAuxReps(program *cir.Program) []cir.Rep {
	var (
		aux  []cir.Rep
		seen = map[string]bool{}
	)
	//
	for _, def := range program.Types {
		switch def := def.(type) {
		case *cir.StructDef:
			auxRepsOf(cir.Struct{Id: def.Id, Fields: def.Fields}, &aux, seen)
		case *cir.VariantDef:
			auxRepsOf(cir.Variant{Id: def.Id, Ctors: def.Ctors}, &aux, seen)
		}
	}
	//
	for _, reg := range program.Registers {
		auxRepsOf(reg.Rep, &aux, seen)
	}
	//
	for _, let := range program.Lets {
		for _, b := range let.Bindings {
			auxRepsOf(b.Rep, &aux, seen)
		}
	}
	//
	for _, fn := range program.Fns {
		for _, param := range fn.Params {
			auxRepsOf(param.Rep, &aux, seen)
		}
		//
		auxRepsOf(fn.Ret, &aux, seen)
		auxRepsOfInstrs(fn.Prologue, &aux, seen)
		auxRepsOfInstrs(fn.Body, &aux, seen)
	}
	//
	return aux
}

func auxRepsOfInstrs(instrs []cir.Instr, aux *[]cir.Rep, seen map[string]bool) {
	stack := append([]cir.Instr{}, instrs...)
	//
	for len(stack) > 0 {
		var next cir.Instr
		//
		next, stack = stack[len(stack)-1], stack[:len(stack)-1]
		//
		switch next := next.(type) {
		case cir.Decl:
			auxRepsOf(next.Rep, aux, seen)
		case cir.Init:
			auxRepsOf(next.Rep, aux, seen)
		case cir.If:
			stack = append(stack, next.Then...)
			stack = append(stack, next.Else...)
		case cir.Block:
			stack = append(stack, next.Body...)
		case cir.TryBlock:
			stack = append(stack, next.Body...)
		}
	}
}

func (p *Emitter) emitExceptionState(program *cir.Program) {
	p.printf("%s *current_exception = NULL;\nbool have_exception = false;\n\n", CType(program.ExceptionRep))
}

// Forward declarations for every generated function, so that definition
// order within the artifact is unconstrained by the call graph.
func (p *Emitter) emitFnSignatures(program *cir.Program) {
	for _, fn := range program.Fns {
		if fn.Extern {
			continue
		}
		//
		p.printf("%s;\n", p.signatureOf(fn))
	}
	//
	p.printf("\n")
}

func (p *Emitter) signatureOf(fn *cir.FnDef) string {
	var (
		builder strings.Builder
		name    = p.config.Prefix + Zencode(fn.Name)
	)
	//
	builder.WriteString(p.linkage())
	//
	if fn.HeapRet {
		builder.WriteString(fmt.Sprintf("void %s(%s *%s", name, CType(fn.Ret), Zencode(cir.ReturnPointer)))
		//
		for _, param := range fn.Params {
			builder.WriteString(fmt.Sprintf(", %s %s", CType(param.Rep), Zencode(param.Name)))
		}
	} else {
		builder.WriteString(fmt.Sprintf("%s %s(", CType(fn.Ret), name))
		//
		for i, param := range fn.Params {
			if i != 0 {
				builder.WriteString(", ")
			}
			//
			builder.WriteString(fmt.Sprintf("%s %s", CType(param.Rep), Zencode(param.Name)))
		}
		//
		if len(fn.Params) == 0 {
			builder.WriteString("unit zu")
		}
	}
	// Extra parameters thread through every generated signature.
	if p.config.ExtraParams != "" {
		builder.WriteString(", ")
		builder.WriteString(p.config.ExtraParams)
	}
	//
	builder.WriteString(")")
	//
	return builder.String()
}

func (p *Emitter) emitFn(fn *cir.FnDef) {
	p.printf("%s\n{\n", p.signatureOf(fn))
	//
	p.epilogue = fn.Epilogue
	//
	for _, instr := range fn.Prologue {
		p.emitInstr(instr, 1)
	}
	//
	for _, instr := range fn.Body {
		p.emitInstr(instr, 1)
	}
	//
	p.epilogue = nil
	//
	p.printf("}\n\n")
}

func (p *Emitter) indent(depth int) string {
	return strings.Repeat("  ", depth)
}

//nolint:gocyclo
func (p *Emitter) emitInstr(instr cir.Instr, depth int) {
	pad := p.indent(depth)
	//
	switch instr := instr.(type) {
	case cir.Decl:
		p.printf("%s%s %s;\n", pad, CType(instr.Rep), Zencode(instr.Name))
		//
		if !instr.Rep.IsStack() {
			p.printf("%sCREATE(%s)(&%s);\n", pad, Token(instr.Rep), Zencode(instr.Name))
		}
	case cir.Init:
		p.printf("%s%s %s;\n", pad, CType(instr.Rep), Zencode(instr.Name))
		//
		if !instr.Rep.IsStack() {
			p.printf("%sCREATE(%s)(&%s);\n", pad, Token(instr.Rep), Zencode(instr.Name))
		}
		//
		p.emitAssign(cir.LocId{Name: instr.Name, Rep: instr.Rep}, instr.Val, depth)
	case cir.Copy:
		p.emitAssign(instr.Dst, instr.Src, depth)
	case cir.Funcall:
		p.emitFuncall(instr, depth)
	case cir.If:
		p.printf("%sif (%s) {\n", pad, p.valText(instr.Cond))
		//
		for _, inner := range instr.Then {
			p.emitInstr(inner, depth+1)
		}
		//
		if len(instr.Else) > 0 {
			p.printf("%s} else {\n", pad)
			//
			for _, inner := range instr.Else {
				p.emitInstr(inner, depth+1)
			}
		}
		//
		p.printf("%s}\n", pad)
	case cir.Goto:
		p.printf("%sgoto %s;\n", pad, Zencode(instr.Label))
	case cir.Block:
		p.printf("%s{\n", pad)
		//
		for _, inner := range instr.Body {
			p.emitInstr(inner, depth+1)
		}
		//
		p.printf("%s}\n", pad)
	case cir.TryBlock:
		p.printf("%s{\n", pad)
		//
		for _, inner := range instr.Body {
			p.emitInstr(inner, depth+1)
		}
		//
		p.printf("%s}\n", pad)
	case cir.Jump:
		p.printf("%sif (%s) goto %s;\n", pad, p.valText(instr.Cond), Zencode(instr.Label))
	case cir.Clear:
		p.printf("%sKILL(%s)(&%s);\n", pad, Token(instr.Rep), Zencode(instr.Name))
	case cir.Reset:
		p.printf("%sRECREATE(%s)(&%s);\n", pad, Token(instr.Rep), Zencode(instr.Name))
	case cir.Alias:
		p.printf("%s%s = %s;\n", pad, p.locText(instr.Dst), p.valText(instr.Src))
	case cir.Return:
		for _, kill := range p.epilogue {
			p.emitInstr(kill, depth)
		}
		//
		p.printf("%sreturn %s;\n", pad, p.valText(instr.Val))
	case cir.End:
		for _, kill := range p.epilogue {
			p.emitInstr(kill, depth)
		}
		//
		p.printf("%sreturn;\n", pad)
	case cir.MatchFailure:
		p.printf("%srt_match_failure();\n", pad)
	case cir.Comment:
		p.printf("%s/* %s */\n", pad, instr.Text)
	case cir.RawText:
		p.printf("%s%s\n", pad, instr.Text)
	case cir.Label:
		p.printf("%s: ;\n", Zencode(instr.Name))
	default:
		name := reflect.TypeOf(instr).Name()
		panic(fmt.Sprintf("unknown instruction \"%s\"", name))
	}
}

// Emit an assignment, materialising a conversion whenever source and
// destination representations differ.
func (p *Emitter) emitAssign(dst cir.Loc, src cir.Val, depth int) {
	var (
		pad     = p.indent(depth)
		dstRep  = dst.RepOf()
		srcRep  = underlyingRep(src)
		dstText = p.locText(dst)
		srcText = p.valText(src)
	)
	// Unit stores carry no information.
	if _, ok := dstRep.(cir.Unit); ok {
		p.printf("%s%s = UNIT;\n", pad, dstText)
		return
	}
	//
	switch {
	case cir.Equal(dstRep, srcRep) && dstRep.IsStack():
		p.printf("%s%s = %s;\n", pad, dstText, srcText)
	case cir.Equal(dstRep, srcRep):
		p.printf("%sCOPY(%s)(&%s, %s);\n", pad, Token(dstRep), dstText, srcText)
	case dstRep.IsStack() && srcRep.IsStack():
		p.printf("%s%s = CONVERT_OF(%s, %s)(%s);\n", pad, dstText, Token(dstRep), Token(srcRep), srcText)
	default:
		p.printf("%sCONVERT_OF(%s, %s)(&%s, %s);\n", pad, Token(dstRep), Token(srcRep), dstText, srcText)
	}
}

// The representation of a value for conversion purposes.  A retyped wrapper
// reports the representation it was retyped to, not that of the wrapped
// value, so assigning it to a destination of that representation needs no
// conversion.
func underlyingRep(val cir.Val) cir.Rep {
	return val.RepOf()
}

func (p *Emitter) emitFuncall(call cir.Funcall, depth int) {
	var (
		pad  = p.indent(depth)
		name string
		args []string
	)
	//
	switch {
	case call.Extern:
		if binding, ok := p.env.Extern(call.Fn); ok {
			name = binding
		} else {
			name = call.Fn
		}
	case call.Ctor:
		name = Zencode(call.Fn)
	default:
		name = p.config.Prefix + Zencode(call.Fn)
	}
	//
	for _, arg := range call.Args {
		args = append(args, p.valText(arg))
	}
	//
	if !call.Extern && !call.Ctor && p.config.ExtraArguments != "" {
		args = append(args, p.config.ExtraArguments)
	}
	//
	heap := !call.Dst.RepOf().IsStack()
	//
	if _, unit := call.Dst.RepOf().(cir.Unit); unit {
		p.printf("%s%s(%s);\n", pad, name, strings.Join(args, ", "))
	} else if heap || call.Ctor {
		all := append([]string{"&" + p.locText(call.Dst)}, args...)
		p.printf("%s%s(%s);\n", pad, name, strings.Join(all, ", "))
	} else {
		p.printf("%s%s = %s(%s);\n", pad, p.locText(call.Dst), name, strings.Join(args, ", "))
	}
}

//nolint:gocyclo
func (p *Emitter) valText(val cir.Val) string {
	switch val := val.(type) {
	case cir.Lit:
		return litText(val)
	case cir.Id:
		return idText(val.Name)
	case cir.FieldAccess:
		if val.Field == "kind" {
			return fmt.Sprintf("%s.kind", p.valText(val.Arg))
		}
		//
		return fmt.Sprintf("%s.%s", p.valText(val.Arg), Zencode(val.Field))
	case cir.TupleGet:
		return fmt.Sprintf("%s.ztup%d", p.valText(val.Arg), val.Index)
	case cir.Inline:
		return val.Code
	case cir.CallInline:
		args := make([]string, len(val.Args))
		for i, arg := range val.Args {
			args[i] = p.valText(arg)
		}
		//
		return fmt.Sprintf("%s(%s)", val.Fn, strings.Join(args, ", "))
	case cir.Retyped:
		return p.valText(val.Arg)
	case cir.Unary:
		return fmt.Sprintf("(%s%s)", val.Op, p.valText(val.Arg))
	case cir.Binary:
		return fmt.Sprintf("(%s %s %s)", p.valText(val.Lhs), val.Op, p.valText(val.Rhs))
	default:
		name := reflect.TypeOf(val).Name()
		panic(fmt.Sprintf("unknown value \"%s\"", name))
	}
}

// Identifiers which name generated machinery pass through unmangled;
// everything else is zencoded.
func idText(name string) string {
	switch {
	case name == "have_exception" || name == "current_exception":
		return name
	case strings.HasPrefix(name, "Kind_"):
		return "Kind_" + Zencode(name[len("Kind_"):])
	default:
		return Zencode(name)
	}
}

func litText(lit cir.Lit) string {
	switch payload := lit.Val.(type) {
	case cir.LitUnit:
		return "UNIT"
	case cir.LitBool:
		if payload.Value {
			return "true"
		}
		//
		return "false"
	case cir.LitInt:
		return fmt.Sprintf("INT64_C(%s)", payload.Value)
	case cir.LitBits:
		return fmt.Sprintf("UINT64_C(0x%X)", payload.Value)
	case cir.LitString:
		return fmt.Sprintf("%q", payload.Value)
	case cir.LitReal:
		return payload.Value
	default:
		panic("unknown literal")
	}
}

func (p *Emitter) locText(loc cir.Loc) string {
	switch loc := loc.(type) {
	case cir.LocId:
		return idText(loc.Name)
	case cir.LocField:
		if loc.Field == "kind" {
			return fmt.Sprintf("%s.kind", p.locText(loc.Loc))
		}
		//
		return fmt.Sprintf("%s.%s", p.locText(loc.Loc), Zencode(loc.Field))
	case cir.LocTuple:
		return fmt.Sprintf("%s.ztup%d", p.locText(loc.Loc), loc.Index)
	case cir.LocAddr:
		return fmt.Sprintf("(*%s)", p.locText(loc.Loc))
	case cir.LocCurrentException:
		return "(*current_exception)"
	case cir.LocHaveException:
		return "have_exception"
	default:
		name := reflect.TypeOf(loc).Name()
		panic(fmt.Sprintf("left-value %s survived to emission", name))
	}
}
