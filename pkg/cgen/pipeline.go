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

// Package cgen drives the backend pipeline: lowering the typed source IR to
// the linear IR, applying the optimisation passes, and emitting the final C
// artifact.
package cgen

import (
	"fmt"
	"io"

	"github.com/consensys/go-isagen/pkg/anf"
	"github.com/consensys/go-isagen/pkg/cir"
	"github.com/consensys/go-isagen/pkg/isa"
	log "github.com/sirupsen/logrus"
)

// Config collects every knob the backend recognises.
type Config struct {
	// Optimisation selects which IR passes run.
	Optimisation cir.OptimisationConfig
	// Static prefixes generated functions and binding helpers with a
	// linkage-limiting modifier.
	Static bool
	// NoMain omits the main wrapper, emitting only model_main.
	NoMain bool
	// NoRts omits the runtime include and the init / fini scaffold.
	NoRts bool
	// Prefix is prepended to every generated function identifier.
	Prefix string
	// ExtraParams is a textual parameter list threaded through every
	// generated function signature.
	ExtraParams string
	// ExtraArguments is the matching textual argument list threaded through
	// every call site.
	ExtraArguments string
}

// Pipeline compiles a set of source definitions into C text.  The name
// counters and the emitted auxiliary type set are created afresh by each
// call to Compile.  The environment is shared, and Compile registers the
// declarations it meets into it, so concurrent compilations require
// separate pipelines over separate environments.
type Pipeline struct {
	env    *isa.Env
	prover isa.Prover
	config Config
}

// NewPipeline constructs a pipeline over a given environment and prover.
func NewPipeline(env *isa.Env, prover isa.Prover, config Config) *Pipeline {
	return &Pipeline{env, prover, config}
}

// Compile lowers, optimises and emits a complete specification, writing the
// artifact to the given sink.  Compilation halts on the first fatal error.
func (p *Pipeline) Compile(defs []isa.Def, out io.Writer) error {
	ctx := isa.NewContext(p.env, p.prover)
	// Declarations must be registered before anything is lowered, since
	// functions may mention types defined later in the stream.
	for _, def := range defs {
		switch def := def.(type) {
		case *isa.TypeDef:
			p.declareType(def)
		case *isa.ExternDef:
			p.env.DeclareExtern(def.Name, def.Binding)
		}
	}
	//
	var (
		compiler = anf.NewCompiler(ctx, p.config.Optimisation)
		program  = &cir.Program{}
	)
	//
	if rep, ok := compiler.ExceptionRep(); ok {
		program.HasException = true
		program.ExceptionRep = rep
	}
	//
	for _, def := range defs {
		switch def := def.(type) {
		case *isa.TypeDef:
			if err := p.lowerTypeDef(ctx, def, program); err != nil {
				return err
			}
		case *isa.RegisterDef:
			rep, err := ctx.At(def.Loc).LowerType(def.Type)
			if err != nil {
				return err
			}
			//
			program.Registers = append(program.Registers, cir.RegDef{Name: def.Name, Rep: rep})
		case *isa.LetDef:
			if err := p.lowerLet(ctx, compiler, def, program); err != nil {
				return err
			}
		case *isa.FnDef:
			fn, err := compiler.CompileFn(def)
			if err != nil {
				return err
			}
			//
			program.Fns = append(program.Fns, fn)
		}
	}
	//
	log.Debugf("compiled %d functions, %d types, %d registers, %d bindings",
		len(program.Fns), len(program.Types), len(program.Registers), len(program.Lets))
	//
	if err := cir.Optimise(program, p.config.Optimisation); err != nil {
		return err
	}
	//
	return NewEmitter(p.env, p.config, out).Emit(program)
}

func (p *Pipeline) declareType(def *isa.TypeDef) {
	switch def.Kind {
	case isa.SynonymDef:
		p.env.DeclareSynonym(def.Id, def.Synonym)
	case isa.RecordDef:
		p.env.DeclareRecord(def.Record)
	case isa.VariantDefKind:
		p.env.DeclareVariant(def.Variant)
	case isa.EnumDefKind:
		p.env.DeclareEnum(def.Enum)
	}
}

func (p *Pipeline) lowerTypeDef(ctx *isa.Context, def *isa.TypeDef, program *cir.Program) error {
	if def.Kind == isa.SynonymDef {
		// Synonyms are transparent and leave no definition behind.
		return nil
	}
	//
	rep, err := ctx.At(def.Loc).LowerType(isa.NamedType{Id: def.Id})
	if err != nil {
		return err
	}
	//
	switch rep := rep.(type) {
	case cir.Struct:
		program.Types = append(program.Types, &cir.StructDef{Id: rep.Id, Fields: rep.Fields})
	case cir.Variant:
		program.Types = append(program.Types, &cir.VariantDef{Id: rep.Id, Ctors: rep.Ctors})
	case cir.Enum:
		program.Types = append(program.Types, &cir.EnumDef{Id: rep.Id, Ctors: rep.Ctors})
	default:
		return fmt.Errorf("type %s lowered to unexpected representation %s", def.Id, rep)
	}
	//
	return nil
}

// A top-level binding compiles into the instructions which establish its
// names at start-up.  Multi-name bindings destructure through a scratch
// tuple.
func (p *Pipeline) lowerLet(ctx *isa.Context, compiler *anf.Compiler, def *isa.LetDef, program *cir.Program) error {
	var (
		index    = len(program.Lets)
		bindings = make([]cir.Param, len(def.Names))
	)
	//
	for i, name := range def.Names {
		rep, err := ctx.At(def.Loc).LowerType(def.Types[i])
		if err != nil {
			return err
		}
		//
		bindings[i] = cir.Param{Name: name, Rep: rep}
	}
	//
	var setup []cir.Instr
	//
	if len(bindings) == 1 {
		instrs, err := compiler.CompileInit(def.Init, cir.LocId{Name: bindings[0].Name, Rep: bindings[0].Rep})
		if err != nil {
			return err
		}
		//
		setup = instrs
	} else {
		var (
			reps = make([]cir.Rep, len(bindings))
		)
		//
		for i, b := range bindings {
			reps[i] = b.Rep
		}
		//
		var (
			tup     = cir.Tup{Elems: reps}
			scratch = fmt.Sprintf("letb$%d", index)
		)
		//
		instrs, err := compiler.CompileInit(def.Init, cir.LocId{Name: scratch, Rep: tup})
		if err != nil {
			return err
		}
		//
		setup = append(setup, cir.Decl{Rep: tup, Name: scratch})
		setup = append(setup, instrs...)
		//
		for i, b := range bindings {
			src := cir.TupleGet{Arg: cir.Id{Name: scratch, Rep: tup}, Index: i, Rep: b.Rep}
			setup = append(setup, cir.Copy{Dst: cir.LocId{Name: b.Name, Rep: b.Rep}, Src: src})
		}
		//
		if !tup.IsStack() {
			setup = append(setup, cir.Clear{Rep: tup, Name: scratch})
		}
	}
	//
	program.Lets = append(program.Lets, cir.LetDef{Index: index, Bindings: bindings, Setup: setup})
	//
	return nil
}
