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
	"github.com/consensys/go-isagen/pkg/cir"
)

//go:generate go run ./internal/generator

// File-scope storage for every top-level binding.
func (p *Emitter) emitLetStorage(program *cir.Program) {
	for _, let := range program.Lets {
		for _, b := range let.Bindings {
			p.printf("%s %s;\n", CType(b.Rep), Zencode(b.Name))
		}
	}
	//
	if len(program.Lets) > 0 {
		p.printf("\n")
	}
}

// Emit the top-level binding machinery: an initialiser / finaliser pair per
// binding, invoked from model_init and model_fini in declaration order and
// reverse declaration order respectively.
func (p *Emitter) emitLetBindings(program *cir.Program) {
	for _, let := range program.Lets {
		p.printf("%svoid %screate_letbind_%d(void)\n{\n", p.linkage(), p.config.Prefix, let.Index)
		//
		for _, b := range let.Bindings {
			if !b.Rep.IsStack() {
				p.printf("  CREATE(%s)(&%s);\n", Token(b.Rep), Zencode(b.Name))
			}
		}
		//
		for _, instr := range let.Setup {
			p.emitInstr(instr, 1)
		}
		//
		p.printf("}\n\n")
		p.printf("%svoid %skill_letbind_%d(void)\n{\n", p.linkage(), p.config.Prefix, let.Index)
		//
		for i := len(let.Bindings) - 1; i >= 0; i-- {
			b := let.Bindings[i]
			//
			if !b.Rep.IsStack() {
				p.printf("  KILL(%s)(&%s);\n", Token(b.Rep), Zencode(b.Name))
			}
		}
		//
		p.printf("}\n\n")
	}
}

// Emit model_init, model_fini, model_main and the main wrapper.  The
// initialiser allocates registers, establishes top-level bindings and the
// exception state; the finaliser releases everything in reverse.  When the
// runtime is suppressed, model_init and model_fini are omitted and
// model_main is stripped of the init / fini choreography; the main wrapper
// is omitted only when NoMain is set.
func (p *Emitter) emitScaffold(program *cir.Program) {
	if !p.config.NoRts {
		p.emitModelInit(program)
		p.emitModelFini(program)
	}
	//
	p.emitModelMain(program)
	//
	if !p.config.NoMain {
		p.printf("%s", mainWrapper)
	}
}

func (p *Emitter) emitModelInit(program *cir.Program) {
	p.printf("%s", modelInitHeader)
	//
	for _, reg := range program.Registers {
		if !reg.Rep.IsStack() {
			p.printf("  CREATE(%s)(&%s);\n", Token(reg.Rep), Zencode(reg.Name))
		}
	}
	//
	if program.HasException {
		p.printf("  current_exception = malloc(sizeof(%s));\n", CType(program.ExceptionRep))
		p.printf("  CREATE(%s)(current_exception);\n", Token(program.ExceptionRep))
	}
	//
	for _, let := range program.Lets {
		p.printf("  %screate_letbind_%d();\n", p.config.Prefix, let.Index)
	}
	//
	p.printf("}\n\n")
}

func (p *Emitter) emitModelFini(program *cir.Program) {
	p.printf("%s", modelFiniHeader)
	//
	for i := len(program.Lets) - 1; i >= 0; i-- {
		p.printf("  %skill_letbind_%d();\n", p.config.Prefix, program.Lets[i].Index)
	}
	//
	if program.HasException {
		p.printf("  KILL(%s)(current_exception);\n", Token(program.ExceptionRep))
		p.printf("  free(current_exception);\n")
	}
	//
	for _, reg := range program.Registers {
		if !reg.Rep.IsStack() {
			p.printf("  KILL(%s)(&%s);\n", Token(reg.Rep), Zencode(reg.Name))
		}
	}
	//
	p.printf("  cleanup_rts();\n}\n\n")
}

func (p *Emitter) emitModelMain(program *cir.Program) {
	p.printf("%s", modelMainHeader)
	//
	if !p.config.NoRts {
		p.printf("  model_init();\n")
	}
	//
	if _, ok := program.FnOf("main"); ok {
		p.printf("  %s%s(UNIT);\n", p.config.Prefix, Zencode("main"))
	}
	//
	if program.HasException {
		p.printf("  if (have_exception) { fprintf(stderr, \"unhandled exception\\n\"); }\n")
	}
	//
	if !p.config.NoRts {
		p.printf("  model_fini();\n")
	}
	//
	p.printf("  return EXIT_SUCCESS;\n}\n\n")
}
