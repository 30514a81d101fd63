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
	log "github.com/sirupsen/logrus"
)

// OptimisationConfig provides a mechanism for controlling which optimisation
// passes are applied to the linear IR.
type OptimisationConfig struct {
	// Primops enables specialisation of built-in operations into inline
	// machine-level expressions.
	Primops bool
	// HoistAllocations enables lifting heap-represented locals of
	// non-recursive functions into the function prologue / epilogue.
	HoistAllocations bool
	// Alias enables the remove-alias and combine-variables peephole passes.
	Alias bool
	// Experimental enables passes which have not been proven correct against
	// all lifetime shapes, currently alias hoisting.
	Experimental bool
}

// DEFAULT_OPTIMISATION provides the configuration used when the caller
// expresses no preference: everything proven on, experiments off.
var DEFAULT_OPTIMISATION = OptimisationConfig{
	Primops:          true,
	HoistAllocations: true,
	Alias:            true,
	Experimental:     false,
}

// Optimise applies the post-compilation passes to a program, in their
// required order: return rewriting, variant specialisation, unique naming,
// allocation hoisting (which requires unique names), the alias peepholes and,
// finally, the dependency sort of type definitions.  Return rewriting,
// specialisation, naming and sorting are not optimisations and always run.
func Optimise(program *Program, config OptimisationConfig) error {
	for _, fn := range program.Fns {
		if fn.Extern {
			continue
		}
		//
		FixReturns(fn)
	}
	//
	log.Debugf("rewrote returns for %d functions", len(program.Fns))
	//
	if err := SpecialiseVariants(program); err != nil {
		return err
	}
	//
	for _, fn := range program.Fns {
		UniqueNames(fn)
	}
	//
	if config.HoistAllocations {
		hoisted := HoistAllocations(program)
		log.Debugf("hoisted allocations in %d functions", hoisted)
	}
	//
	if config.Alias {
		for _, fn := range program.Fns {
			fn.Body = RemoveAlias(fn.Body)
			fn.Body = CombineVariables(fn.Body)
		}
	}
	//
	if config.Experimental {
		for _, fn := range program.Fns {
			fn.Body = HoistAlias(fn.Body)
		}
	}
	//
	sorted, err := SortTypeDefs(program.Types)
	if err != nil {
		return err
	}
	//
	program.Types = sorted
	//
	return nil
}
