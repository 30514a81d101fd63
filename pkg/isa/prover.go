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
	"math/big"
)

// Prover is the constraint-proving capability consulted during type
// lowering.  Given the kind environment in scope, it decides whether a length
// expression is provably bounded.  A sound prover may always answer false;
// answering true for an unprovable query would make lowering unsound.
type Prover interface {
	// ProveLeq determines whether e <= bound holds under the given
	// environment.
	ProveLeq(env KindEnv, e NumExpr, bound *big.Int) bool
	// ProveGeq determines whether e >= bound holds under the given
	// environment.
	ProveGeq(env KindEnv, e NumExpr, bound *big.Int) bool
}

// IntervalProver decides bounds by interval arithmetic over the kind
// environment.  This is complete for the linear bounds which arise from
// range and vector types in practice; an external solver can be substituted
// through the Prover interface where more power is required.
type IntervalProver struct{}

// ProveLeq for IntervalProver.
func (p IntervalProver) ProveLeq(env KindEnv, e NumExpr, bound *big.Int) bool {
	iv := RangeOf(env, e)
	//
	return iv.BelowOrEqual(*bound)
}

// ProveGeq for IntervalProver.
func (p IntervalProver) ProveGeq(env KindEnv, e NumExpr, bound *big.Int) bool {
	iv := RangeOf(env, e)
	//
	return iv.AboveOrEqual(*bound)
}
