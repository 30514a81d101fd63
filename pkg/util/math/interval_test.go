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
package math

import (
	"math/big"
	"testing"
)

func Test_Interval_01(t *testing.T) {
	iv := NewInterval64(0, 10)
	//
	if !iv.IsFinite() {
		t.Error("finite interval misclassified")
	}
	//
	if !iv.Contains(*big.NewInt(5)) || iv.Contains(*big.NewInt(11)) {
		t.Error("containment broken")
	}
}

func Test_Interval_02(t *testing.T) {
	a := NewInterval64(1, 2)
	a.Add(NewInterval64(10, 20))
	//
	check_Bounds(t, a, 11, 22)
	//
	b := NewInterval64(1, 2)
	b.Sub(NewInterval64(10, 20))
	//
	check_Bounds(t, b, -19, -8)
	//
	c := NewInterval64(-2, 3)
	c.Mul(NewInterval64(-5, 4))
	//
	check_Bounds(t, c, -15, 12)
}

func Test_Interval_03(t *testing.T) {
	a := NewInterval64(1, 5)
	a.Neg()
	//
	check_Bounds(t, a, -5, -1)
}

func Test_Interval_04(t *testing.T) {
	// Intersection against half-infinite intervals, as used when refining
	// kind bounds.
	a := INFINITY
	a.Intersect(UpTo(NewInfInt(*big.NewInt(64))))
	//
	if !a.BelowOrEqual(*big.NewInt(64)) {
		t.Error("upper refinement lost")
	}
	//
	if a.BelowOrEqual(*big.NewInt(63)) {
		t.Error("upper refinement too tight")
	}
	//
	a.Intersect(From(NewInfInt(*big.NewInt(0))))
	//
	check_Bounds(t, a, 0, 64)
}

func Test_Interval_05(t *testing.T) {
	// Disjoint intersections leave the receiver unchanged.
	a := NewInterval64(0, 1)
	a.Intersect(NewInterval64(5, 6))
	//
	check_Bounds(t, a, 0, 1)
}

func Test_Interval_06(t *testing.T) {
	a := NewInterval64(3, 3)
	//
	if !a.IsConstant() {
		t.Error("singleton interval not constant")
	}
	//
	b := NewInterval64(3, 4)
	//
	if b.IsConstant() {
		t.Error("non-singleton interval constant")
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Bounds(t *testing.T, iv Interval, min int64, max int64) {
	t.Helper()
	//
	loBound := iv.MinValue()
	hiBound := iv.MaxValue()
	lo := loBound.IntVal()
	hi := hiBound.IntVal()
	//
	if lo.Cmp(big.NewInt(min)) != 0 || hi.Cmp(big.NewInt(max)) != 0 {
		t.Errorf("bounds %s, expected (%d..%d)", iv.String(), min, max)
	}
}
