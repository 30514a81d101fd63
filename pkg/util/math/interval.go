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
	"fmt"
	"math/big"
)

// INFINITY represents the interval which encloses all other intervals.
var INFINITY Interval = Interval{NegInfinity, PosInfinity}

// Interval provides a discrete range of integers, such as 0..1, 1..18, etc.
// An interval approximates the possible values a given length or index
// expression could evaluate to under the constraints in scope.  An interval
// can additionally represent three different forms of infinity: negative
// infinity, positive infinity and plain infinity.  The latter contains both
// negative and positive infinities.
type Interval struct {
	min InfInt
	max InfInt
}

// NewInterval creates an interval representing a given range.
func NewInterval(lower big.Int, upper big.Int) Interval {
	var (
		min InfInt
		max InfInt
	)
	// sanity check
	if lower.Cmp(&upper) > 0 {
		panic("invalid interval")
	}
	//
	min.SetInt(lower)
	max.SetInt(upper)
	//
	return Interval{min, max}
}

// NewInterval64 creates an interval representing a given range.
func NewInterval64(lower int64, upper int64) Interval {
	return NewInterval(*big.NewInt(lower), *big.NewInt(upper))
}

// UpTo creates the half-infinite interval stretching from negative infinity
// up to a given bound.
func UpTo(bound InfInt) Interval {
	return Interval{NegInfinity, bound}
}

// From creates the half-infinite interval stretching from a given bound up to
// positive infinity.
func From(bound InfInt) Interval {
	return Interval{bound, PosInfinity}
}

// IsFinite determines whether or not this interval represents a finite value
// (i.e. not an infinity).
func (p *Interval) IsFinite() bool {
	return p.min.IsNotAnInfinity() && p.max.IsNotAnInfinity()
}

// IsConstant determines whether this interval holds exactly one value.
func (p *Interval) IsConstant() bool {
	return p.IsFinite() && p.min.Cmp(p.max) == 0
}

// MinValue returns the minimum value that this interval includes.
func (p *Interval) MinValue() InfInt {
	return p.min
}

// MaxValue returns the maximum value that this interval includes.
func (p *Interval) MaxValue() InfInt {
	return p.max
}

// Set assigns a given interval to this interval.
func (p *Interval) Set(val Interval) {
	p.min.Set(val.min)
	p.max.Set(val.max)
}

// Contains checks whether a given value is contained with this interval.
func (p *Interval) Contains(val big.Int) bool {
	return p.min.CmpInt(val) <= 0 && p.max.CmpInt(val) >= 0
}

// Within checks whether this interval is contained within the given interval.
func (p *Interval) Within(val Interval) bool {
	return p.min.Cmp(val.min) >= 0 && p.max.Cmp(val.max) <= 0
}

// AboveOrEqual checks whether every value of this interval is at least the
// given bound.
func (p *Interval) AboveOrEqual(bound big.Int) bool {
	return p.min.CmpInt(bound) >= 0
}

// BelowOrEqual checks whether every value of this interval is at most the
// given bound.
func (p *Interval) BelowOrEqual(bound big.Int) bool {
	return p.max.CmpInt(bound) <= 0
}

// Add two intervals together
func (p *Interval) Add(q Interval) {
	// lower bound
	p.min = p.min.Add(q.min)
	// upper bound
	p.max = p.max.Add(q.max)
	// normalise bounds
	p.normalise()
}

// Sub subtracts another interval from this.
func (p *Interval) Sub(q Interval) {
	// lower bound
	p.min = p.min.Sub(q.max)
	// upper bound
	p.max = p.max.Sub(q.min)
	// normalise bounds
	p.normalise()
}

// Mul multiplies this interval by another.
func (p *Interval) Mul(q Interval) {
	x1 := p.min.Mul(q.min)
	x2 := p.min.Mul(q.max)
	x3 := p.max.Mul(q.min)
	x4 := p.max.Mul(q.max)
	//
	x1_m_x2 := x1.Min(x2)
	x3_m_x4 := x3.Min(x4)
	x1_x_x2 := x1.Max(x2)
	x3_x_x4 := x3.Max(x4)
	// Compute min / max
	min := x1_m_x2.Min(x3_m_x4)
	max := x1_x_x2.Max(x3_x_x4)
	//
	p.min.Set(min)
	p.max.Set(max)
}

// Neg negates this interval (i.e. flips it about zero).
func (p *Interval) Neg() {
	var (
		min = p.max.Negate()
		max = p.min.Negate()
	)
	//
	p.min = min
	p.max = max
	//
	p.normalise()
}

// Intersect narrows this interval to its intersection with another.  If the
// two intervals are disjoint, the result is left unchanged (the approximation
// remains sound for proving purposes, just imprecise).
func (p *Interval) Intersect(other Interval) {
	var (
		min = p.min.Max(other.min)
		max = p.max.Min(other.max)
	)
	//
	if min.Cmp(max) <= 0 {
		p.min = min
		p.max = max
	}
}

// Union returns the set union of two intervals.
func (p *Interval) Union(other Interval) Interval {
	return Interval{p.min.Min(other.min), p.max.Max(other.max)}
}

func (p *Interval) String() string {
	return fmt.Sprintf("(%s..%s)", p.min.String(), p.max.String())
}

func (p *Interval) normalise() {
	if p.min.sign == infinity {
		p.min = NegInfinity
	}
	// normalise upper bound
	if p.max.sign == infinity {
		p.max = PosInfinity
	}
}
