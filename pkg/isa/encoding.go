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
	"bytes"
	"encoding/gob"
)

// The front end delivers type-checked definitions in memory; for separate
// invocation they round-trip through a binary file as gob-encoded values.
// Every node of the source algebra must be registered for the interface
// fields to decode.
func init() {
	gob.Register(NamedType{})
	gob.Register(RangeType{})
	gob.Register(AtomType{})
	gob.Register(ItselfType{})
	gob.Register(ImplicitType{})
	gob.Register(AtomBoolType{})
	gob.Register(VectorType{})
	gob.Register(ListType{})
	gob.Register(TupleType{})
	gob.Register(RegisterType{})
	gob.Register(VarType{})
	gob.Register(ExistsType{})
	//
	gob.Register(NumConst{})
	gob.Register(NumVar{})
	gob.Register(NumAdd{})
	gob.Register(NumSub{})
	gob.Register(NumMul{})
	gob.Register(NumNeg{})
	//
	gob.Register(&Lit{})
	gob.Register(&Var{})
	gob.Register(&Let{})
	gob.Register(&If{})
	gob.Register(&App{})
	gob.Register(&Tuple{})
	gob.Register(&Field{})
	gob.Register(&StructLit{})
	gob.Register(&Ctor{})
	gob.Register(&VectorLit{})
	gob.Register(&ListLit{})
	gob.Register(&Cast{})
	gob.Register(&Match{})
	gob.Register(&Try{})
	gob.Register(&Throw{})
	gob.Register(&Return{})
	gob.Register(&Block{})
	gob.Register(&Assign{})
	gob.Register(&ForEach{})
	gob.Register(&Loop{})
	//
	gob.Register(PatWild{})
	gob.Register(PatVar{})
	gob.Register(PatLit{})
	gob.Register(PatTuple{})
	gob.Register(PatCtor{})
	//
	gob.Register(&FnDef{})
	gob.Register(&TypeDef{})
	gob.Register(&RegisterDef{})
	gob.Register(&LetDef{})
	gob.Register(&ExternDef{})
}

// EncodeDefs serialises a definition stream into its binary form.
func EncodeDefs(defs []Def) ([]byte, error) {
	var buffer bytes.Buffer
	//
	if err := gob.NewEncoder(&buffer).Encode(defs); err != nil {
		return nil, err
	}
	//
	return buffer.Bytes(), nil
}

// DecodeDefs deserialises a definition stream from its binary form.
func DecodeDefs(data []byte) ([]Def, error) {
	var defs []Def
	//
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&defs); err != nil {
		return nil, err
	}
	//
	return defs, nil
}
