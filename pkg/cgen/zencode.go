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
	"fmt"
	"strings"
)

// Zencode mangles a source identifier into a valid C identifier.  Every
// identifier gains a 'z' prefix, a literal 'z' doubles, and any character
// outside [a-zA-Z0-9_] becomes 'z' followed by its hex code, padded to two
// digits.  The scheme is injective for identifiers whose characters are all
// below 0x100; longer codes of wider characters are not delimited and can
// collide.  Consumers of the generated code rely on this being
// deterministic, e.g. register identifiers are the zencoded form of their
// source name.
func Zencode(id string) string {
	var builder strings.Builder
	//
	builder.WriteString("z")
	//
	for _, c := range id {
		switch {
		case c == 'z':
			builder.WriteString("zz")
		case c >= 'a' && c <= 'y', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			builder.WriteRune(c)
		default:
			builder.WriteString(fmt.Sprintf("z%02X", c))
		}
	}
	//
	return builder.String()
}
