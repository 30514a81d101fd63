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
package cmd

import (
	"fmt"
	"os"

	"github.com/consensys/go-isagen/pkg/isa"
	"github.com/consensys/go-isagen/pkg/util/source"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// GetFlag gets an expected flag, or prints the error and exits if an error
// arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string, or prints the error and exits if an
// error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// ReadSpecificationFile parses a type-checked specification from its binary
// form.
func ReadSpecificationFile(filename string) []isa.Def {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		ReportError(err)
	}
	//
	defs, err := isa.DecodeDefs(bytes)
	if err != nil {
		ReportError(err)
	}
	//
	return defs
}

// ReportError prints an error and exits.  Errors carrying a source location
// are highlighted when the output is an interactive terminal.
func ReportError(err error) {
	if located, ok := err.(*source.Error); ok && located.Loc().IsKnown() {
		loc := located.Loc()
		//
		if term.IsTerminal(int(os.Stderr.Fd())) {
			fmt.Fprintf(os.Stderr, "\033[1m%s:%d-%d:\033[0m \033[31merror:\033[0m %s\n",
				loc.Filename, loc.Span.Start(), loc.Span.End(), located.Message())
		} else {
			fmt.Fprintf(os.Stderr, "%s:%d-%d: error: %s\n",
				loc.Filename, loc.Span.Start(), loc.Span.End(), located.Message())
		}
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	//
	os.Exit(2)
}
