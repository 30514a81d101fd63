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
	"os"

	"github.com/consensys/go-isagen/pkg/cgen"
	"github.com/consensys/go-isagen/pkg/cir"
	"github.com/consensys/go-isagen/pkg/isa"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] specification_file",
	Short: "compile a type-checked specification into C source.",
	Long: `Compile a given type-checked specification into a single C translation unit
	 which can be built against the runtime library.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		config := cgen.Config{
			Optimisation: cir.OptimisationConfig{
				Primops:          GetFlag(cmd, "optimise-primops"),
				HoistAllocations: GetFlag(cmd, "hoist-allocations"),
				Alias:            GetFlag(cmd, "optimise-alias"),
				Experimental:     GetFlag(cmd, "experimental"),
			},
			Static:         GetFlag(cmd, "static"),
			NoMain:         GetFlag(cmd, "no-main"),
			NoRts:          GetFlag(cmd, "no-rts"),
			Prefix:         GetString(cmd, "prefix"),
			ExtraParams:    GetString(cmd, "extra-params"),
			ExtraArguments: GetString(cmd, "extra-arguments"),
		}
		//
		defs := ReadSpecificationFile(args[0])
		output := GetString(cmd, "output")
		//
		out, err := os.Create(output)
		if err != nil {
			ReportError(err)
		}
		//
		defer out.Close()
		//
		pipeline := cgen.NewPipeline(isa.NewEnv(), isa.IntervalProver{}, config)
		//
		if err := pipeline.Compile(defs, out); err != nil {
			ReportError(err)
		}
	},
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringP("output", "o", "model.c", "specify output file.")
	compileCmd.Flags().Bool("optimise-primops", false, "specialise built-in operations into inline expressions")
	compileCmd.Flags().Bool("hoist-allocations", false, "hoist heap allocations into function prologues")
	compileCmd.Flags().Bool("optimise-alias", false, "enable the alias removal peepholes")
	compileCmd.Flags().Bool("experimental", false, "enable experimental optimisations")
	compileCmd.Flags().Bool("static", false, "limit linkage of generated functions")
	compileCmd.Flags().Bool("no-main", false, "omit the main wrapper")
	compileCmd.Flags().Bool("no-rts", false, "omit runtime includes and the init/fini scaffold")
	compileCmd.Flags().String("prefix", "", "prefix generated function identifiers")
	compileCmd.Flags().String("extra-params", "", "extra parameter list for every generated signature")
	compileCmd.Flags().String("extra-arguments", "", "extra argument list for every generated call")
	compileCmd.MarkFlagRequired("output")
}
