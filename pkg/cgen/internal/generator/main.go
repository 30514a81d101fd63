package main

import (
	"fmt"
	"os"

	"github.com/consensys/bavard"
)

const copyrightHolder = "Consensys Software Inc."

// Regenerates the fixed runtime fragments embedded in the emitter from their
// templates.
//
//go:generate go run main.go
func main() {
	bgen := bavard.NewBatchGenerator(copyrightHolder, 2025, "go-isagen")

	err := bgen.Generate(struct{}{}, "cgen", "templates",
		bavard.Entry{
			File:      "../../runtime_gen.go",
			Templates: []string{"runtime_gen.go.tmpl"},
			BuildTag:  "",
		},
	)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
