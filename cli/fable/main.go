package main

import (
	"os"

	fablecmder "github.com/fablehq/fable/cmd/fable"
)

func main() {
	cmd := fablecmder.NewFableCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
