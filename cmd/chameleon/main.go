// Package main provides the entry point for the chameleon CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/chameleon/cmd/chameleon/commands"
)

func main() {
	root := commands.NewRootCommand(os.Stdout, os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
