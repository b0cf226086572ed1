// Package main is the entry point for the pagewise CLI.
package main

import (
	"os"

	"github.com/jmylchreest/pagewise/cmd/pagewise/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
