// Package main is the entry point for the cloudalloc CLI.
package main

import (
	"os"

	"cloudalloc/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
