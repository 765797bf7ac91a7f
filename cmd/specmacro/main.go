// Package main is the entry point for the specmacro CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/specmacro/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
