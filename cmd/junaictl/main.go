// Package main is the entry point for the junaictl CLI, a terminal client for
// the junai analysis API.
package main

import (
	"os"

	"github.com/example/junai/cmd/junaictl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
