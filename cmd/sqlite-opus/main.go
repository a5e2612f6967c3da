// Package main provides the CLI entrypoint for the SQLite Opus dashboard.
package main

import (
	"os"

	"github.com/opuslabs/sqlite-opus/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
