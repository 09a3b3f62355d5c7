// Package main implements the singleline CLI (sline).
// It rewrites Python programs into a single expression and exposes the analyses
// the rewrite is built on.
package main

import (
	"os"

	"github.com/l3aro/go-singleline/cmd/sline/commands"
)

var version = "dev"

func main() {
	if err := commands.Execute(version); err != nil {
		os.Exit(1)
	}
}
