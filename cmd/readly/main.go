// Package main is the single-binary entrypoint for Readly:
// the API daemon, the reminder loop, and the inspection CLI.
package main

import "github.com/readly-app/readly/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
