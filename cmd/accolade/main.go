// Package main is the single-binary entrypoint for accolade.
package main

import "github.com/greenhouse-games/accolade/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
