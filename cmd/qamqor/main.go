package main

import (
	"github.com/qamqor-studio/qamqor/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
