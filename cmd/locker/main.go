// Package main is the entry point for the locker server.
package main

import (
	"fmt"
	"os"

	"github.com/aussiebroadwan/locker/internal/locker/app"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if version != "dev" {
		app.BuildVersion = version
	}

	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", app.BuildVersion, commit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
