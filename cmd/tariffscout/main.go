// Package main is the entry point for the tariffscout CLI.
package main

import (
	"os"

	"tariffscout/cmd/tariffscout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
