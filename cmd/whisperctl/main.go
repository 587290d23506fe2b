// Package main is the entry point for the whisperctl CLI.
// whisperctl is the operator terminal tool for interacting with a whisperd
// daemon.
package main

import (
	"os"

	"whisperd/cmd/whisperctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
