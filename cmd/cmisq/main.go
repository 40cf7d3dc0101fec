// Package main is the entry point for the cmisq CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/cmisq/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
