// Package main is the entry point for the waterportal server and CLI.
package main

import (
	"os"

	"github.com/bher20/waterportal/cmd/waterportal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
