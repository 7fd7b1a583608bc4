// Package main provides routectl, a command line client that runs the delivery route
// planner without the HTTP server.
package main

import (
	"os"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
