// Package main provides the entry point for the photosync CLI.
package main

import (
	"os"

	"photosync/cmd/photosync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
