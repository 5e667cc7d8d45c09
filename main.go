// Package main is the entry point for the pktforge packet crafting tool.
package main

import (
	"os"

	"firestige.xyz/pktforge/cmd"
)

func main() {
	// cobra has already printed the error.
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
