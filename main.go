package main

import (
	"os"

	"github.com/ish-xyz/roster-photocache/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
