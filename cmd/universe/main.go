package main

import (
	"os"

	"github.com/mhzhou/universe-data/cmd/universe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
