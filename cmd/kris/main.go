package main

import (
	"os"

	"github.com/kris-accounting/kris/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
