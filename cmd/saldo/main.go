package main

import (
	"os"

	"github.com/saldo-app/saldo/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
