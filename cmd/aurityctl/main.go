package main

import (
	"os"

	"github.com/BernardUriza/aurity-sub000/cmd/aurityctl/commands"
)

func main() {
	if err := commands.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
