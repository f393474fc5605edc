package main

import (
	"os"

	"ValueSentinel/cmd/sentinel/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
