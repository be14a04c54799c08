package main

// Entry point of the bot
// Executes the cobra command tree and maps errors to exit code 1

import (
	"fmt"
	"os"

	"pharos-bot/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
