package main

import (
	"fmt"
	"os"

	"github.com/de-tools/governance-atlas/pkg/runtime/terminal"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine for the CLI.
	_ = godotenv.Load()

	cli := terminal.NewCLI(terminal.Options{
		Output: os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
