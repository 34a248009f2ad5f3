package main

import (
	"fmt"
	"os"

	"github.com/benvon/handbook/cmd/handbook/commands"
)

func main() {
	rootCmd := commands.NewRootCmd(commands.NewEnv())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
