package main

import (
	"fmt"
	"os"

	"github.com/GoCodeAlone/bootstrap/cmd/bootstrap/cmd"
	_ "github.com/GoCodeAlone/bootstrap/internal/app"
)

func main() {
	rootCmd := cmd.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
