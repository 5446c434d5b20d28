package main

import (
	"fmt"
	"os"

	"github.com/tendermint/lightcore/cmd/lightcore/commands"
	"github.com/tendermint/lightcore/config"
)

func main() {
	rootCmd := commands.RootCommand(config.DefaultConfig())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}
