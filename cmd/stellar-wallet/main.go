package main

import (
	"os"

	"github.com/AlexZinkM/stellar-wallet/internal/cli"
	"github.com/AlexZinkM/stellar-wallet/internal/config"
	"github.com/AlexZinkM/stellar-wallet/internal/handler"
)

func main() {
	if err := config.Init(); err != nil {
		handler.WriteError(os.Stderr, err)
		os.Exit(1)
	}

	root := cli.NewRootCommand(cli.NewService, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		handler.WriteError(os.Stderr, err)
		os.Exit(1)
	}
}
