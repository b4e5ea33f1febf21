// One-off: copy a wallet to a new file under a new password (or none).
// The source wallet is never modified and the destination must not exist.
// Usage: go run ./cmd/reencrypt_wallet <source> <destination>
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AlexZinkM/stellar-wallet/internal/config"
	"github.com/AlexZinkM/stellar-wallet/internal/handler"
	"github.com/AlexZinkM/stellar-wallet/internal/keyvault"

	"github.com/spf13/cobra"
)

type result struct {
	PublicKey string `json:"public_key"`
	Encrypted bool   `json:"encrypted"`
	Path      string `json:"path"`
}

func main() {
	cmd := &cobra.Command{
		Use:           "reencrypt_wallet <source> <destination>",
		Short:         "Write a wallet to a new file under a new password",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(); err != nil {
				return err
			}
			logger := config.Get().NewLogger()

			vault := keyvault.New(config.NewTerminalPasswords(), logger)
			wallet, err := vault.Rewrap(args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to re-encrypt wallet: %w", err)
			}
			defer wallet.Clear()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "    ")
			return enc.Encode(result{PublicKey: wallet.PublicKey, Encrypted: wallet.Encrypted, Path: args[1]})
		},
	}

	if err := cmd.Execute(); err != nil {
		handler.WriteError(os.Stderr, err)
		os.Exit(1)
	}
}
