// Package cli wires the wallet commands to their handlers.
package cli

import (
	"io"
	"os"

	"github.com/AlexZinkM/stellar-wallet/internal/asset"
	"github.com/AlexZinkM/stellar-wallet/internal/client"
	"github.com/AlexZinkM/stellar-wallet/internal/config"
	"github.com/AlexZinkM/stellar-wallet/internal/device"
	"github.com/AlexZinkM/stellar-wallet/internal/handler"
	"github.com/AlexZinkM/stellar-wallet/internal/keyvault"
	"github.com/AlexZinkM/stellar-wallet/internal/txbuilder"
	"github.com/AlexZinkM/stellar-wallet/stellar"

	"github.com/spf13/cobra"
)

// NewRootCommand sets up the command tree with handlers
func NewRootCommand(newService handler.ServiceFactory, out, errOut io.Writer) *cobra.Command {
	flags := &handler.Flags{}
	h := handler.NewStellarHandler(flags, newService, out, errOut)

	root := &cobra.Command{
		Use:   "stellar-wallet",
		Short: "Command-line wallet for the Stellar network",
		Long: `stellar-wallet creates and stores keypairs, builds and signs transactions
(trust lines, payments, raw XDR envelopes), submits them to Horizon and queries
account balances and history.

Keys live in a local wallet file, optionally password protected, or on a
hardware device reached through its local bridge (--trezor).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Wallet, "wallet", "w", "", "wallet file")
	pf.BoolVarP(&flags.Test, "test", "t", false, "use the test network")
	pf.BoolVar(&flags.Hardware, "trezor", false, "sign with the hardware device instead of a wallet file")

	createWallet := &cobra.Command{
		Use:   "create_wallet",
		Short: "Generate a new keypair and save it to the wallet file",
		Args:  cobra.NoArgs,
		RunE:  h.CreateWallet,
	}
	createWallet.Flags().BoolVar(&flags.Mnemonic, "mnemonic", false, "derive the key from a new 24-word mnemonic")
	createWallet.Flags().BoolVar(&flags.NoPassword, "no-password", false, "store the secret unencrypted without prompting")
	createWallet.Flags().BoolVar(&flags.QR, "qr", false, "print the address as a QR code")

	publicKey := &cobra.Command{
		Use:   "get_public_key",
		Short: "Print the wallet or device address",
		Args:  cobra.NoArgs,
		RunE:  h.PublicKey,
	}
	publicKey.Flags().BoolVar(&flags.QR, "qr", false, "print the address as a QR code")

	listBalances := &cobra.Command{
		Use:   "list_balances",
		Short: "List all balances of the account",
		Args:  cobra.NoArgs,
		RunE:  h.ListBalances,
	}

	assetBalance := &cobra.Command{
		Use:   "list_asset_balance",
		Short: "Print the balance of one asset",
		Args:  cobra.NoArgs,
		RunE:  h.AssetBalance,
	}
	assetFlags(assetBalance, flags)

	listTransactions := &cobra.Command{
		Use:   "list_transactions",
		Short: "List the most recent transactions of the account",
		Args:  cobra.NoArgs,
		RunE:  h.ListTransactions,
	}
	listTransactions.Flags().UintVar(&flags.Limit, "limit", client.DefaultHistoryLimit, "number of transactions to list")

	addTrust := &cobra.Command{
		Use:   "add_trust",
		Short: "Establish a trust line to an asset",
		Args:  cobra.NoArgs,
		RunE:  h.AddTrust,
	}
	assetFlags(addTrust, flags)
	txFlags(addTrust, flags)

	sendPayment := &cobra.Command{
		Use:   "send_payment",
		Short: "Send a payment",
		Args:  cobra.NoArgs,
		RunE:  h.SendPayment,
	}
	assetFlags(sendPayment, flags)
	txFlags(sendPayment, flags)
	sendPayment.Flags().StringVarP(&flags.Amount, "amount", "p", "", "amount to pay, up to 7 decimals")
	sendPayment.Flags().StringVarP(&flags.Destination, "destination", "d", "", "destination address or name*domain")
	sendPayment.Flags().StringVarP(&flags.Source, "source", "s", "", "transaction source account (defaults to the signer)")

	signTransaction := &cobra.Command{
		Use:   "sign_transaction",
		Short: "Review, sign and submit a base64 XDR envelope",
		Args:  cobra.NoArgs,
		RunE:  h.SignTransaction,
	}
	signTransaction.Flags().StringVarP(&flags.XDR, "xdr", "x", "", "base64 transaction envelope")
	signTransaction.Flags().BoolVar(&flags.JustSign, "just-sign", false, "print the signed envelope instead of submitting it")
	signTransaction.Flags().BoolVar(&flags.VZero, "vzero", false, "encode the signed envelope as v0")

	submitTransaction := &cobra.Command{
		Use:   "submit_transaction",
		Short: "Review and submit a signed base64 XDR envelope",
		Args:  cobra.NoArgs,
		RunE:  h.SubmitTransaction,
	}
	submitTransaction.Flags().StringVarP(&flags.XDR, "xdr", "x", "", "base64 transaction envelope")

	root.AddCommand(
		createWallet,
		publicKey,
		listBalances,
		assetBalance,
		listTransactions,
		addTrust,
		sendPayment,
		signTransaction,
		submitTransaction,
	)
	return root
}

func assetFlags(cmd *cobra.Command, flags *handler.Flags) {
	cmd.Flags().StringVarP(&flags.Asset, "asset", "a", "", "asset code, CODE@domain or XLM")
	cmd.Flags().StringVarP(&flags.Issuer, "issuer", "i", "", "asset issuer")
}

func txFlags(cmd *cobra.Command, flags *handler.Flags) {
	cmd.Flags().StringVar(&flags.MemoText, "memo-text", "", "text memo, up to 28 bytes")
	cmd.Flags().StringVar(&flags.MemoID, "memo-id", "", "id memo")
	cmd.Flags().StringVar(&flags.MemoHash, "memo-hash", "", "hash memo, 32 bytes hex")
	cmd.Flags().Int64Var(&flags.Timeout, "timeout", 0, "seconds until the transaction expires (default DEFAULT_TIMEOUT_SECONDS)")
	cmd.Flags().BoolVar(&flags.JustSign, "just-sign", false, "print the signed envelope instead of submitting it")
	cmd.Flags().BoolVar(&flags.VZero, "vzero", false, "encode the transaction as a v0 envelope")
}

// NewService builds the wallet service from the process configuration.
// config.Init must have been called.
func NewService(f *handler.Flags) (*stellar.Service, error) {
	cfg := config.Get()
	settings := cfg.Settings(f.Test)
	logger := cfg.NewLogger()

	return stellar.NewService(stellar.Deps{
		Vault:                 keyvault.New(config.NewTerminalPasswords(), logger),
		Gateway:               client.NewHorizonClient(settings.HorizonURL, cfg.HTTPTimeout, logger),
		Resolver:              asset.NewResolver(cfg.HTTPTimeout, logger),
		Builder:               txbuilder.NewBuilder(cfg.BaseFee),
		Device:                device.NewBridgeClient(cfg.HardwareBridgeURL, logger),
		DevicePath:            cfg.HardwarePath,
		Confirmer:             config.NewConsoleConfirmer(os.Stdin, os.Stderr),
		NetworkPassphrase:     settings.Passphrase,
		DefaultTimeoutSeconds: cfg.DefaultTimeoutSeconds,
		Logger:                logger,
	}), nil
}
