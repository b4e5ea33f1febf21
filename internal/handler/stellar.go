package handler

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/AlexZinkM/stellar-wallet/internal/keyvault"
	"github.com/AlexZinkM/stellar-wallet/internal/model"
	"github.com/AlexZinkM/stellar-wallet/internal/pipeline"
	"github.com/AlexZinkM/stellar-wallet/stellar"

	"github.com/spf13/cobra"
)

// Flags holds every command-line value of one invocation.
type Flags struct {
	Wallet   string
	Test     bool
	Hardware bool

	Asset       string
	Issuer      string
	Amount      string
	Destination string
	Source      string

	MemoText string
	MemoID   string
	MemoHash string
	Timeout  int64
	JustSign bool
	VZero    bool

	XDR        string
	Mnemonic   bool
	QR         bool
	NoPassword bool
	Limit      uint
}

// ServiceFactory builds the service for the network selected by flags.
type ServiceFactory func(f *Flags) (*stellar.Service, error)

// StellarHandler runs wallet commands and prints their results
type StellarHandler struct {
	flags      *Flags
	newService ServiceFactory
	out        io.Writer
	errOut     io.Writer
}

// NewStellarHandler creates a new StellarHandler. Results go to out; QR codes and notices go to errOut.
func NewStellarHandler(flags *Flags, newService ServiceFactory, out, errOut io.Writer) *StellarHandler {
	return &StellarHandler{
		flags:      flags,
		newService: newService,
		out:        out,
		errOut:     errOut,
	}
}

func (h *StellarHandler) identity() model.Identity {
	return model.Identity{WalletPath: h.flags.Wallet, Hardware: h.flags.Hardware}
}

// txFlags converts the transaction flags, keeping only the ones given on the command line.
func (h *StellarHandler) txFlags(cmd *cobra.Command) model.TxFlags {
	f := h.flags
	tx := model.TxFlags{JustSign: f.JustSign, VZero: f.VZero}
	if cmd.Flags().Changed("timeout") {
		tx.TimeoutSeconds = &f.Timeout
	}
	if cmd.Flags().Changed("memo-text") {
		tx.MemoText = &f.MemoText
	}
	if cmd.Flags().Changed("memo-id") {
		tx.MemoID = &f.MemoID
	}
	if cmd.Flags().Changed("memo-hash") {
		tx.MemoHash = &f.MemoHash
	}
	return tx
}

// CreateWallet handles create_wallet
func (h *StellarHandler) CreateWallet(cmd *cobra.Command, _ []string) error {
	if h.flags.Hardware {
		return fmt.Errorf("create_wallet does not apply to a hardware signer")
	}
	if h.flags.Wallet == "" {
		return model.MissingField("wallet")
	}
	svc, err := h.newService(h.flags)
	if err != nil {
		return err
	}

	resp, err := svc.CreateWallet(h.flags.Wallet, keyvault.CreateOptions{
		UseMnemonic: h.flags.Mnemonic,
		NoPassword:  h.flags.NoPassword,
	}, h.flags.QR)
	if err != nil {
		return err
	}
	if resp.QRCode != "" {
		fmt.Fprint(h.errOut, resp.QRCode)
	}
	return writeJSON(h.out, resp)
}

// PublicKey handles get_public_key
func (h *StellarHandler) PublicKey(cmd *cobra.Command, _ []string) error {
	svc, err := h.newService(h.flags)
	if err != nil {
		return err
	}
	resp, err := svc.PublicKey(h.identity(), h.flags.QR)
	if err != nil {
		return err
	}
	if resp.QRCode != "" {
		fmt.Fprint(h.errOut, resp.QRCode)
	}
	return writeJSON(h.out, resp)
}

// ListBalances handles list_balances
func (h *StellarHandler) ListBalances(cmd *cobra.Command, _ []string) error {
	svc, err := h.newService(h.flags)
	if err != nil {
		return err
	}
	balances, err := svc.ListBalances(h.identity())
	if err != nil {
		return err
	}
	return writeJSON(h.out, balances)
}

// AssetBalance handles list_asset_balance
func (h *StellarHandler) AssetBalance(cmd *cobra.Command, _ []string) error {
	svc, err := h.newService(h.flags)
	if err != nil {
		return err
	}
	resp, err := svc.AssetBalance(h.identity(), h.flags.Asset, h.flags.Issuer)
	if err != nil {
		return err
	}
	return writeJSON(h.out, resp)
}

// ListTransactions handles list_transactions
func (h *StellarHandler) ListTransactions(cmd *cobra.Command, _ []string) error {
	svc, err := h.newService(h.flags)
	if err != nil {
		return err
	}
	txs, err := svc.ListTransactions(h.identity(), h.flags.Limit)
	if err != nil {
		return err
	}
	return writeJSON(h.out, txs)
}

// AddTrust handles add_trust
func (h *StellarHandler) AddTrust(cmd *cobra.Command, _ []string) error {
	svc, err := h.newService(h.flags)
	if err != nil {
		return err
	}
	out, err := svc.AddTrust(model.TrustRequest{
		Identity: h.identity(),
		TxFlags:  h.txFlags(cmd),
		Asset:    h.flags.Asset,
		Issuer:   h.flags.Issuer,
	})
	if err != nil {
		return err
	}
	return writeOutcome(h.out, out)
}

// SendPayment handles send_payment
func (h *StellarHandler) SendPayment(cmd *cobra.Command, _ []string) error {
	svc, err := h.newService(h.flags)
	if err != nil {
		return err
	}
	out, err := svc.SendPayment(model.PaymentRequest{
		Identity:    h.identity(),
		TxFlags:     h.txFlags(cmd),
		Asset:       h.flags.Asset,
		Issuer:      h.flags.Issuer,
		Amount:      h.flags.Amount,
		Destination: h.flags.Destination,
		Source:      h.flags.Source,
	})
	if err != nil {
		return err
	}
	return writeOutcome(h.out, out)
}

// SignTransaction handles sign_transaction
func (h *StellarHandler) SignTransaction(cmd *cobra.Command, _ []string) error {
	svc, err := h.newService(h.flags)
	if err != nil {
		return err
	}
	out, err := svc.SignXDR(model.SignRequest{
		Identity: h.identity(),
		XDR:      h.flags.XDR,
		VZero:    h.flags.VZero,
		JustSign: h.flags.JustSign,
	})
	if err != nil {
		return err
	}
	return writeOutcome(h.out, out)
}

// SubmitTransaction handles submit_transaction
func (h *StellarHandler) SubmitTransaction(cmd *cobra.Command, _ []string) error {
	svc, err := h.newService(h.flags)
	if err != nil {
		return err
	}
	out, err := svc.SubmitXDR(h.flags.XDR)
	if err != nil {
		return err
	}
	return writeOutcome(h.out, out)
}

// writeOutcome prints an exported envelope as text and a submission as JSON.
func writeOutcome(w io.Writer, out *pipeline.Outcome) error {
	if out.State == pipeline.Exported {
		_, err := fmt.Fprintf(w, "TX SIGNED DATA:\n%s\n", out.EnvelopeXDR)
		return err
	}
	return writeJSON(w, out.Result)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}

// WriteError prints err as an ErrorResponse.
func WriteError(w io.Writer, err error) {
	_ = writeJSON(w, model.NewErrorResponse(err))
}
