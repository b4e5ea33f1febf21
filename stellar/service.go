// Package stellar implements the wallet commands on top of the key vault, the transaction
// pipeline and the ledger gateway.
package stellar

import (
	"errors"
	"fmt"

	"github.com/AlexZinkM/stellar-wallet/internal/crypto"
	"github.com/AlexZinkM/stellar-wallet/internal/keyvault"
	"github.com/AlexZinkM/stellar-wallet/internal/model"
	"github.com/AlexZinkM/stellar-wallet/internal/pipeline"
	"github.com/AlexZinkM/stellar-wallet/internal/signer"
	"github.com/AlexZinkM/stellar-wallet/internal/txbuilder"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/keypair"
)

// ErrNoDevice is returned when a hardware command runs without a configured device.
var ErrNoDevice = errors.New("hardware device is not configured")

// Gateway is the remote ledger service.
type Gateway interface {
	SequenceNumber(account string) (int64, error)
	Balances(account string) ([]model.Balance, error)
	Transactions(account string, limit uint) ([]model.Transaction, error)
	Submit(envelopeXDR string) (*model.SubmissionResult, error)
}

// Resolver maps user-facing asset and destination names to ledger identifiers.
type Resolver interface {
	Lookup(token, issuer string) (model.Asset, error)
	ResolveAddress(address string) (string, error)
}

// Deps wires a Service.
type Deps struct {
	Vault    *keyvault.Vault
	Gateway  Gateway
	Resolver Resolver
	Builder  *txbuilder.Builder
	// Device may be nil when no hardware signer is used.
	Device     signer.Device
	DevicePath string
	Confirmer  pipeline.Confirmer

	NetworkPassphrase string
	// DefaultTimeoutSeconds applies when a command gives no --timeout.
	DefaultTimeoutSeconds int64
	Logger                *logrus.Logger
}

// Service runs wallet commands for one invocation.
type Service struct {
	vault      *keyvault.Vault
	gateway    Gateway
	resolver   Resolver
	builder    *txbuilder.Builder
	device     signer.Device
	devicePath string
	confirmer  pipeline.Confirmer
	passphrase string
	timeout    int64
	logger     *logrus.Logger
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	timeout := d.DefaultTimeoutSeconds
	if timeout <= 0 {
		timeout = txbuilder.DefaultTimeoutSeconds
	}
	return &Service{
		vault:      d.Vault,
		gateway:    d.Gateway,
		resolver:   d.Resolver,
		builder:    d.Builder,
		device:     d.Device,
		devicePath: d.DevicePath,
		confirmer:  d.Confirmer,
		passphrase: d.NetworkPassphrase,
		timeout:    timeout,
		logger:     d.Logger,
	}
}

// signerFor selects the signing capability of an invocation. Wallet keys are only
// decrypted when the pipeline first needs them.
func (s *Service) signerFor(id model.Identity) (signer.Signer, error) {
	if id.Hardware {
		if s.device == nil {
			return nil, ErrNoDevice
		}
		return signer.NewHardware(s.device, s.devicePath, s.logger), nil
	}
	if id.WalletPath == "" {
		return nil, model.MissingField("wallet")
	}

	return signer.NewDeferred(func() (*keypair.Full, error) {
		wallet, err := s.vault.Load(id.WalletPath)
		if err != nil {
			return nil, err
		}
		defer wallet.Clear()
		return wallet.Keypair()
	}), nil
}

// address returns the account of id without loading any secret.
func (s *Service) address(id model.Identity) (string, error) {
	if id.Hardware {
		hw, err := s.signerFor(id)
		if err != nil {
			return "", err
		}
		return hw.PublicKey()
	}
	if id.WalletPath == "" {
		return "", model.MissingField("wallet")
	}
	address, err := crypto.ReadWalletAddress(id.WalletPath)
	if err != nil {
		return "", fmt.Errorf("failed to read wallet address: %w", err)
	}
	return address, nil
}

// options validates the per-transaction flags, applying the configured default timeout.
func (s *Service) options(flags model.TxFlags) (txbuilder.Options, error) {
	if flags.TimeoutSeconds == nil {
		timeout := s.timeout
		flags.TimeoutSeconds = &timeout
	}
	return txbuilder.NewOptions(flags)
}

func (s *Service) pipeline(sg signer.Signer, justSign bool) *pipeline.Pipeline {
	return pipeline.New(pipeline.Config{
		Signer:            sg,
		Submitter:         s.gateway,
		Confirmer:         s.confirmer,
		NetworkPassphrase: s.passphrase,
		JustSign:          justSign,
		Logger:            s.logger,
	})
}
