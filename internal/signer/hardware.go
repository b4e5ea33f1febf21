package signer

import (
	"errors"
	"fmt"

	"github.com/AlexZinkM/stellar-wallet/internal/txbuilder"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/txnbuild"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// DefaultDerivationPath is the SEP-5 path of the first ledger account on a device.
const DefaultDerivationPath = "m/44'/148'/0'"

// ErrInvalidDeviceSignature is returned when the device answers with a signature that does
// not verify against its own address.
var ErrInvalidDeviceSignature = errors.New("hardware device returned an invalid signature")

// Device is a transport to an external signing device.
// The device displays the parsed transaction and asks its operator to approve it.
type Device interface {
	GetAddress(path string) (string, error)
	SignTransaction(tx *txnbuild.Transaction, path, networkPassphrase string) ([]byte, error)
}

// HardwareSigner delegates signing to a Device over a fixed derivation path.
//
// The device firmware only accepts legacy envelopes, so every transaction it signs is
// encoded as ProtocolV0 regardless of what the command asked for.
type HardwareSigner struct {
	device  Device
	path    string
	logger  *logrus.Logger
	address string
}

// NewHardware creates a HardwareSigner. An empty path selects DefaultDerivationPath.
func NewHardware(device Device, path string, logger *logrus.Logger) *HardwareSigner {
	if path == "" {
		path = DefaultDerivationPath
	}
	return &HardwareSigner{
		device: device,
		path:   path,
		logger: logger,
	}
}

// PublicKey queries the device; no secret is loaded on the host.
func (s *HardwareSigner) PublicKey() (string, error) {
	if s.address != "" {
		return s.address, nil
	}
	address, err := s.device.GetAddress(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to get address from hardware device: %w", err)
	}
	if _, err := keypair.ParseAddress(address); err != nil {
		return "", fmt.Errorf("hardware device returned invalid address %q: %w", address, err)
	}
	s.address = address
	return address, nil
}

// Sign sends the parsed transaction to the device and blocks until the operator answers
// on the device. The returned signature is verified against the device address.
func (s *HardwareSigner) Sign(env *txbuilder.Envelope, networkPassphrase string) (xdr.DecoratedSignature, error) {
	address, err := s.PublicKey()
	if err != nil {
		return xdr.DecoratedSignature{}, err
	}
	kp, err := keypair.ParseAddress(address)
	if err != nil {
		return xdr.DecoratedSignature{}, err
	}
	hash, err := env.Hash(networkPassphrase)
	if err != nil {
		return xdr.DecoratedSignature{}, fmt.Errorf("failed to hash transaction: %w", err)
	}

	s.logger.WithField("path", s.path).Warn("Confirm the transaction on your hardware device")
	sig, err := s.device.SignTransaction(env.Transaction(), s.path, networkPassphrase)
	if err != nil {
		return xdr.DecoratedSignature{}, fmt.Errorf("hardware device did not sign: %w", err)
	}
	if err := kp.Verify(hash[:], sig); err != nil {
		return xdr.DecoratedSignature{}, ErrInvalidDeviceSignature
	}

	return xdr.DecoratedSignature{
		Hint:      xdr.SignatureHint(kp.Hint()),
		Signature: xdr.Signature(sig),
	}, nil
}

// Protocol always returns ProtocolV0.
func (s *HardwareSigner) Protocol(txbuilder.ProtocolVersion) txbuilder.ProtocolVersion {
	return txbuilder.ProtocolV0
}
