// Package signer unifies local-key and hardware-device signing behind one capability.
package signer

import (
	"errors"
	"fmt"

	"github.com/AlexZinkM/stellar-wallet/internal/txbuilder"

	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// ErrHintMismatch is returned when a signature hint does not belong to the signing key.
var ErrHintMismatch = errors.New("signature hint does not match signer public key")

// Signer produces decorated signatures over a transaction's network-specific payload.
// A command selects one Signer per invocation.
type Signer interface {
	// PublicKey returns the address whose key produces the signatures.
	PublicKey() (string, error)
	// Sign signs the transaction hash for the given network. It does not modify env.
	Sign(env *txbuilder.Envelope, networkPassphrase string) (xdr.DecoratedSignature, error)
	// Protocol returns the envelope version to encode with when requested was asked for.
	Protocol(requested txbuilder.ProtocolVersion) txbuilder.ProtocolVersion
}

// CheckHint verifies that sig carries the hint of address.
func CheckHint(sig xdr.DecoratedSignature, address string) error {
	kp, err := keypair.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("invalid signer address: %w", err)
	}
	if kp.Hint() != [4]byte(sig.Hint) {
		return fmt.Errorf("%w: %s", ErrHintMismatch, address)
	}
	return nil
}

// LocalSigner signs with a secret key held in process memory.
type LocalSigner struct {
	kp *keypair.Full
}

// NewLocal wraps a keypair loaded from the key vault.
func NewLocal(kp *keypair.Full) *LocalSigner {
	return &LocalSigner{kp: kp}
}

func (s *LocalSigner) PublicKey() (string, error) {
	return s.kp.Address(), nil
}

func (s *LocalSigner) Sign(env *txbuilder.Envelope, networkPassphrase string) (xdr.DecoratedSignature, error) {
	hash, err := env.Hash(networkPassphrase)
	if err != nil {
		return xdr.DecoratedSignature{}, fmt.Errorf("failed to hash transaction: %w", err)
	}
	sig, err := s.kp.SignDecorated(hash[:])
	if err != nil {
		return xdr.DecoratedSignature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return sig, nil
}

// Protocol honours the requested version; local keys can sign either envelope.
func (s *LocalSigner) Protocol(requested txbuilder.ProtocolVersion) txbuilder.ProtocolVersion {
	return requested
}
