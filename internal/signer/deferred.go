package signer

import (
	"github.com/AlexZinkM/stellar-wallet/internal/txbuilder"

	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// KeyLoader loads a secret key, prompting for a password if needed.
type KeyLoader func() (*keypair.Full, error)

// DeferredSigner is a LocalSigner whose key is loaded on first use, so that commands
// confirming an imported transaction only ask for the wallet password once the operator
// has agreed to sign.
type DeferredSigner struct {
	load  KeyLoader
	local *LocalSigner
}

// NewDeferred creates a DeferredSigner.
func NewDeferred(load KeyLoader) *DeferredSigner {
	return &DeferredSigner{load: load}
}

// Loaded reports whether the key has been loaded.
func (s *DeferredSigner) Loaded() bool {
	return s.local != nil
}

func (s *DeferredSigner) signer() (*LocalSigner, error) {
	if s.local == nil {
		kp, err := s.load()
		if err != nil {
			return nil, err
		}
		s.local = NewLocal(kp)
	}
	return s.local, nil
}

func (s *DeferredSigner) PublicKey() (string, error) {
	local, err := s.signer()
	if err != nil {
		return "", err
	}
	return local.PublicKey()
}

func (s *DeferredSigner) Sign(env *txbuilder.Envelope, networkPassphrase string) (xdr.DecoratedSignature, error) {
	local, err := s.signer()
	if err != nil {
		return xdr.DecoratedSignature{}, err
	}
	return local.Sign(env, networkPassphrase)
}

func (s *DeferredSigner) Protocol(requested txbuilder.ProtocolVersion) txbuilder.ProtocolVersion {
	return requested
}
