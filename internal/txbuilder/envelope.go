package txbuilder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stellar/go-stellar-sdk/txnbuild"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// Envelope is a transaction together with its signatures and the envelope version it is
// encoded with. Signatures are only ever appended.
//
// V0 and V1 envelopes share the same signature payload, so the protocol version only
// affects encoding and may be changed after signing.
type Envelope struct {
	tx       *txnbuild.Transaction
	protocol ProtocolVersion
}

// Parse decodes a base64 XDR transaction envelope, possibly carrying signatures already.
// Fee bump envelopes are rejected.
func Parse(envelopeXDR string) (*Envelope, error) {
	generic, err := txnbuild.TransactionFromXDR(strings.TrimSpace(envelopeXDR))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction envelope: %w", err)
	}
	tx, ok := generic.Transaction()
	if !ok {
		return nil, errors.New("fee bump transactions are not supported")
	}

	protocol := ProtocolV1
	if tx.ToXDR().Type == xdr.EnvelopeTypeEnvelopeTypeTxV0 {
		protocol = ProtocolV0
	}
	return &Envelope{tx: tx, protocol: protocol}, nil
}

// Transaction returns the underlying transaction.
func (e *Envelope) Transaction() *txnbuild.Transaction {
	return e.tx
}

// Protocol returns the envelope version used for encoding.
func (e *Envelope) Protocol() ProtocolVersion {
	return e.protocol
}

// SetProtocol changes the envelope version used for encoding.
func (e *Envelope) SetProtocol(v ProtocolVersion) {
	e.protocol = v
}

// Hash returns the network-specific signature payload hash.
func (e *Envelope) Hash(networkPassphrase string) ([32]byte, error) {
	return e.tx.Hash(networkPassphrase)
}

// Signatures returns the signatures attached so far, in order.
func (e *Envelope) Signatures() []xdr.DecoratedSignature {
	return e.tx.Signatures()
}

// AddSignature appends sig after any existing signatures.
func (e *Envelope) AddSignature(sig xdr.DecoratedSignature) error {
	tx, err := e.tx.AddSignatureDecorated(sig)
	if err != nil {
		return fmt.Errorf("failed to add signature: %w", err)
	}
	e.tx = tx
	return nil
}

// XDR returns the envelope in the selected protocol version, signatures included.
func (e *Envelope) XDR() (xdr.TransactionEnvelope, error) {
	env := e.tx.ToXDR()
	sigs := e.tx.Signatures()
	if e.protocol == ProtocolV0 {
		return toV0(env, sigs)
	}
	return toV1(env, sigs)
}

// Base64 returns the stable textual encoding exchanged with other tools.
func (e *Envelope) Base64() (string, error) {
	env, err := e.XDR()
	if err != nil {
		return "", err
	}
	out, err := xdr.MarshalBase64(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode envelope: %w", err)
	}
	return out, nil
}

// toV0 re-encodes a transaction as a legacy V0 envelope.
// The result never aliases env.
func toV0(env xdr.TransactionEnvelope, sigs []xdr.DecoratedSignature) (xdr.TransactionEnvelope, error) {
	switch env.Type {
	case xdr.EnvelopeTypeEnvelopeTypeTxV0:
		v0 := *env.V0
		v0.Signatures = sigs
		return xdr.TransactionEnvelope{Type: env.Type, V0: &v0}, nil
	case xdr.EnvelopeTypeEnvelopeTypeTx:
	default:
		return xdr.TransactionEnvelope{}, fmt.Errorf("unsupported envelope type %v", env.Type)
	}

	tx := env.V1.Tx
	source, ok := tx.SourceAccount.GetEd25519()
	if !ok {
		return xdr.TransactionEnvelope{}, errors.New("muxed source accounts cannot be encoded in a v0 envelope")
	}
	if tx.Cond.Type == xdr.PreconditionTypePrecondV2 {
		return xdr.TransactionEnvelope{}, errors.New("extended preconditions cannot be encoded in a v0 envelope")
	}

	return xdr.TransactionEnvelope{
		Type: xdr.EnvelopeTypeEnvelopeTypeTxV0,
		V0: &xdr.TransactionV0Envelope{
			Tx: xdr.TransactionV0{
				SourceAccountEd25519: source,
				Fee:                  tx.Fee,
				SeqNum:               tx.SeqNum,
				TimeBounds:           tx.Cond.TimeBounds,
				Memo:                 tx.Memo,
				Operations:           tx.Operations,
			},
			Signatures: sigs,
		},
	}, nil
}

// toV1 re-encodes a transaction as a V1 envelope.
// The result never aliases env.
func toV1(env xdr.TransactionEnvelope, sigs []xdr.DecoratedSignature) (xdr.TransactionEnvelope, error) {
	switch env.Type {
	case xdr.EnvelopeTypeEnvelopeTypeTx:
		v1 := *env.V1
		v1.Signatures = sigs
		return xdr.TransactionEnvelope{Type: env.Type, V1: &v1}, nil
	case xdr.EnvelopeTypeEnvelopeTypeTxV0:
	default:
		return xdr.TransactionEnvelope{}, fmt.Errorf("unsupported envelope type %v", env.Type)
	}

	tx := env.V0.Tx
	source := tx.SourceAccountEd25519
	cond := xdr.Preconditions{Type: xdr.PreconditionTypePrecondNone}
	if tx.TimeBounds != nil {
		cond = xdr.Preconditions{Type: xdr.PreconditionTypePrecondTime, TimeBounds: tx.TimeBounds}
	}

	return xdr.TransactionEnvelope{
		Type: xdr.EnvelopeTypeEnvelopeTypeTx,
		V1: &xdr.TransactionV1Envelope{
			Tx: xdr.Transaction{
				SourceAccount: xdr.MuxedAccount{
					Type:    xdr.CryptoKeyTypeKeyTypeEd25519,
					Ed25519: &source,
				},
				Fee:        tx.Fee,
				SeqNum:     tx.SeqNum,
				Cond:       cond,
				Memo:       tx.Memo,
				Operations: tx.Operations,
			},
			Signatures: sigs,
		},
	}, nil
}
