// Package txbuilder assembles unsigned ledger transactions and owns their envelope encoding.
package txbuilder

import (
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/stellar-wallet/internal/model"

	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/txnbuild"
)

// DefaultBaseFee is the per-operation fee in stroops.
const DefaultBaseFee int64 = 5000

// Builder assembles transactions with a deployment-wide base fee.
type Builder struct {
	baseFee int64
	now     func() time.Time
}

// NewBuilder creates a Builder charging baseFee stroops per operation.
func NewBuilder(baseFee int64) *Builder {
	if baseFee <= 0 {
		baseFee = DefaultBaseFee
	}
	return &Builder{
		baseFee: baseFee,
		now:     time.Now,
	}
}

// WithClock replaces the clock used for time bounds.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build assembles an unsigned transaction. sequence is the source account's current
// sequence number as loaded from the network; the transaction uses sequence+1.
// The fee is baseFee × len(ops) and the transaction is valid from 0 until now+timeout.
// Operations keep the order they were given in.
func (b *Builder) Build(source string, sequence int64, ops []txnbuild.Operation, opts Options) (*Envelope, error) {
	if source == "" {
		return nil, model.MissingField("source account")
	}
	if !strkey.IsValidEd25519PublicKey(source) {
		return nil, fmt.Errorf("invalid source account %q", source)
	}
	if len(ops) == 0 {
		return nil, errors.New("transaction needs at least one operation")
	}
	if opts.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("%w: got %d", model.ErrInvalidTimeout, opts.TimeoutSeconds)
	}

	maxTime := b.now().Unix() + opts.TimeoutSeconds

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: source, Sequence: sequence},
		IncrementSequenceNum: true,
		Operations:           ops,
		BaseFee:              b.baseFee,
		Memo:                 opts.Memo,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimebounds(0, maxTime),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	return &Envelope{tx: tx, protocol: opts.Protocol}, nil
}
