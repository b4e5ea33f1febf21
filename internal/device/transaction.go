package device

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/stellar/go-stellar-sdk/txnbuild"
)

// Transaction is the parsed form of a transaction the device displays and signs.
type Transaction struct {
	SourceAccount  string      `json:"source_account"`
	Fee            int64       `json:"fee"`
	SequenceNumber int64       `json:"sequence_number"`
	TimeBounds     TimeBounds  `json:"timebounds"`
	Memo           Memo        `json:"memo"`
	Operations     []Operation `json:"operations"`
}

type TimeBounds struct {
	MinTime int64 `json:"min_time"`
	MaxTime int64 `json:"max_time"`
}

// Memo type is one of none, text, id, hash, return.
type Memo struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Operation type is payment or change_trust.
type Operation struct {
	Type          string `json:"type"`
	SourceAccount string `json:"source_account,omitempty"`
	Destination   string `json:"destination,omitempty"`
	Amount        string `json:"amount,omitempty"`
	Asset         Asset  `json:"asset"`
	Limit         string `json:"limit,omitempty"`
}

// Asset type is native or credit.
type Asset struct {
	Type   string `json:"type"`
	Code   string `json:"code,omitempty"`
	Issuer string `json:"issuer,omitempty"`
}

// FromTransaction converts a transaction into the device's parsed form.
// Only payment and change trust operations are supported by the device.
func FromTransaction(tx *txnbuild.Transaction) (Transaction, error) {
	tb := tx.Timebounds()
	out := Transaction{
		SourceAccount:  tx.SourceAccount().AccountID,
		Fee:            tx.MaxFee(),
		SequenceNumber: tx.SequenceNumber(),
		TimeBounds:     TimeBounds{MinTime: tb.MinTime, MaxTime: tb.MaxTime},
		Memo:           memoOf(tx.Memo()),
	}

	for i, op := range tx.Operations() {
		parsed, err := operationOf(op)
		if err != nil {
			return Transaction{}, fmt.Errorf("operation %d: %w", i+1, err)
		}
		out.Operations = append(out.Operations, parsed)
	}
	return out, nil
}

func operationOf(op txnbuild.Operation) (Operation, error) {
	switch o := op.(type) {
	case *txnbuild.Payment:
		return Operation{
			Type:          "payment",
			SourceAccount: o.SourceAccount,
			Destination:   o.Destination,
			Amount:        o.Amount,
			Asset:         assetOf(o.Asset),
		}, nil
	case *txnbuild.ChangeTrust:
		w, ok := o.Line.(txnbuild.ChangeTrustAssetWrapper)
		if !ok {
			return Operation{}, fmt.Errorf("unsupported trust line %T", o.Line)
		}
		return Operation{
			Type:          "change_trust",
			SourceAccount: o.SourceAccount,
			Asset:         assetOf(w.Asset),
			Limit:         o.Limit,
		}, nil
	default:
		return Operation{}, fmt.Errorf("operation %T is not supported by the hardware device", op)
	}
}

func assetOf(a txnbuild.Asset) Asset {
	if a == nil || a.IsNative() {
		return Asset{Type: "native"}
	}
	return Asset{Type: "credit", Code: a.GetCode(), Issuer: a.GetIssuer()}
}

func memoOf(m txnbuild.Memo) Memo {
	switch memo := m.(type) {
	case txnbuild.MemoText:
		return Memo{Type: "text", Value: string(memo)}
	case txnbuild.MemoID:
		return Memo{Type: "id", Value: strconv.FormatUint(uint64(memo), 10)}
	case txnbuild.MemoHash:
		return Memo{Type: "hash", Value: hex.EncodeToString(memo[:])}
	case txnbuild.MemoReturn:
		return Memo{Type: "return", Value: hex.EncodeToString(memo[:])}
	default:
		return Memo{Type: "none"}
	}
}
