package txbuilder

import (
	"fmt"
	"strings"
	"time"

	"github.com/AlexZinkM/stellar-wallet/internal/common"
	"github.com/AlexZinkM/stellar-wallet/internal/model"

	"github.com/stellar/go-stellar-sdk/txnbuild"
)

// Describe renders every field an operator needs to judge a transaction, with all
// operations in order.
func Describe(e *Envelope) string {
	tx := e.tx
	var b strings.Builder

	source := tx.SourceAccount()
	fmt.Fprintf(&b, "Source account: %s\n", source.AccountID)
	fmt.Fprintf(&b, "Sequence number: %d\n", tx.SequenceNumber())
	fmt.Fprintf(&b, "Fee: %s %s (%d stroops)\n", common.StroopsToAmount(tx.MaxFee()), model.NativeAssetCode, tx.MaxFee())
	fmt.Fprintf(&b, "Valid: %s\n", describeTimeBounds(tx.Timebounds()))
	fmt.Fprintf(&b, "Memo: %s\n", describeMemo(tx.Memo()))
	fmt.Fprintf(&b, "Envelope: %s, %d signature(s) attached\n", e.protocol, len(tx.Signatures()))

	ops := tx.Operations()
	fmt.Fprintf(&b, "\nThe following %d operation(s) are included in this transaction:\n", len(ops))
	for i, op := range ops {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, DescribeOperation(op))
	}
	return b.String()
}

// DescribeOperation renders a single operation on one line.
func DescribeOperation(op txnbuild.Operation) string {
	var text string
	switch o := op.(type) {
	case *txnbuild.Payment:
		text = fmt.Sprintf("payment of %s %s to %s", o.Amount, describeAsset(o.Asset), o.Destination)
	case *txnbuild.ChangeTrust:
		line := fmt.Sprintf("%+v", o.Line)
		if w, ok := o.Line.(txnbuild.ChangeTrustAssetWrapper); ok {
			line = describeAsset(w.Asset)
		}
		text = fmt.Sprintf("change trust for %s with limit %s", line, o.Limit)
	default:
		text = fmt.Sprintf("%s %+v", strings.TrimPrefix(fmt.Sprintf("%T", op), "*txnbuild."), op)
	}

	if source := op.GetSourceAccount(); source != "" {
		text += fmt.Sprintf(" (source %s)", source)
	}
	return text
}

func describeAsset(a txnbuild.Asset) string {
	if a == nil || a.IsNative() {
		return model.NativeAssetCode
	}
	return fmt.Sprintf("%s issued by %s", a.GetCode(), a.GetIssuer())
}

func describeMemo(m txnbuild.Memo) string {
	switch memo := m.(type) {
	case nil:
		return "none"
	case txnbuild.MemoText:
		return fmt.Sprintf("text %q", string(memo))
	case txnbuild.MemoID:
		return fmt.Sprintf("id %d", uint64(memo))
	case txnbuild.MemoHash:
		return fmt.Sprintf("hash %x", [32]byte(memo))
	case txnbuild.MemoReturn:
		return fmt.Sprintf("return %x", [32]byte(memo))
	default:
		return fmt.Sprintf("%v", m)
	}
}

func describeTimeBounds(tb txnbuild.TimeBounds) string {
	from := "any time"
	if tb.MinTime > 0 {
		from = time.Unix(tb.MinTime, 0).UTC().Format(time.RFC3339)
	}
	until := "no expiry"
	if tb.MaxTime > 0 {
		until = time.Unix(tb.MaxTime, 0).UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("from %s until %s", from, until)
}
