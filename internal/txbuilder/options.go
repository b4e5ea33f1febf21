package txbuilder

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlexZinkM/stellar-wallet/internal/model"

	"github.com/stellar/go-stellar-sdk/txnbuild"
)

const (
	// DefaultTimeoutSeconds bounds a transaction's validity when no timeout is given.
	DefaultTimeoutSeconds int64 = 3600

	maxMemoTextBytes = 28
)

// ProtocolVersion selects the envelope encoding of a transaction.
type ProtocolVersion int

const (
	// ProtocolV1 is the current envelope format and the default.
	ProtocolV1 ProtocolVersion = iota
	// ProtocolV0 is the legacy envelope format still required by some hardware firmware.
	ProtocolV0
)

func (v ProtocolVersion) String() string {
	if v == ProtocolV0 {
		return "v0"
	}
	return "v1"
}

// Options is the validated per-transaction configuration built once from command input.
type Options struct {
	TimeoutSeconds int64
	Memo           txnbuild.Memo
	Protocol       ProtocolVersion
}

// NewOptions validates raw flag values. It rejects a non-positive timeout and more than one memo.
func NewOptions(flags model.TxFlags) (Options, error) {
	opts := Options{
		TimeoutSeconds: DefaultTimeoutSeconds,
		Protocol:       ProtocolV1,
	}
	if flags.VZero {
		opts.Protocol = ProtocolV0
	}

	if flags.TimeoutSeconds != nil {
		if *flags.TimeoutSeconds <= 0 {
			return Options{}, fmt.Errorf("%w: got %d", model.ErrInvalidTimeout, *flags.TimeoutSeconds)
		}
		opts.TimeoutSeconds = *flags.TimeoutSeconds
	}

	memo, err := parseMemo(flags)
	if err != nil {
		return Options{}, err
	}
	opts.Memo = memo

	return opts, nil
}

func parseMemo(flags model.TxFlags) (txnbuild.Memo, error) {
	requested := 0
	for _, m := range []*string{flags.MemoText, flags.MemoID, flags.MemoHash} {
		if m != nil {
			requested++
		}
	}
	if requested > 1 {
		return nil, model.ErrMultipleMemos
	}

	switch {
	case flags.MemoText != nil:
		if len(*flags.MemoText) > maxMemoTextBytes {
			return nil, fmt.Errorf("%w: text memo is %d bytes, at most %d allowed", model.ErrInvalidMemo, len(*flags.MemoText), maxMemoTextBytes)
		}
		return txnbuild.MemoText(*flags.MemoText), nil
	case flags.MemoID != nil:
		id, err := strconv.ParseUint(strings.TrimSpace(*flags.MemoID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: id memo must be an unsigned 64-bit integer", model.ErrInvalidMemo)
		}
		return txnbuild.MemoID(id), nil
	case flags.MemoHash != nil:
		raw, err := hex.DecodeString(strings.TrimSpace(*flags.MemoHash))
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("%w: hash memo must be 32 bytes hex encoded", model.ErrInvalidMemo)
		}
		var hash txnbuild.MemoHash
		copy(hash[:], raw)
		return hash, nil
	}
	return nil, nil
}
