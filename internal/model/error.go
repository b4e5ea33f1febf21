package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorResponse is the consistent JSON structure for all command error output.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var (
	ErrWalletAlreadyExists     = errors.New("wallet file already exists, will not overwrite it")
	ErrWalletNotFound          = errors.New("wallet file does not exist")
	ErrWalletCorrupt           = errors.New("wallet file is corrupt")
	ErrDecryptionFailed        = errors.New("failed to decrypt wallet: wrong or missing password")
	ErrAssetUnresolvable       = errors.New("could not identify asset on this domain")
	ErrDestinationUnresolvable = errors.New("could not resolve destination address")
	ErrMissingRequiredField    = errors.New("missing required field")
	ErrInvalidTimeout          = errors.New("timeout must be a positive number of seconds")
	ErrMultipleMemos           = errors.New("only one memo can be attached to a transaction")
	ErrInvalidMemo             = errors.New("invalid memo")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrRemoteRejected          = errors.New("transaction rejected by the network")
	ErrUnreachable             = errors.New("network gateway unreachable")
	ErrUserCancelled           = errors.New("cancelled by user")
	ErrTransactionExpired      = errors.New("transaction time bounds have expired")
	ErrNoTrustLine             = errors.New("account has no trust line for asset")
	ErrAccountNotFound         = errors.New("account does not exist on the network")
)

// MissingFieldError names the command field that was not supplied.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing %s", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

// MissingField returns a MissingFieldError for field.
func MissingField(field string) error {
	return &MissingFieldError{Field: field}
}

// RemoteRejectedError carries the detail the ledger gateway returned for a rejected request.
type RemoteRejectedError struct {
	Status         int
	Code           string
	OperationCodes []string
	Message        string
}

func (e *RemoteRejectedError) Error() string {
	var b strings.Builder
	b.WriteString("remote rejected")
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, ": %s", e.Code)
	}
	if len(e.OperationCodes) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.OperationCodes, ", "))
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

func (e *RemoteRejectedError) Is(target error) bool {
	return target == ErrRemoteRejected
}

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrWalletAlreadyExists, "wallet_already_exists"},
	{ErrWalletNotFound, "wallet_not_found"},
	{ErrWalletCorrupt, "wallet_corrupt"},
	{ErrDecryptionFailed, "decryption_failed"},
	{ErrAssetUnresolvable, "asset_unresolvable"},
	{ErrDestinationUnresolvable, "destination_unresolvable"},
	{ErrMissingRequiredField, "missing_required_field"},
	{ErrInvalidTimeout, "invalid_timeout"},
	{ErrMultipleMemos, "multiple_memos_requested"},
	{ErrInvalidMemo, "invalid_memo"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrTransactionExpired, "transaction_expired"},
	{ErrNoTrustLine, "no_trust_line"},
	{ErrAccountNotFound, "account_not_found"},
	{ErrRemoteRejected, "remote_rejected"},
	{ErrUnreachable, "unreachable"},
	{ErrUserCancelled, "user_cancelled"},
}

// ErrorCode maps err to the stable code printed alongside the message.
// Errors outside the taxonomy map to "internal".
func ErrorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}

// NewErrorResponse builds the JSON error body for err.
func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		Error: err.Error(),
		Code:  ErrorCode(err),
	}
}
