package model

import "time"

// Transaction represents one entry of an account's transaction history
type Transaction struct {
	Hash           string    `json:"hash"`
	Ledger         int64     `json:"ledger"`
	CreatedAt      time.Time `json:"created_at"`
	SourceAccount  string    `json:"source_account"`
	FeeCharged     int64     `json:"fee_charged"`
	OperationCount int64     `json:"operation_count"`
	MemoType       string    `json:"memo_type"`
	Memo           string    `json:"memo,omitempty"`
	Successful     bool      `json:"successful"`
}

// SubmissionResult is the gateway's answer for an accepted transaction.
// Rejections surface as *RemoteRejectedError instead.
type SubmissionResult struct {
	Hash          string `json:"hash"`
	Ledger        int64  `json:"ledger"`
	Successful    bool   `json:"successful"`
	EnvelopeXDR   string `json:"envelope_xdr"`
	ResultXDR     string `json:"result_xdr"`
	ResultMetaXDR string `json:"result_meta_xdr,omitempty"`
}
