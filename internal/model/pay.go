package model

// Identity selects which key signs: the wallet file or the hardware device.
type Identity struct {
	WalletPath string
	Hardware   bool
}

// TxFlags carries the raw per-transaction CLI values before validation.
// Nil pointers mean the flag was not given.
type TxFlags struct {
	TimeoutSeconds *int64
	MemoText       *string
	MemoID         *string
	MemoHash       *string
	VZero          bool
	JustSign       bool
}

// TrustRequest represents add_trust input
type TrustRequest struct {
	Identity
	TxFlags
	Asset  string
	Issuer string
}

// PaymentRequest represents send_payment input
type PaymentRequest struct {
	Identity
	TxFlags
	Asset       string
	Issuer      string
	Amount      string
	Destination string
	Source      string
}

// SignRequest represents sign_transaction input
type SignRequest struct {
	Identity
	XDR      string
	VZero    bool
	JustSign bool
}
