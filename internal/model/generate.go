package model

// MnemonicNotUsed is reported when the wallet was generated from random entropy.
const MnemonicNotUsed = "NOT_USED"

// GenerateResponse represents output of create_wallet.
// QRCode is the terminal rendering of the address and is printed outside the JSON.
type GenerateResponse struct {
	PublicKey string `json:"public_key"`
	Mnemonic  string `json:"mnemonic"`
	Encrypted bool   `json:"encrypted"`
	Message   string `json:"message"`
	QRCodeURL string `json:"qr_code_url,omitempty"`
	QRCode    string `json:"-"`
}

// PublicKeyResponse represents output of get_public_key
type PublicKeyResponse struct {
	PublicKey string `json:"public_key"`
	QRCodeURL string `json:"qr_code_url,omitempty"`
	QRCode    string `json:"-"`
}
