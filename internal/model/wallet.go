package model

// WalletFile represents the on-disk wallet document.
// PrivateKey is either a clear secret seed or "<b64 salt>$<b64 ciphertext>".
type WalletFile struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}
