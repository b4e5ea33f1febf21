package keyvault

import (
	"github.com/stellar/go-stellar-sdk/keypair"
)

// Wallet is a loaded or freshly created wallet. The secret lives only in process memory.
type Wallet struct {
	PublicKey string
	Encrypted bool
	// Mnemonic is only populated by Create.
	Mnemonic string

	secret []byte
}

// Keypair parses the secret into a signing keypair.
func (w *Wallet) Keypair() (*keypair.Full, error) {
	return keypair.ParseFull(string(w.secret))
}

// Clear zeroes the secret seed held by w.
func (w *Wallet) Clear() {
	clear(w.secret)
	w.secret = nil
	w.Mnemonic = ""
}
