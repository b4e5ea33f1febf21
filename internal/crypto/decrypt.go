package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlexZinkM/stellar-wallet/internal/model"
)

// IsEncrypted reports whether a stored private key field holds ciphertext.
func IsEncrypted(stored string) bool {
	return strings.Contains(stored, separator)
}

// DecryptSecret reverses EncryptSecret.
// A wrong password or a modified ciphertext fails GCM authentication and returns model.ErrDecryptionFailed.
// The caller owns the returned plaintext and should zero it after use.
func DecryptSecret(stored string, password []byte) ([]byte, error) {
	saltB64, sealedB64, ok := strings.Cut(stored, separator)
	if !ok {
		return nil, fmt.Errorf("%w: private key is not encrypted", model.ErrWalletCorrupt)
	}

	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil || len(salt) != saltLen {
		return nil, fmt.Errorf("%w: failed to decode salt", model.ErrWalletCorrupt)
	}

	sealed, err := base64.StdEncoding.DecodeString(sealedB64)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode ciphertext", model.ErrWalletCorrupt)
	}
	if len(sealed) <= nonceLen {
		return nil, fmt.Errorf("%w: ciphertext too short", model.ErrWalletCorrupt)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, sealed[:nonceLen], sealed[nonceLen:], nil)
	if err != nil {
		return nil, model.ErrDecryptionFailed
	}
	return plaintext, nil
}

// ReadWalletFile reads and parses the wallet document without decrypting it.
func ReadWalletFile(filePath string) (*model.WalletFile, error) {
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrWalletNotFound, filePath)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Skip UTF-8 BOM if present
	if len(fileData) >= 3 && fileData[0] == 0xEF && fileData[1] == 0xBB && fileData[2] == 0xBF {
		fileData = fileData[3:]
	}

	var wallet model.WalletFile
	if err := json.Unmarshal(fileData, &wallet); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrWalletCorrupt, err)
	}
	if wallet.PublicKey == "" || wallet.PrivateKey == "" {
		return nil, fmt.Errorf("%w: public_key and private_key are required", model.ErrWalletCorrupt)
	}

	return &wallet, nil
}

// ReadWalletAddress reads only the public key from the wallet file (without decryption)
func ReadWalletAddress(filePath string) (string, error) {
	wallet, err := ReadWalletFile(filePath)
	if err != nil {
		return "", err
	}
	return wallet.PublicKey, nil
}
