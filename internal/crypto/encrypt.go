package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlexZinkM/stellar-wallet/internal/model"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2-HMAC-SHA256 parameters for the wallet secret.
	// 310,000 iterations follows the OWASP recommendation for SHA-256 and stays
	// well under a second on commodity hardware for a one-shot CLI invocation.
	pbkdf2Iterations = 310_000
	keyLen           = 32
	saltLen          = 16
	nonceLen         = 12

	// separator splits the encoded salt from the encoded ciphertext.
	// A stored secret without it is a clear-text seed.
	separator = "$"
)

// EncryptSecret encrypts a secret seed with a key derived from password.
// Result format: base64(salt) + "$" + base64(nonce || AES-256-GCM ciphertext).
// password must be []byte for security (caller should zero it after use)
func EncryptSecret(secret, password []byte) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return "", err
	}

	sealed := aesGCM.Seal(nonce, nonce, secret, nil)

	return base64.StdEncoding.EncodeToString(salt) + separator + base64.StdEncoding.EncodeToString(sealed), nil
}

// newGCM derives the wallet key from password and salt and returns the AEAD for it.
func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(password, salt, pbkdf2Iterations, keyLen, sha256.New)
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

// WriteWalletFile writes the wallet document to filePath.
// The file is created exclusively: an existing path is never overwritten.
func WriteWalletFile(filePath string, wallet *model.WalletFile) error {
	fileData, err := json.MarshalIndent(wallet, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal wallet file: %w", err)
	}

	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", model.ErrWalletAlreadyExists, filePath)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := f.Write(fileData); err != nil {
		f.Close()
		os.Remove(filePath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(filePath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
