// Package keyvault owns secret-key persistence: wallet generation, the wallet file and the
// password protection of the secret seed.
//
// The wallet file is not locked. Concurrent invocations against the same wallet file are
// not coordinated; only creation is exclusive.
package keyvault

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/stellar-wallet/internal/crypto"
	"github.com/AlexZinkM/stellar-wallet/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go/exp/crypto/derivation"
	"github.com/tyler-smith/go-bip39"
)

// mnemonicEntropyBits is the BIP39 strength used for new mnemonic wallets (24 words).
const mnemonicEntropyBits = 256

// PasswordSource supplies wallet passwords, usually from an interactive prompt.
// Returned slices are zeroed by the vault after use.
type PasswordSource interface {
	// NewPassword asks for the password of a wallet being created.
	// An empty slice means the wallet is stored unencrypted.
	NewPassword() ([]byte, error)
	// Password asks for the password of an existing encrypted wallet.
	Password() ([]byte, error)
}

// CreateOptions controls wallet generation.
type CreateOptions struct {
	// UseMnemonic derives the key from a freshly generated BIP39 phrase (SEP-5 path m/44'/148'/0').
	UseMnemonic bool
	// NoPassword skips the password prompt and stores the secret in clear text.
	NoPassword bool
}

// Vault creates and loads wallet files.
type Vault struct {
	passwords PasswordSource
	logger    *logrus.Logger
}

// New creates a Vault. passwords may be nil, in which case new wallets are unencrypted and
// encrypted wallets cannot be loaded.
func New(passwords PasswordSource, logger *logrus.Logger) *Vault {
	return &Vault{
		passwords: passwords,
		logger:    logger,
	}
}

// Create generates a new keypair and writes it to filePath.
// It fails with model.ErrWalletAlreadyExists if filePath exists; the existing file is left untouched.
func (v *Vault) Create(filePath string, opts CreateOptions) (*Wallet, error) {
	if err := checkAbsent(filePath); err != nil {
		return nil, err
	}

	kp, mnemonic, err := generate(opts.UseMnemonic)
	if err != nil {
		return nil, err
	}

	var password []byte
	if !opts.NoPassword && v.passwords != nil {
		password, err = v.passwords.NewPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
	}
	defer clear(password) // Always clear password from memory

	wallet := &Wallet{
		PublicKey: kp.Address(),
		Mnemonic:  mnemonic,
		secret:    []byte(kp.Seed()),
	}
	if err := v.write(filePath, wallet, password); err != nil {
		return nil, err
	}

	v.logger.WithFields(logrus.Fields{
		"public_key": wallet.PublicKey,
		"encrypted":  wallet.Encrypted,
		"mnemonic":   opts.UseMnemonic,
	}).Info("wallet created")

	return wallet, nil
}

// Load reads the wallet at filePath, prompting for its password when it is encrypted.
func (v *Vault) Load(filePath string) (*Wallet, error) {
	file, err := crypto.ReadWalletFile(filePath)
	if err != nil {
		return nil, err
	}

	var secret []byte
	encrypted := crypto.IsEncrypted(file.PrivateKey)
	if encrypted {
		secret, err = v.decrypt(file.PrivateKey)
		if err != nil {
			return nil, err
		}
	} else {
		secret = []byte(file.PrivateKey)
	}

	kp, err := keypair.ParseFull(string(secret))
	if err != nil {
		clear(secret)
		return nil, fmt.Errorf("%w: private key is not a valid secret seed", model.ErrWalletCorrupt)
	}
	if kp.Address() != file.PublicKey {
		clear(secret)
		return nil, fmt.Errorf("%w: private key does not match public key", model.ErrWalletCorrupt)
	}

	return &Wallet{
		PublicKey: file.PublicKey,
		Encrypted: encrypted,
		secret:    secret,
	}, nil
}

// Rewrap loads the wallet at srcPath and writes the same key to a new file at dstPath,
// protected by a freshly prompted password. srcPath is never modified.
func (v *Vault) Rewrap(srcPath, dstPath string) (*Wallet, error) {
	if err := checkAbsent(dstPath); err != nil {
		return nil, err
	}

	wallet, err := v.Load(srcPath)
	if err != nil {
		return nil, err
	}
	defer wallet.Clear()

	var password []byte
	if v.passwords != nil {
		password, err = v.passwords.NewPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
	}
	defer clear(password)

	out := &Wallet{PublicKey: wallet.PublicKey, secret: bytes.Clone(wallet.secret)}
	if err := v.write(dstPath, out, password); err != nil {
		return nil, err
	}
	return out, nil
}

func (v *Vault) decrypt(stored string) ([]byte, error) {
	if v.passwords == nil {
		return nil, fmt.Errorf("%w: wallet is encrypted and no password source is available", model.ErrDecryptionFailed)
	}

	password, err := v.passwords.Password()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDecryptionFailed, err)
	}
	defer clear(password)

	if len(password) == 0 {
		return nil, fmt.Errorf("%w: password required", model.ErrDecryptionFailed)
	}

	return crypto.DecryptSecret(stored, password)
}

// write persists wallet, encrypting the secret when password is non-blank.
func (v *Vault) write(filePath string, wallet *Wallet, password []byte) error {
	stored := string(wallet.secret)
	if len(bytes.TrimSpace(password)) > 0 {
		encrypted, err := crypto.EncryptSecret(wallet.secret, password)
		if err != nil {
			return fmt.Errorf("failed to encrypt wallet: %w", err)
		}
		stored = encrypted
		wallet.Encrypted = true
	} else {
		v.logger.Warn("no password supplied: the secret key is stored UNENCRYPTED in the wallet file")
	}

	return crypto.WriteWalletFile(filePath, &model.WalletFile{
		PublicKey:  wallet.PublicKey,
		PrivateKey: stored,
	})
}

// checkAbsent fails early, before any prompt, when filePath already exists.
// WriteWalletFile repeats the check atomically.
func checkAbsent(filePath string) error {
	_, err := os.Lstat(filePath)
	if err == nil {
		return fmt.Errorf("%w: %s", model.ErrWalletAlreadyExists, filePath)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check wallet file: %w", err)
	}
	return nil
}

func generate(useMnemonic bool) (*keypair.Full, string, error) {
	if !useMnemonic {
		kp, err := keypair.Random()
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate keypair: %w", err)
		}
		return kp, model.MnemonicNotUsed, nil
	}

	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	defer clear(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}

	kp, err := FromMnemonic(mnemonic, "")
	if err != nil {
		return nil, "", err
	}
	return kp, mnemonic, nil
}

// FromMnemonic derives the primary account keypair (m/44'/148'/0') of a BIP39 phrase.
func FromMnemonic(mnemonic, passphrase string) (*keypair.Full, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	defer clear(seed)

	key, err := derivation.DeriveForPath(derivation.StellarPrimaryAccountPath, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	kp, err := keypair.FromRawSeed(key.RawSeed())
	if err != nil {
		return nil, fmt.Errorf("failed to build keypair: %w", err)
	}
	return kp, nil
}
