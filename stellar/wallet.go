package stellar

import (
	"fmt"
	"net/url"

	"github.com/AlexZinkM/stellar-wallet/internal/keyvault"
	"github.com/AlexZinkM/stellar-wallet/internal/model"

	"github.com/skip2/go-qrcode"
)

const qrServiceURL = "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data="

// CreateWallet generates a new keypair and saves it to filePath.
// It never overwrites an existing file.
func (s *Service) CreateWallet(filePath string, opts keyvault.CreateOptions, withQR bool) (*model.GenerateResponse, error) {
	wallet, err := s.vault.Create(filePath, opts)
	if err != nil {
		return nil, err
	}
	defer wallet.Clear()

	resp := &model.GenerateResponse{
		PublicKey: wallet.PublicKey,
		Mnemonic:  wallet.Mnemonic,
		Encrypted: wallet.Encrypted,
		Message: fmt.Sprintf("A new keypair was generated for you and saved in %s. Initialize it by sending at least 1 %s to %s",
			filePath, model.NativeAssetCode, wallet.PublicKey),
	}
	if withQR {
		resp.QRCodeURL = qrCodeURL(wallet.PublicKey)
		if resp.QRCode, err = qrCodeText(wallet.PublicKey); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// PublicKey returns the address of the wallet or the hardware device.
func (s *Service) PublicKey(id model.Identity, withQR bool) (*model.PublicKeyResponse, error) {
	address, err := s.address(id)
	if err != nil {
		return nil, err
	}

	resp := &model.PublicKeyResponse{PublicKey: address}
	if withQR {
		resp.QRCodeURL = qrCodeURL(address)
		if resp.QRCode, err = qrCodeText(address); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func qrCodeURL(address string) string {
	return qrServiceURL + url.QueryEscape(address)
}

// qrCodeText renders address as a QR code for the terminal
func qrCodeText(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}
	return qr.ToSmallString(false), nil
}
