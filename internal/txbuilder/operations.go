package txbuilder

import (
	"fmt"

	"github.com/AlexZinkM/stellar-wallet/internal/common"
	"github.com/AlexZinkM/stellar-wallet/internal/model"

	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/txnbuild"
)

// Payment builds a payment operation. amount is a positive decimal string with at most 7
// fractional digits; it is never converted through a float.
func Payment(destination, amount string, asset model.Asset) (txnbuild.Operation, error) {
	if destination == "" {
		return nil, model.MissingField("destination")
	}
	if !strkey.IsValidEd25519PublicKey(destination) {
		return nil, fmt.Errorf("invalid destination address %q", destination)
	}
	if amount == "" {
		return nil, model.MissingField("amount")
	}
	normalized, err := common.NormalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	line, err := ledgerAsset(asset)
	if err != nil {
		return nil, err
	}

	return &txnbuild.Payment{
		Destination: destination,
		Amount:      normalized,
		Asset:       line,
	}, nil
}

// ChangeTrust builds an operation establishing a trust line to a non-native asset with the
// maximum limit.
func ChangeTrust(asset model.Asset) (txnbuild.Operation, error) {
	if asset.Code == "" {
		return nil, model.MissingField("asset")
	}
	if asset.IsNative() {
		return nil, model.MissingField("issuer")
	}
	line, err := ledgerAsset(asset)
	if err != nil {
		return nil, err
	}

	return &txnbuild.ChangeTrust{
		Line:  txnbuild.ChangeTrustAssetWrapper{Asset: line},
		Limit: txnbuild.MaxTrustlineLimit,
	}, nil
}

func ledgerAsset(asset model.Asset) (txnbuild.Asset, error) {
	if asset.IsNative() {
		return txnbuild.NativeAsset{}, nil
	}
	if len(asset.Code) == 0 || len(asset.Code) > 12 {
		return nil, fmt.Errorf("invalid asset code %q: must be 1-12 characters", asset.Code)
	}
	if !strkey.IsValidEd25519PublicKey(asset.Issuer) {
		return nil, fmt.Errorf("invalid issuer address %q", asset.Issuer)
	}
	return txnbuild.CreditAsset{Code: asset.Code, Issuer: asset.Issuer}, nil
}
