package model

import "fmt"

// NativeAssetCode is the display code of the ledger base currency.
const NativeAssetCode = "XLM"

// Asset identifies a ledger asset. The zero Issuer marks the native asset.
type Asset struct {
	Code   string `json:"code"`
	Issuer string `json:"issuer,omitempty"`
	// Domain is set when the asset was resolved from CODE@domain.
	Domain string `json:"domain,omitempty"`
}

// NativeAsset returns the ledger base currency.
func NativeAsset() Asset {
	return Asset{Code: NativeAssetCode}
}

// IsNative reports whether a is the base currency.
func (a Asset) IsNative() bool {
	return a.Issuer == ""
}

func (a Asset) String() string {
	if a.IsNative() {
		return NativeAssetCode
	}
	if a.Domain != "" {
		return fmt.Sprintf("%s@%s issued by %s", a.Code, a.Domain, a.Issuer)
	}
	return fmt.Sprintf("%s issued by %s", a.Code, a.Issuer)
}
