package model

// Balance represents one account balance line
type Balance struct {
	AssetType string `json:"asset_type"`
	Code      string `json:"asset_code,omitempty"`
	Issuer    string `json:"asset_issuer,omitempty"`
	Balance   string `json:"balance"`
	Limit     string `json:"limit,omitempty"`
}

// IsNative reports whether the balance is held in the base currency.
func (b Balance) IsNative() bool {
	return b.AssetType == "native"
}

// AssetBalanceResponse represents output of list_asset_balance
type AssetBalanceResponse struct {
	Asset   Asset  `json:"asset"`
	Balance string `json:"balance"`
	// Summary reads "<balance> XLM" or "<balance> <asset> issued by <issuer>".
	Summary string `json:"summary"`
}
