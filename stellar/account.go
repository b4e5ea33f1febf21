package stellar

import (
	"fmt"

	"github.com/AlexZinkM/stellar-wallet/internal/model"
)

// ListBalances returns every balance line of the account.
func (s *Service) ListBalances(id model.Identity) ([]model.Balance, error) {
	address, err := s.address(id)
	if err != nil {
		return nil, err
	}
	balances, err := s.gateway.Balances(address)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}
	return balances, nil
}

// AssetBalance returns the balance the account holds in one asset.
// assetToken is a code, CODE@domain or XLM.
func (s *Service) AssetBalance(id model.Identity, assetToken, issuer string) (*model.AssetBalanceResponse, error) {
	asset, err := s.resolver.Lookup(assetToken, issuer)
	if err != nil {
		return nil, err
	}

	balances, err := s.ListBalances(id)
	if err != nil {
		return nil, err
	}

	for _, b := range balances {
		if !matches(b, asset) {
			continue
		}
		return &model.AssetBalanceResponse{
			Asset:   asset,
			Balance: b.Balance,
			Summary: fmt.Sprintf("%s %s", b.Balance, asset),
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", model.ErrNoTrustLine, asset)
}

func matches(b model.Balance, asset model.Asset) bool {
	if asset.IsNative() {
		return b.IsNative()
	}
	return !b.IsNative() && b.Code == asset.Code && b.Issuer == asset.Issuer
}

// ListTransactions returns the account's most recent transactions first.
func (s *Service) ListTransactions(id model.Identity, limit uint) ([]model.Transaction, error) {
	address, err := s.address(id)
	if err != nil {
		return nil, err
	}
	txs, err := s.gateway.Transactions(address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return txs, nil
}
