package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AlexZinkM/stellar-wallet/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/clients/horizonclient"
	hProtocol "github.com/stellar/go-stellar-sdk/protocols/horizon"
)

const (
	appName = "stellar-wallet"

	// DefaultHistoryLimit is the number of transactions listed when no limit is given.
	DefaultHistoryLimit = 20
)

// HorizonClient is the ledger gateway adapter. Each call is one round trip; nothing is
// retried or cached.
//
// Errors answered by the gateway are *model.RemoteRejectedError; transport failures wrap
// model.ErrUnreachable.
type HorizonClient struct {
	client *horizonclient.Client
	logger *logrus.Logger
}

// NewHorizonClient creates a client for the gateway at horizonURL.
func NewHorizonClient(horizonURL string, timeout time.Duration, logger *logrus.Logger) *HorizonClient {
	return &HorizonClient{
		client: &horizonclient.Client{
			HorizonURL: horizonURL,
			HTTP: &http.Client{
				Timeout: timeout,
			},
			AppName: appName,
		},
		logger: logger,
	}
}

// SequenceNumber loads the current sequence number of account.
func (c *HorizonClient) SequenceNumber(account string) (int64, error) {
	details, err := c.account(account)
	if err != nil {
		return 0, err
	}
	seq, err := details.GetSequenceNumber()
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence number: %w", err)
	}
	return seq, nil
}

// Balances returns all balance lines of account.
func (c *HorizonClient) Balances(account string) ([]model.Balance, error) {
	details, err := c.account(account)
	if err != nil {
		return nil, err
	}

	balances := make([]model.Balance, 0, len(details.Balances))
	for _, b := range details.Balances {
		balances = append(balances, model.Balance{
			AssetType: b.Type,
			Code:      b.Code,
			Issuer:    b.Issuer,
			Balance:   b.Balance,
			Limit:     b.Limit,
		})
	}
	return balances, nil
}

// Transactions returns up to limit transactions of account, most recent first.
func (c *HorizonClient) Transactions(account string, limit uint) ([]model.Transaction, error) {
	if limit == 0 {
		limit = DefaultHistoryLimit
	}

	page, err := c.client.Transactions(horizonclient.TransactionRequest{
		ForAccount: account,
		Order:      horizonclient.OrderDesc,
		Limit:      limit,
	})
	if err != nil {
		return nil, classify("failed to get transactions", err)
	}

	txs := make([]model.Transaction, 0, len(page.Embedded.Records))
	for _, tx := range page.Embedded.Records {
		txs = append(txs, model.Transaction{
			Hash:           tx.Hash,
			Ledger:         int64(tx.Ledger),
			CreatedAt:      tx.LedgerCloseTime,
			SourceAccount:  tx.Account,
			FeeCharged:     tx.FeeCharged,
			OperationCount: int64(tx.OperationCount),
			MemoType:       tx.MemoType,
			Memo:           tx.Memo,
			Successful:     tx.Successful,
		})
	}
	return txs, nil
}

// Submit broadcasts a signed base64 envelope.
func (c *HorizonClient) Submit(envelopeXDR string) (*model.SubmissionResult, error) {
	c.logger.Debug("submitting transaction")
	tx, err := c.client.SubmitTransactionXDR(envelopeXDR)
	if err != nil {
		return nil, classify("failed to submit transaction", err)
	}

	c.logger.WithFields(logrus.Fields{"hash": tx.Hash, "ledger": tx.Ledger}).Info("transaction submitted")
	return &model.SubmissionResult{
		Hash:          tx.Hash,
		Ledger:        int64(tx.Ledger),
		Successful:    tx.Successful,
		EnvelopeXDR:   tx.EnvelopeXdr,
		ResultXDR:     tx.ResultXdr,
		ResultMetaXDR: tx.ResultMetaXdr,
	}, nil
}

func (c *HorizonClient) account(account string) (hProtocol.Account, error) {
	details, err := c.client.AccountDetail(horizonclient.AccountRequest{AccountID: account})
	if err != nil {
		err = classify("failed to load account "+account, err)
		if isNotFound(err) {
			return hProtocol.Account{}, fmt.Errorf("%w: %s must be funded with at least 1 XLM: %w", model.ErrAccountNotFound, account, err)
		}
		return hProtocol.Account{}, err
	}
	return details, nil
}

// classify sorts a gateway error into a remote rejection or a transport failure.
func classify(action string, err error) error {
	herr := horizonclient.GetError(err)
	if herr == nil {
		return fmt.Errorf("%s: %w: %v", action, model.ErrUnreachable, err)
	}

	rejected := &model.RemoteRejectedError{
		Status:  herr.Problem.Status,
		Code:    problemCode(herr.Problem.Type),
		Message: herr.Problem.Detail,
	}
	if rejected.Message == "" {
		rejected.Message = herr.Problem.Title
	}
	if codes, cerr := herr.ResultCodes(); cerr == nil && codes != nil {
		if codes.TransactionCode != "" {
			rejected.Code = codes.TransactionCode
		}
		rejected.OperationCodes = codes.OperationCodes
	}
	return fmt.Errorf("%s: %w", action, rejected)
}

// problemCode returns the last path segment of a problem type URL.
func problemCode(problemType string) string {
	if i := strings.LastIndex(problemType, "/"); i >= 0 {
		return problemType[i+1:]
	}
	return problemType
}

// isNotFound reports whether err is a gateway 404.
func isNotFound(err error) bool {
	var rejected *model.RemoteRejectedError
	return errors.As(err, &rejected) && rejected.Status == http.StatusNotFound
}
