// Package device talks to a hardware signing device through its local HTTP bridge.
package device

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AlexZinkM/stellar-wallet/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/txnbuild"
)

const (
	// DefaultBridgeURL is where the device bridge listens by default.
	DefaultBridgeURL = "http://127.0.0.1:21325"

	// Device-side confirmation waits on a human, so signing gets a longer timeout.
	signTimeout = 5 * time.Minute

	codeCancelled = "cancelled"
)

// BridgeClient client for the hardware device bridge
type BridgeClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewBridgeClient creates a new bridge client
func NewBridgeClient(baseURL string, logger *logrus.Logger) *BridgeClient {
	if baseURL == "" {
		baseURL = DefaultBridgeURL
	}
	return &BridgeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: signTimeout,
		},
		logger: logger,
	}
}

type addressRequest struct {
	Path string `json:"path"`
}

type addressResponse struct {
	Address string `json:"address"`
}

type signRequest struct {
	Path              string      `json:"path"`
	NetworkPassphrase string      `json:"network_passphrase"`
	Transaction       Transaction `json:"transaction"`
}

type signResponse struct {
	Signature string `json:"signature"`
}

// bridgeError is the body of a non-200 bridge answer.
type bridgeError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// GetAddress asks the device for the account address at path.
func (c *BridgeClient) GetAddress(path string) (string, error) {
	var resp addressResponse
	if err := c.post("/stellar/address", addressRequest{Path: path}, &resp); err != nil {
		return "", fmt.Errorf("failed to get address: %w", err)
	}
	if resp.Address == "" {
		return "", fmt.Errorf("failed to get address: empty answer from device")
	}
	return resp.Address, nil
}

// SignTransaction sends the parsed transaction to the device and returns the raw signature.
// It blocks until the operator approves or rejects the transaction on the device.
func (c *BridgeClient) SignTransaction(tx *txnbuild.Transaction, path, networkPassphrase string) ([]byte, error) {
	parsed, err := FromTransaction(tx)
	if err != nil {
		return nil, err
	}

	var resp signResponse
	req := signRequest{Path: path, NetworkPassphrase: networkPassphrase, Transaction: parsed}
	if err := c.post("/stellar/sign", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := base64.StdEncoding.DecodeString(resp.Signature)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", err)
	}
	return sig, nil
}

func (c *BridgeClient) post(endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	c.logger.WithField("endpoint", endpoint).Debug("calling hardware bridge")
	resp, err := c.client.Post(c.baseURL+endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("hardware bridge unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var be bridgeError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &be) != nil || be.Error == "" {
			be.Error = strings.TrimSpace(string(raw))
		}
		if be.Code == codeCancelled {
			return fmt.Errorf("%w on device: %s", model.ErrUserCancelled, be.Error)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, be.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
