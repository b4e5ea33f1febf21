// Package asset resolves domain-qualified asset references and federation addresses.
package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AlexZinkM/stellar-wallet/internal/model"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/strkey"
)

const (
	wellKnownPath   = "/.well-known/stellar.toml"
	maxDocumentSize = 100 * 1024
	maxRecordSize   = 16 * 1024
)

// WellKnownDocument is the part of a domain's stellar.toml the wallet uses.
type WellKnownDocument struct {
	FederationServer string     `toml:"FEDERATION_SERVER"`
	Currencies       []Currency `toml:"CURRENCIES"`
}

// Currency is one entry of the CURRENCIES list.
type Currency struct {
	Code   string `toml:"code"`
	Issuer string `toml:"issuer"`
}

// federationRecord is a federation server's answer to a name lookup.
type federationRecord struct {
	StellarAddress string `json:"stellar_address"`
	AccountID      string `json:"account_id"`
}

// Resolver looks up assets and addresses published by domains.
// Every lookup is a fresh round trip; nothing is cached.
type Resolver struct {
	client    *http.Client
	allowHTTP bool
	logger    *logrus.Logger
}

// NewResolver creates a Resolver whose requests time out after timeout.
func NewResolver(timeout time.Duration, logger *logrus.Logger) *Resolver {
	return &Resolver{
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// AllowHTTP permits plain http well-known and federation servers. Intended for tests.
func (r *Resolver) AllowHTTP() *Resolver {
	r.allowHTTP = true
	return r
}

// IsQualified reports whether token has the CODE@domain form.
func IsQualified(token string) bool {
	return strings.Contains(token, "@")
}

// Lookup turns the asset and issuer values of a command into an Asset.
// A CODE@domain token is resolved through the domain; a bare code needs issuer, except for
// the native currency.
func (r *Resolver) Lookup(token, issuer string) (model.Asset, error) {
	token = strings.TrimSpace(token)
	issuer = strings.TrimSpace(issuer)

	switch {
	case token == "":
		return model.Asset{}, model.MissingField("asset")
	case IsQualified(token):
		resolved, err := r.Resolve(token)
		if err != nil {
			return model.Asset{}, err
		}
		if issuer != "" && issuer != resolved.Issuer {
			return model.Asset{}, fmt.Errorf("%w: %s is issued by %s, not %s", model.ErrAssetUnresolvable, token, resolved.Issuer, issuer)
		}
		return resolved, nil
	case issuer == "" && (token == model.NativeAssetCode || strings.EqualFold(token, "native")):
		return model.NativeAsset(), nil
	case issuer == "":
		return model.Asset{}, model.MissingField("issuer")
	default:
		return model.Asset{Code: token, Issuer: issuer}, nil
	}
}

// Resolve resolves a CODE@domain token against the domain's CURRENCIES list.
// The first entry whose code matches exactly wins. Any failure is model.ErrAssetUnresolvable.
func (r *Resolver) Resolve(token string) (model.Asset, error) {
	code, domain, ok := strings.Cut(token, "@")
	if !ok || code == "" || domain == "" || strings.Contains(domain, "@") {
		return model.Asset{}, fmt.Errorf("%w: %q is not of the form CODE@domain", model.ErrAssetUnresolvable, token)
	}

	doc, err := r.document(domain)
	if err != nil {
		return model.Asset{}, fmt.Errorf("%w: %s: %v", model.ErrAssetUnresolvable, token, err)
	}

	for _, c := range doc.Currencies {
		if c.Code == code {
			r.logger.WithFields(logrus.Fields{"code": code, "domain": domain, "issuer": c.Issuer}).Debug("asset resolved")
			return model.Asset{Code: c.Code, Issuer: c.Issuer, Domain: domain}, nil
		}
	}
	return model.Asset{}, fmt.Errorf("%w: %s does not list %s", model.ErrAssetUnresolvable, domain, code)
}

// ResolveAddress maps a name*domain address to an account address via the domain's
// federation server. Plain account addresses are returned unchanged.
func (r *Resolver) ResolveAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !strings.Contains(address, "*") {
		return address, nil
	}

	account, err := r.federate(address)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", model.ErrDestinationUnresolvable, address, err)
	}

	r.logger.WithFields(logrus.Fields{"address": address, "account": account}).Debug("federation address resolved")
	return account, nil
}

// federate asks the FEDERATION_SERVER published by the address's domain for
// GET ?q=name*domain&type=name.
func (r *Resolver) federate(address string) (string, error) {
	i := strings.LastIndex(address, "*")
	name, domain := address[:i], address[i+1:]
	if name == "" || domain == "" {
		return "", errors.New("address is not of the form name*domain")
	}

	doc, err := r.document(domain)
	if err != nil {
		return "", err
	}
	if doc.FederationServer == "" {
		return "", fmt.Errorf("%s publishes no FEDERATION_SERVER", domain)
	}

	endpoint, err := url.Parse(doc.FederationServer)
	if err != nil {
		return "", fmt.Errorf("invalid FEDERATION_SERVER %q: %w", doc.FederationServer, err)
	}
	if endpoint.Scheme != "https" && (!r.allowHTTP || endpoint.Scheme != "http") {
		return "", fmt.Errorf("FEDERATION_SERVER %q is not an https url", doc.FederationServer)
	}
	query := endpoint.Query()
	query.Set("q", address)
	query.Set("type", "name")
	endpoint.RawQuery = query.Encode()

	r.logger.WithField("url", endpoint.String()).Debug("querying federation server")
	resp, err := r.client.Get(endpoint.String())
	if err != nil {
		return "", fmt.Errorf("failed to query federation server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("federation server answered status %d", resp.StatusCode)
	}

	var record federationRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRecordSize)).Decode(&record); err != nil {
		return "", fmt.Errorf("failed to decode federation record: %w", err)
	}
	if !strkey.IsValidEd25519PublicKey(record.AccountID) {
		return "", fmt.Errorf("federation returned invalid account %q", record.AccountID)
	}
	return record.AccountID, nil
}

func (r *Resolver) document(domain string) (*WellKnownDocument, error) {
	scheme := "https"
	if r.allowHTTP {
		scheme = "http"
	}
	url := fmt.Sprintf("%s://%s%s", scheme, domain, wellKnownPath)
	r.logger.WithField("url", url).Debug("fetching well-known document")

	resp, err := r.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if len(raw) > maxDocumentSize {
		return nil, errors.New("well-known document is too large")
	}

	return ParseDocument(raw)
}

// ParseDocument decodes a stellar.toml document.
func ParseDocument(raw []byte) (*WellKnownDocument, error) {
	var doc WellKnownDocument
	if _, err := toml.Decode(string(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse well-known document: %w", err)
	}
	return &doc, nil
}
