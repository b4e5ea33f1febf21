package stellar

import (
	"fmt"
	"strings"

	"github.com/AlexZinkM/stellar-wallet/internal/model"
	"github.com/AlexZinkM/stellar-wallet/internal/pipeline"
	"github.com/AlexZinkM/stellar-wallet/internal/signer"
	"github.com/AlexZinkM/stellar-wallet/internal/txbuilder"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/txnbuild"
)

// AddTrust establishes a trust line from the signer's account to a non-native asset.
func (s *Service) AddTrust(req model.TrustRequest) (*pipeline.Outcome, error) {
	opts, err := s.options(req.TxFlags)
	if err != nil {
		return nil, err
	}
	asset, err := s.resolver.Lookup(req.Asset, req.Issuer)
	if err != nil {
		return nil, err
	}
	op, err := txbuilder.ChangeTrust(asset)
	if err != nil {
		return nil, err
	}

	sg, err := s.signerFor(req.Identity)
	if err != nil {
		return nil, err
	}
	source, err := sg.PublicKey()
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"account": source, "asset": asset.String()}).Info("adding trust line")
	return s.run(sg, source, []txnbuild.Operation{op}, opts, req.JustSign)
}

// SendPayment pays amount of an asset to a destination address or name*domain.
// The transaction source defaults to the signer's account.
func (s *Service) SendPayment(req model.PaymentRequest) (*pipeline.Outcome, error) {
	opts, err := s.options(req.TxFlags)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Amount) == "" {
		return nil, model.MissingField("amount")
	}
	asset, err := s.resolver.Lookup(req.Asset, req.Issuer)
	if err != nil {
		return nil, err
	}
	destination, err := s.destination(req.Destination)
	if err != nil {
		return nil, err
	}
	op, err := txbuilder.Payment(destination, req.Amount, asset)
	if err != nil {
		return nil, err
	}

	sg, err := s.signerFor(req.Identity)
	if err != nil {
		return nil, err
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		if source, err = sg.PublicKey(); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"source":      source,
		"destination": destination,
		"amount":      req.Amount,
		"asset":       asset.String(),
	}).Info("sending payment")
	return s.run(sg, source, []txnbuild.Operation{op}, opts, req.JustSign)
}

// destination resolves a federation address. A failed lookup is reported as a missing
// destination rather than aborting with a resolver error.
func (s *Service) destination(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", model.MissingField("destination")
	}
	resolved, err := s.resolver.ResolveAddress(raw)
	if err != nil {
		s.logger.WithError(err).Warn("destination could not be resolved")
		return "", fmt.Errorf("%w: %v", model.MissingField("destination"), err)
	}
	if resolved == "" {
		return "", model.MissingField("destination")
	}
	return resolved, nil
}

// run loads the source sequence number, builds the transaction and hands it to a pipeline.
func (s *Service) run(sg signer.Signer, source string, ops []txnbuild.Operation, opts txbuilder.Options, justSign bool) (*pipeline.Outcome, error) {
	seq, err := s.gateway.SequenceNumber(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load source account: %w", err)
	}
	env, err := s.builder.Build(source, seq, ops, opts)
	if err != nil {
		return nil, err
	}
	return s.pipeline(sg, justSign).Run(env)
}
