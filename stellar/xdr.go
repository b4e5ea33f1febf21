package stellar

import (
	"strings"

	"github.com/AlexZinkM/stellar-wallet/internal/model"
	"github.com/AlexZinkM/stellar-wallet/internal/pipeline"
	"github.com/AlexZinkM/stellar-wallet/internal/txbuilder"
)

// SignXDR appends a signature to an imported envelope after the operator confirms it.
// Without JustSign the signed envelope is submitted.
func (s *Service) SignXDR(req model.SignRequest) (*pipeline.Outcome, error) {
	env, err := parseXDR(req.XDR)
	if err != nil {
		return nil, err
	}
	if req.VZero {
		env.SetProtocol(txbuilder.ProtocolV0)
	}

	sg, err := s.signerFor(req.Identity)
	if err != nil {
		return nil, err
	}
	return s.pipeline(sg, req.JustSign).RunImported(env)
}

// SubmitXDR broadcasts an imported, already signed envelope after the operator confirms it.
func (s *Service) SubmitXDR(envelopeXDR string) (*pipeline.Outcome, error) {
	env, err := parseXDR(envelopeXDR)
	if err != nil {
		return nil, err
	}
	return s.pipeline(nil, false).SubmitImported(env)
}

func parseXDR(raw string) (*txbuilder.Envelope, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, model.MissingField("xdr")
	}
	return txbuilder.Parse(raw)
}
