// Package pipeline drives a transaction from construction through signing to submission
// or export.
//
// Self-built transactions are signed directly: the operator already supplied every field on
// the command line. Imported envelopes are rendered in full and need an explicit
// confirmation token first.
package pipeline

import (
	"fmt"
	"time"

	"github.com/AlexZinkM/stellar-wallet/internal/model"
	"github.com/AlexZinkM/stellar-wallet/internal/signer"
	"github.com/AlexZinkM/stellar-wallet/internal/txbuilder"

	"github.com/sirupsen/logrus"
)

// Confirmation tokens the operator must type for imported envelopes.
const (
	SignToken   = "SIGN"
	SubmitToken = "SUBMIT"
)

// State is a step of the pipeline.
type State int

const (
	Built State = iota
	AwaitingConfirmation
	Signed
	Submitted
	Exported
	Cancelled
)

var stateNames = map[State]string{
	Built:                "built",
	AwaitingConfirmation: "awaiting_confirmation",
	Signed:               "signed",
	Submitted:            "submitted",
	Exported:             "exported",
	Cancelled:            "cancelled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Submitted || s == Exported || s == Cancelled
}

// Confirmer asks the operator to approve a rendered transaction.
// It returns true only if the answer equals token exactly.
type Confirmer interface {
	Confirm(description, action, token string) (bool, error)
}

// Submitter broadcasts a signed envelope.
type Submitter interface {
	Submit(envelopeXDR string) (*model.SubmissionResult, error)
}

// Config wires a Pipeline.
type Config struct {
	Signer            signer.Signer
	Submitter         Submitter
	Confirmer         Confirmer
	NetworkPassphrase string
	// JustSign exports the signed envelope instead of submitting it.
	JustSign bool
	Logger   *logrus.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Outcome is what a finished pipeline produced.
type Outcome struct {
	State       State
	EnvelopeXDR string
	// Result is set when the envelope was submitted.
	Result *model.SubmissionResult
}

// Pipeline runs one transaction. It is not reusable.
type Pipeline struct {
	cfg   Config
	state State
}

// New creates a Pipeline in state Built.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg, state: Built}
}

// State returns the current state.
func (p *Pipeline) State() State {
	return p.state
}

// Run signs a transaction built by this process, then submits or exports it.
func (p *Pipeline) Run(env *txbuilder.Envelope) (*Outcome, error) {
	if err := p.expect(Built); err != nil {
		return nil, err
	}
	if err := p.sign(env); err != nil {
		return nil, err
	}
	return p.finish(env)
}

// RunImported renders an imported envelope, waits for the SIGN token and appends this
// signer's signature. Any other answer cancels without signing or contacting the network.
func (p *Pipeline) RunImported(env *txbuilder.Envelope) (*Outcome, error) {
	if err := p.expect(Built); err != nil {
		return nil, err
	}
	if err := p.checkExpiry(env); err != nil {
		return nil, err
	}
	if err := p.confirm(env, "sign", SignToken); err != nil {
		return nil, err
	}
	if err := p.sign(env); err != nil {
		return nil, err
	}
	return p.finish(env)
}

// SubmitImported renders a fully signed imported envelope, waits for the SUBMIT token and
// broadcasts it without signing.
func (p *Pipeline) SubmitImported(env *txbuilder.Envelope) (*Outcome, error) {
	if err := p.expect(Built); err != nil {
		return nil, err
	}
	if err := p.checkExpiry(env); err != nil {
		return nil, err
	}
	if len(env.Signatures()) == 0 {
		p.logger().Warn("submitting a transaction without signatures")
	}
	if err := p.confirm(env, "submit", SubmitToken); err != nil {
		return nil, err
	}
	return p.submit(env)
}

func (p *Pipeline) expect(s State) error {
	if p.state != s {
		return fmt.Errorf("pipeline is %s, expected %s", p.state, s)
	}
	return nil
}

func (p *Pipeline) transition(s State) {
	p.logger().WithFields(logrus.Fields{"from": p.state, "to": s}).Debug("pipeline transition")
	p.state = s
}

// checkExpiry cancels an imported envelope whose upper time bound has passed.
func (p *Pipeline) checkExpiry(env *txbuilder.Envelope) error {
	maxTime := env.Transaction().Timebounds().MaxTime
	if maxTime == 0 {
		return nil
	}
	now := time.Now
	if p.cfg.Now != nil {
		now = p.cfg.Now
	}
	if maxTime <= now().Unix() {
		p.transition(Cancelled)
		return fmt.Errorf("%w: valid until %s", model.ErrTransactionExpired, time.Unix(maxTime, 0).UTC().Format(time.RFC3339))
	}
	return nil
}

func (p *Pipeline) confirm(env *txbuilder.Envelope, action, token string) error {
	p.transition(AwaitingConfirmation)

	ok, err := p.cfg.Confirmer.Confirm(txbuilder.Describe(env), action, token)
	if err != nil {
		p.transition(Cancelled)
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !ok {
		p.transition(Cancelled)
		return model.ErrUserCancelled
	}
	return nil
}

func (p *Pipeline) sign(env *txbuilder.Envelope) error {
	s := p.cfg.Signer
	env.SetProtocol(s.Protocol(env.Protocol()))

	address, err := s.PublicKey()
	if err != nil {
		return err
	}
	sig, err := s.Sign(env, p.cfg.NetworkPassphrase)
	if err != nil {
		return err
	}
	if err := signer.CheckHint(sig, address); err != nil {
		return err
	}
	if err := env.AddSignature(sig); err != nil {
		return err
	}

	p.transition(Signed)
	p.logger().WithFields(logrus.Fields{
		"signer":     address,
		"signatures": len(env.Signatures()),
		"envelope":   env.Protocol(),
	}).Info("transaction signed")
	return nil
}

func (p *Pipeline) finish(env *txbuilder.Envelope) (*Outcome, error) {
	if !p.cfg.JustSign {
		return p.submit(env)
	}

	encoded, err := env.Base64()
	if err != nil {
		return nil, err
	}
	p.transition(Exported)
	return &Outcome{State: Exported, EnvelopeXDR: encoded}, nil
}

func (p *Pipeline) submit(env *txbuilder.Envelope) (*Outcome, error) {
	encoded, err := env.Base64()
	if err != nil {
		return nil, err
	}
	result, err := p.cfg.Submitter.Submit(encoded)
	if err != nil {
		return nil, err
	}
	p.transition(Submitted)
	return &Outcome{State: Submitted, EnvelopeXDR: encoded, Result: result}, nil
}

func (p *Pipeline) logger() *logrus.Logger {
	if p.cfg.Logger == nil {
		return logrus.StandardLogger()
	}
	return p.cfg.Logger
}
