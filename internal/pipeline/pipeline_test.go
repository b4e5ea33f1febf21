package pipeline

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/AlexZinkM/stellar-wallet/internal/model"
	"github.com/AlexZinkM/stellar-wallet/internal/signer"
	"github.com/AlexZinkM/stellar-wallet/internal/txbuilder"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/network"
	"github.com/stellar/go-stellar-sdk/txnbuild"
	"github.com/stellar/go-stellar-sdk/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSigner struct {
	signer.Signer
	forceV0 bool
	calls   int
}

func (s *countingSigner) Sign(env *txbuilder.Envelope, passphrase string) (xdr.DecoratedSignature, error) {
	s.calls++
	return s.Signer.Sign(env, passphrase)
}

func (s *countingSigner) Protocol(requested txbuilder.ProtocolVersion) txbuilder.ProtocolVersion {
	if s.forceV0 {
		return txbuilder.ProtocolV0
	}
	return requested
}

// wrongKeySigner signs with one key but claims another address.
type wrongKeySigner struct {
	*signer.LocalSigner
	claimed string
}

func (s *wrongKeySigner) PublicKey() (string, error) { return s.claimed, nil }

type countingSubmitter struct {
	calls    int
	received string
	err      error
}

func (s *countingSubmitter) Submit(envelopeXDR string) (*model.SubmissionResult, error) {
	s.calls++
	s.received = envelopeXDR
	if s.err != nil {
		return nil, s.err
	}
	return &model.SubmissionResult{Hash: "abc", Ledger: 5, Successful: true}, nil
}

// answer replies to every confirmation with a pre-supplied line.
type answer struct {
	line        string
	err         error
	description string
	token       string
	calls       int
}

func (a *answer) Confirm(description, action, token string) (bool, error) {
	a.calls++
	a.description = description
	a.token = token
	return a.line == token, a.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testEnvelope(t *testing.T, source string) *txbuilder.Envelope {
	t.Helper()
	op, err := txbuilder.Payment(keypair.MustRandom().Address(), "10.5", model.NativeAsset())
	require.NoError(t, err)
	env, err := txbuilder.NewBuilder(100).Build(source, 1, []txnbuild.Operation{op}, txbuilder.Options{TimeoutSeconds: txbuilder.DefaultTimeoutSeconds})
	require.NoError(t, err)
	return env
}

// imported encodes env and parses it back, as sign_transaction does with foreign input.
func imported(t *testing.T, env *txbuilder.Envelope) *txbuilder.Envelope {
	t.Helper()
	encoded, err := env.Base64()
	require.NoError(t, err)
	parsed, err := txbuilder.Parse(encoded)
	require.NoError(t, err)
	return parsed
}

func TestRun_SubmitsWithoutConfirmation(t *testing.T) {
	kp := keypair.MustRandom()
	s := &countingSigner{Signer: signer.NewLocal(kp)}
	sub := &countingSubmitter{}
	confirm := &answer{}

	p := New(Config{Signer: s, Submitter: sub, Confirmer: confirm, NetworkPassphrase: network.TestNetworkPassphrase, Logger: testLogger()})
	out, err := p.Run(testEnvelope(t, kp.Address()))
	require.NoError(t, err)

	assert.Equal(t, Submitted, out.State)
	assert.Equal(t, Submitted, p.State())
	assert.Equal(t, "abc", out.Result.Hash)
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, 1, sub.calls)
	assert.Equal(t, 0, confirm.calls)
	assert.Equal(t, out.EnvelopeXDR, sub.received)
}

func TestRun_JustSignNeverSubmits(t *testing.T) {
	kp := keypair.MustRandom()
	sub := &countingSubmitter{}
	env := testEnvelope(t, kp.Address())

	p := New(Config{Signer: signer.NewLocal(kp), Submitter: sub, NetworkPassphrase: network.TestNetworkPassphrase, JustSign: true, Logger: testLogger()})
	out, err := p.Run(env)
	require.NoError(t, err)

	assert.Equal(t, Exported, out.State)
	assert.Equal(t, 0, sub.calls)
	assert.Nil(t, out.Result)

	parsed, err := txbuilder.Parse(out.EnvelopeXDR)
	require.NoError(t, err)
	require.Len(t, parsed.Signatures(), 1)
	assert.NoError(t, signer.CheckHint(parsed.Signatures()[0], kp.Address()))
}

func TestRun_SignerForcesProtocol(t *testing.T) {
	kp := keypair.MustRandom()
	env := testEnvelope(t, kp.Address())
	require.Equal(t, txbuilder.ProtocolV1, env.Protocol())

	s := &countingSigner{Signer: signer.NewLocal(kp), forceV0: true}
	p := New(Config{Signer: s, NetworkPassphrase: network.TestNetworkPassphrase, JustSign: true, Logger: testLogger()})
	out, err := p.Run(env)
	require.NoError(t, err)

	parsed, err := txbuilder.Parse(out.EnvelopeXDR)
	require.NoError(t, err)
	assert.Equal(t, txbuilder.ProtocolV0, parsed.Protocol())
}

func TestRun_RejectsHintMismatch(t *testing.T) {
	kp := keypair.MustRandom()
	sub := &countingSubmitter{}
	s := &wrongKeySigner{LocalSigner: signer.NewLocal(kp), claimed: keypair.MustRandom().Address()}

	p := New(Config{Signer: s, Submitter: sub, NetworkPassphrase: network.TestNetworkPassphrase, Logger: testLogger()})
	_, err := p.Run(testEnvelope(t, kp.Address()))
	assert.ErrorIs(t, err, signer.ErrHintMismatch)
	assert.Equal(t, Built, p.State())
	assert.Equal(t, 0, sub.calls)
}

func TestRun_RemoteRejectionIsNotRetried(t *testing.T) {
	kp := keypair.MustRandom()
	sub := &countingSubmitter{err: &model.RemoteRejectedError{Status: 400, Code: "tx_bad_seq"}}

	p := New(Config{Signer: signer.NewLocal(kp), Submitter: sub, NetworkPassphrase: network.TestNetworkPassphrase, Logger: testLogger()})
	_, err := p.Run(testEnvelope(t, kp.Address()))
	assert.ErrorIs(t, err, model.ErrRemoteRejected)
	assert.Equal(t, 1, sub.calls)
	assert.Equal(t, Signed, p.State())
}

func TestRun_NotReusable(t *testing.T) {
	kp := keypair.MustRandom()
	p := New(Config{Signer: signer.NewLocal(kp), NetworkPassphrase: network.TestNetworkPassphrase, JustSign: true, Logger: testLogger()})
	_, err := p.Run(testEnvelope(t, kp.Address()))
	require.NoError(t, err)

	_, err = p.Run(testEnvelope(t, kp.Address()))
	assert.Error(t, err)
}

func TestRunImported_Cancelled(t *testing.T) {
	for _, line := range []string{"", "sign", "SIGN ", "yes", "SUBMIT"} {
		t.Run(line, func(t *testing.T) {
			kp := keypair.MustRandom()
			s := &countingSigner{Signer: signer.NewLocal(kp)}
			sub := &countingSubmitter{}
			confirm := &answer{line: line}

			p := New(Config{Signer: s, Submitter: sub, Confirmer: confirm, NetworkPassphrase: network.TestNetworkPassphrase, Logger: testLogger()})
			out, err := p.RunImported(imported(t, testEnvelope(t, kp.Address())))

			assert.ErrorIs(t, err, model.ErrUserCancelled)
			assert.Nil(t, out)
			assert.Equal(t, Cancelled, p.State())
			assert.Equal(t, 1, confirm.calls)
			assert.Equal(t, 0, s.calls)
			assert.Equal(t, 0, sub.calls)
		})
	}
}

func TestRunImported_ConfirmReadError(t *testing.T) {
	kp := keypair.MustRandom()
	s := &countingSigner{Signer: signer.NewLocal(kp)}
	confirm := &answer{err: io.EOF}

	p := New(Config{Signer: s, Confirmer: confirm, NetworkPassphrase: network.TestNetworkPassphrase, Logger: testLogger()})
	_, err := p.RunImported(imported(t, testEnvelope(t, kp.Address())))
	assert.True(t, errors.Is(err, io.EOF))
	assert.Equal(t, Cancelled, p.State())
	assert.Equal(t, 0, s.calls)
}

func TestRunImported_AppendsSignature(t *testing.T) {
	first := keypair.MustRandom()
	second := keypair.MustRandom()

	env := testEnvelope(t, first.Address())
	sig, err := signer.NewLocal(first).Sign(env, network.TestNetworkPassphrase)
	require.NoError(t, err)
	require.NoError(t, env.AddSignature(sig))

	confirm := &answer{line: SignToken}
	p := New(Config{Signer: signer.NewLocal(second), Confirmer: confirm, NetworkPassphrase: network.TestNetworkPassphrase, JustSign: true, Logger: testLogger()})
	out, err := p.RunImported(imported(t, env))
	require.NoError(t, err)

	assert.Equal(t, Exported, out.State)
	assert.Equal(t, SignToken, confirm.token)
	assert.Contains(t, confirm.description, "payment of 10.5000000 XLM")

	parsed, err := txbuilder.Parse(out.EnvelopeXDR)
	require.NoError(t, err)
	sigs := parsed.Signatures()
	require.Len(t, sigs, 2)
	assert.NoError(t, signer.CheckHint(sigs[0], first.Address()))
	assert.NoError(t, signer.CheckHint(sigs[1], second.Address()))
}

func TestSubmitImported(t *testing.T) {
	kp := keypair.MustRandom()
	env := testEnvelope(t, kp.Address())
	sig, err := signer.NewLocal(kp).Sign(env, network.TestNetworkPassphrase)
	require.NoError(t, err)
	require.NoError(t, env.AddSignature(sig))

	t.Run("confirmed", func(t *testing.T) {
		sub := &countingSubmitter{}
		confirm := &answer{line: SubmitToken}
		p := New(Config{Submitter: sub, Confirmer: confirm, Logger: testLogger()})

		out, err := p.SubmitImported(imported(t, env))
		require.NoError(t, err)
		assert.Equal(t, Submitted, out.State)
		assert.Equal(t, 1, sub.calls)
		assert.Equal(t, SubmitToken, confirm.token)

		want, err := env.Base64()
		require.NoError(t, err)
		assert.Equal(t, want, sub.received, "envelope is submitted unchanged")
	})

	t.Run("cancelled", func(t *testing.T) {
		sub := &countingSubmitter{}
		p := New(Config{Submitter: sub, Confirmer: &answer{line: SignToken}, Logger: testLogger()})

		_, err := p.SubmitImported(imported(t, env))
		assert.ErrorIs(t, err, model.ErrUserCancelled)
		assert.Equal(t, Cancelled, p.State())
		assert.Equal(t, 0, sub.calls)
	})
}

func TestImported_ExpiredTimeBounds(t *testing.T) {
	kp := keypair.MustRandom()
	op, err := txbuilder.Payment(keypair.MustRandom().Address(), "1", model.NativeAsset())
	require.NoError(t, err)
	built := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env, err := txbuilder.NewBuilder(100).WithClock(func() time.Time { return built }).
		Build(kp.Address(), 1, []txnbuild.Operation{op}, txbuilder.Options{TimeoutSeconds: 60})
	require.NoError(t, err)

	tests := []struct {
		name    string
		now     time.Time
		expired bool
	}{
		{name: "before max time", now: built.Add(59 * time.Second)},
		{name: "at max time", now: built.Add(60 * time.Second), expired: true},
		{name: "long after", now: built.Add(24 * time.Hour), expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := func() time.Time { return tt.now }
			for _, run := range []struct {
				action string
				token  string
				call   func(p *Pipeline, env *txbuilder.Envelope) (*Outcome, error)
			}{
				{action: "sign", token: SignToken, call: (*Pipeline).RunImported},
				{action: "submit", token: SubmitToken, call: (*Pipeline).SubmitImported},
			} {
				s := &countingSigner{Signer: signer.NewLocal(kp)}
				sub := &countingSubmitter{}
				confirm := &answer{line: run.token}
				p := New(Config{Signer: s, Submitter: sub, Confirmer: confirm, NetworkPassphrase: network.TestNetworkPassphrase, Logger: testLogger(), Now: now})

				_, err := run.call(p, imported(t, env))
				if tt.expired {
					assert.ErrorIs(t, err, model.ErrTransactionExpired, run.action)
					assert.Equal(t, Cancelled, p.State(), run.action)
					assert.Equal(t, 0, confirm.calls, run.action)
					assert.Equal(t, 0, s.calls, run.action)
					assert.Equal(t, 0, sub.calls, run.action)
					continue
				}
				require.NoError(t, err, run.action)
				assert.Equal(t, 1, confirm.calls, run.action)
				assert.Equal(t, 1, sub.calls, run.action)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "awaiting_confirmation", AwaitingConfirmation.String())
	assert.True(t, Cancelled.Terminal())
	assert.False(t, Signed.Terminal())
}
