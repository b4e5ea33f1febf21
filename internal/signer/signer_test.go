package signer

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/AlexZinkM/stellar-wallet/internal/model"
	"github.com/AlexZinkM/stellar-wallet/internal/txbuilder"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/network"
	"github.com/stellar/go-stellar-sdk/txnbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice signs with an in-memory key and records its calls.
type fakeDevice struct {
	kp          *keypair.Full
	tamper      bool
	err         error
	addressCall int
	signCalls   int
	lastPath    string
}

func (d *fakeDevice) GetAddress(path string) (string, error) {
	d.addressCall++
	d.lastPath = path
	return d.kp.Address(), nil
}

func (d *fakeDevice) SignTransaction(tx *txnbuild.Transaction, path, networkPassphrase string) ([]byte, error) {
	d.signCalls++
	d.lastPath = path
	if d.err != nil {
		return nil, d.err
	}
	hash, err := tx.Hash(networkPassphrase)
	if err != nil {
		return nil, err
	}
	sig, err := d.kp.Sign(hash[:])
	if err != nil {
		return nil, err
	}
	if d.tamper {
		sig[0] ^= 0xff
	}
	return sig, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testEnvelope(t *testing.T, source string, protocol txbuilder.ProtocolVersion) *txbuilder.Envelope {
	t.Helper()
	op, err := txbuilder.Payment(keypair.MustRandom().Address(), "1", model.NativeAsset())
	require.NoError(t, err)
	env, err := txbuilder.NewBuilder(100).
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }).
		Build(source, 1, []txnbuild.Operation{op}, txbuilder.Options{TimeoutSeconds: 60, Protocol: protocol})
	require.NoError(t, err)
	return env
}

func TestLocalSigner(t *testing.T) {
	kp := keypair.MustRandom()
	s := NewLocal(kp)

	address, err := s.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), address)

	env := testEnvelope(t, kp.Address(), txbuilder.ProtocolV1)
	sig, err := s.Sign(env, network.TestNetworkPassphrase)
	require.NoError(t, err)
	assert.Empty(t, env.Signatures(), "Sign must not modify the envelope")
	assert.NoError(t, CheckHint(sig, kp.Address()))

	hash, err := env.Hash(network.TestNetworkPassphrase)
	require.NoError(t, err)
	assert.NoError(t, kp.Verify(hash[:], sig.Signature))

	otherHash, err := env.Hash(network.PublicNetworkPassphrase)
	require.NoError(t, err)
	assert.Error(t, kp.Verify(otherHash[:], sig.Signature), "signature must be bound to the network")

	assert.Equal(t, txbuilder.ProtocolV0, s.Protocol(txbuilder.ProtocolV0))
	assert.Equal(t, txbuilder.ProtocolV1, s.Protocol(txbuilder.ProtocolV1))
}

func TestCheckHint_Mismatch(t *testing.T) {
	kp := keypair.MustRandom()
	env := testEnvelope(t, kp.Address(), txbuilder.ProtocolV1)
	sig, err := NewLocal(kp).Sign(env, network.TestNetworkPassphrase)
	require.NoError(t, err)

	err = CheckHint(sig, keypair.MustRandom().Address())
	assert.ErrorIs(t, err, ErrHintMismatch)
}

func TestHardwareSigner_PublicKeyIsDeviceQuery(t *testing.T) {
	device := &fakeDevice{kp: keypair.MustRandom()}
	s := NewHardware(device, "", testLogger())

	address, err := s.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, device.kp.Address(), address)
	assert.Equal(t, DefaultDerivationPath, device.lastPath)

	_, err = s.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, 1, device.addressCall)
	assert.Equal(t, 0, device.signCalls)
}

func TestHardwareSigner_Sign(t *testing.T) {
	device := &fakeDevice{kp: keypair.MustRandom()}
	s := NewHardware(device, "m/44'/148'/1'", testLogger())

	env := testEnvelope(t, device.kp.Address(), txbuilder.ProtocolV1)
	sig, err := s.Sign(env, network.TestNetworkPassphrase)
	require.NoError(t, err)
	assert.Equal(t, 1, device.signCalls)
	assert.Equal(t, "m/44'/148'/1'", device.lastPath)
	assert.NoError(t, CheckHint(sig, device.kp.Address()))

	assert.Equal(t, txbuilder.ProtocolV0, s.Protocol(txbuilder.ProtocolV1))
	assert.Equal(t, txbuilder.ProtocolV0, s.Protocol(txbuilder.ProtocolV0))
}

func TestHardwareSigner_RejectsBadSignature(t *testing.T) {
	device := &fakeDevice{kp: keypair.MustRandom(), tamper: true}
	s := NewHardware(device, "", testLogger())

	env := testEnvelope(t, device.kp.Address(), txbuilder.ProtocolV0)
	_, err := s.Sign(env, network.TestNetworkPassphrase)
	assert.ErrorIs(t, err, ErrInvalidDeviceSignature)
}

func TestHardwareSigner_DeviceError(t *testing.T) {
	device := &fakeDevice{kp: keypair.MustRandom(), err: model.ErrUserCancelled}
	s := NewHardware(device, "", testLogger())

	env := testEnvelope(t, device.kp.Address(), txbuilder.ProtocolV0)
	_, err := s.Sign(env, network.TestNetworkPassphrase)
	assert.True(t, errors.Is(err, model.ErrUserCancelled))
}

func TestDeferredSigner(t *testing.T) {
	kp := keypair.MustRandom()
	loads := 0
	s := NewDeferred(func() (*keypair.Full, error) {
		loads++
		return kp, nil
	})

	assert.False(t, s.Loaded())
	assert.Equal(t, txbuilder.ProtocolV0, s.Protocol(txbuilder.ProtocolV0))
	assert.Equal(t, 0, loads)

	address, err := s.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), address)

	_, err = s.Sign(testEnvelope(t, kp.Address(), txbuilder.ProtocolV1), network.TestNetworkPassphrase)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.True(t, s.Loaded())
}

func TestDeferredSigner_LoadError(t *testing.T) {
	s := NewDeferred(func() (*keypair.Full, error) { return nil, model.ErrDecryptionFailed })

	_, err := s.PublicKey()
	assert.ErrorIs(t, err, model.ErrDecryptionFailed)
	assert.False(t, s.Loaded())
}
