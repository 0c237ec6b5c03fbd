package command

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/heron-guild/guildhall/internal/domain/shared"
)

func TestGenerateKeys(t *testing.T) {
	pub := &recorder{}
	s := newTestStore(t, nil, pub)

	cfg := DefaultGenerateKeysConfig()
	cfg.HashCost = bcrypt.MinCost
	cfg.Now = func() time.Time { return t0 }
	h := NewGenerateKeysHandler(s, cfg, nil)

	res, err := h.Handle(context.Background(), GenerateKeysCommand{})
	require.NoError(t, err)

	sec := s.State().User.Security
	require.NotNil(t, sec)
	assert.Equal(t, res.PublicKey, sec.PublicKey)
	assert.Equal(t, t0, sec.LastBackup)
	assert.NotContains(t, sec.PrivateKeyHash, res.PrivateKey)
	assert.True(t, VerifyPrivateKey(*sec, res.PrivateKey))
	assert.False(t, VerifyPrivateKey(*sec, "guess"))
	assert.Contains(t, pub.types(), shared.EventCredentialsRotated)

	// The returned seed regenerates the stored public key.
	seed, err := base64.StdEncoding.DecodeString(res.PrivateKey)
	require.NoError(t, err)
	derived := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	assert.Equal(t, sec.PublicKey, base64.StdEncoding.EncodeToString(derived))
}

func TestGenerateKeys_RotationReplacesKeys(t *testing.T) {
	s := newTestStore(t, nil, nil)
	cfg := DefaultGenerateKeysConfig()
	cfg.HashCost = bcrypt.MinCost
	h := NewGenerateKeysHandler(s, cfg, nil)
	ctx := context.Background()

	first, err := h.Handle(ctx, GenerateKeysCommand{})
	require.NoError(t, err)
	second, err := h.Handle(ctx, GenerateKeysCommand{})
	require.NoError(t, err)

	assert.NotEqual(t, first.PublicKey, second.PublicKey)
	sec := s.State().User.Security
	assert.False(t, VerifyPrivateKey(*sec, first.PrivateKey))
	assert.True(t, VerifyPrivateKey(*sec, second.PrivateKey))
}
