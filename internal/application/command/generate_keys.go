package command

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/member"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE KEYS COMMAND
// Creates the member's sovereign key pair. The private key is returned once
// and only its bcrypt hash is stored.
// ══════════════════════════════════════════════════════════════════════════════

// GenerateKeysCommand has no input; it exists for symmetry with the other handlers.
type GenerateKeysCommand struct{}

// GenerateKeysResult contains the new key pair.
type GenerateKeysResult struct {
	// PublicKey is the base64 ed25519 public key, also stored on the profile.
	PublicKey string

	// PrivateKey is the base64 ed25519 seed. It is not stored anywhere.
	PrivateKey string

	// CreatedAt is when the pair was generated.
	CreatedAt time.Time
}

// GenerateKeysConfig configures key generation.
type GenerateKeysConfig struct {
	// HashCost is the bcrypt cost for the private key hash.
	HashCost int

	// Random is the entropy source.
	Random io.Reader

	// Now is the clock.
	Now func() time.Time
}

// DefaultGenerateKeysConfig returns production defaults.
func DefaultGenerateKeysConfig() GenerateKeysConfig {
	return GenerateKeysConfig{
		HashCost: bcrypt.DefaultCost,
		Random:   rand.Reader,
		Now:      time.Now,
	}
}

// GenerateKeysHandler handles GenerateKeysCommand.
type GenerateKeysHandler struct {
	store  *Store
	config GenerateKeysConfig
	logger *logger.Logger
}

// NewGenerateKeysHandler creates a new GenerateKeysHandler.
func NewGenerateKeysHandler(store *Store, config GenerateKeysConfig, log *logger.Logger) *GenerateKeysHandler {
	if config.Random == nil {
		config.Random = rand.Reader
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.HashCost == 0 {
		config.HashCost = bcrypt.DefaultCost
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GenerateKeysHandler{
		store:  store,
		config: config,
		logger: log.With(logger.Component("generate_keys")),
	}
}

// Handle generates a key pair and records its public half.
func (h *GenerateKeysHandler) Handle(ctx context.Context, _ GenerateKeysCommand) (*GenerateKeysResult, error) {
	pub, priv, err := ed25519.GenerateKey(h.config.Random)
	if err != nil {
		return nil, fmt.Errorf("generate_keys: key generation failed: %w", err)
	}

	secret := base64.StdEncoding.EncodeToString(priv.Seed())
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.config.HashCost)
	if err != nil {
		return nil, fmt.Errorf("generate_keys: hashing failed: %w", err)
	}

	now := h.config.Now().UTC()
	creds := member.Credentials{
		PublicKey:      base64.StdEncoding.EncodeToString(pub),
		PrivateKeyHash: string(hash),
		LastBackup:     now,
	}
	if _, _, err := h.store.Dispatch(ctx, guild.SetCredentials{Credentials: creds}); err != nil {
		return nil, fmt.Errorf("generate_keys: failed to store credentials: %w", err)
	}

	h.logger.Info("sovereign keys generated")
	return &GenerateKeysResult{
		PublicKey:  creds.PublicKey,
		PrivateKey: secret,
		CreatedAt:  now,
	}, nil
}

// VerifyPrivateKey reports whether privateKey matches the stored hash.
func VerifyPrivateKey(creds member.Credentials, privateKey string) bool {
	return bcrypt.CompareHashAndPassword([]byte(creds.PrivateKeyHash), []byte(privateKey)) == nil
}
