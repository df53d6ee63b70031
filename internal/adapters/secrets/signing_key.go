package secrets

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/bnema/donation-portal/internal/ports"
)

const (
	TokenSigningKey = "auth/token_secret"
	signingKeyBytes = 32
)

// EnsureSigningKey returns the stored token signing secret, generating and
// persisting a random one on first use.
func EnsureSigningKey(ctx context.Context, store ports.SecretStore) (string, error) {
	existing, err := store.Get(ctx, TokenSigningKey)
	if err == nil && existing != "" {
		return existing, nil
	}
	if err != nil && !errors.Is(err, ErrSecretNotFound) {
		return "", fmt.Errorf("load token signing key: %w", err)
	}

	raw := make([]byte, signingKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token signing key: %w", err)
	}
	secret := hex.EncodeToString(raw)

	if err := store.Put(ctx, TokenSigningKey, secret); err != nil {
		return "", fmt.Errorf("store token signing key: %w", err)
	}

	return secret, nil
}
