package ports

import "context"

// SecretStore holds small values such as the token signing key outside the
// ledger and config files.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
