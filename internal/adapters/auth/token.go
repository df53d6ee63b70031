package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/bnema/donation-portal/internal/domain"
	"github.com/bnema/donation-portal/internal/ports"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenIssuerName = "donation-portal"
	DefaultTokenTTL = 24 * time.Hour
	minSecretLength = 32
)

var (
	ErrMissingSecret = errors.New("token secret is not configured")
	ErrWeakSecret    = fmt.Errorf("token secret must be at least %d bytes", minSecretLength)
	ErrInvalidToken  = errors.New("invalid bearer token")
)

// Claims carries the caller address in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// Tokens mints and verifies HS256 bearer tokens whose subject is a donor or
// owner address.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  ports.Clock
}

func NewTokens(secret string, ttl time.Duration, clock ports.Clock) (*Tokens, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Tokens{secret: []byte(secret), ttl: ttl, clock: clock}, nil
}

// Issue returns a signed token for subject and its expiry. A ttl of zero uses
// the configured default.
func (t *Tokens) Issue(subject domain.Address, ttl time.Duration) (string, time.Time, error) {
	if subject.IsZero() {
		return "", time.Time{}, fmt.Errorf("subject: %w", domain.ErrInvalidAddress)
	}
	if ttl <= 0 {
		ttl = t.ttl
	}

	now := t.clock.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuerName,
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt.Truncate(time.Second), nil
}

// Verify checks signature, issuer and lifetime and returns the subject.
func (t *Tokens) Verify(raw string) (domain.Address, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject, err := domain.ParseAddress(claims.Subject)
	if err != nil || subject.IsZero() {
		return "", fmt.Errorf("%w: subject is not an address", ErrInvalidToken)
	}

	return subject, nil
}
