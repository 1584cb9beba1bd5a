package security

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultNonceTTL is how long a rendered form stays submittable.
const DefaultNonceTTL = 24 * time.Hour

// ErrInvalidNonce is returned for missing, expired, forged or mismatched
// nonces.
var ErrInvalidNonce = errors.New("security: invalid nonce")

// Nonces mints and verifies action-bound tokens for the user in ctx.
type Nonces interface {
	Create(ctx context.Context, action string) (string, error)
	Verify(ctx context.Context, token, action string) error
}

type nonceClaims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// JWTNonces signs nonces as HS256 JWTs carrying the action and user ID.
type JWTNonces struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ Nonces = (*JWTNonces)(nil)

// NonceOption configures JWTNonces.
type NonceOption func(*JWTNonces)

// WithNonceTTL overrides DefaultNonceTTL.
func WithNonceTTL(ttl time.Duration) NonceOption {
	return func(n *JWTNonces) {
		if ttl > 0 {
			n.ttl = ttl
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) NonceOption {
	return func(n *JWTNonces) {
		if now != nil {
			n.now = now
		}
	}
}

// NewJWTNonces requires a secret of at least 16 bytes.
func NewJWTNonces(secret []byte, options ...NonceOption) (*JWTNonces, error) {
	if len(secret) < 16 {
		return nil, errors.New("security: nonce secret must be at least 16 bytes")
	}
	n := &JWTNonces{
		secret: append([]byte(nil), secret...),
		ttl:    DefaultNonceTTL,
		now:    time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(n)
		}
	}
	return n, nil
}

// RandomSecret returns 32 random bytes for deployments without a configured
// secret. Nonces do not survive a restart in that case.
func RandomSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("security: random secret: %w", err)
	}
	return secret, nil
}

// Create mints a nonce for action bound to the current user (0 when anonymous).
func (n *JWTNonces) Create(ctx context.Context, action string) (string, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return "", errors.New("security: nonce action is required")
	}
	now := n.now()
	claims := nonceClaims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectFor(ctx),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(n.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(n.secret)
	if err != nil {
		return "", fmt.Errorf("security: sign nonce: %w", err)
	}
	return token, nil
}

// Verify checks signature, expiry, action and user binding.
func (n *JWTNonces) Verify(ctx context.Context, token, action string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: empty", ErrInvalidNonce)
	}

	claims := &nonceClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return n.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(n.now),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(subjectFor(ctx)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNonce, err)
	}
	if claims.Action != strings.TrimSpace(action) {
		return fmt.Errorf("%w: action mismatch", ErrInvalidNonce)
	}
	return nil
}

func subjectFor(ctx context.Context) string {
	user, _ := UserFrom(ctx)
	return strconv.FormatInt(user.ID, 10)
}
