package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"blog-api/internal/apperr"
)

// SessionTTL is the lifetime of an issued session token.
const SessionTTL = time.Hour

// Identity is the user claim embedded in a session token.
type Identity struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
}

// Claims is the full token payload.
type Claims struct {
	Identity
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens. The secret is fixed
// for the lifetime of the manager.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

// WithTTL overrides SessionTTL.
func WithTTL(ttl time.Duration) TokenOption {
	return func(m *TokenManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func NewTokenManager(secret string, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		secret: []byte(secret),
		ttl:    SessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs a token for identity that expires after the configured TTL.
func (m *TokenManager) Issue(identity Identity) (string, error) {
	now := m.now()
	claims := Claims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", oops.Code(apperr.CodeInternal).With("operation", "sign token").Wrap(err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns its claims.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if claims.UserID == "" {
		return nil, oops.Code(apperr.CodeTokenMalformed).Errorf("token has no subject")
	}
	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return oops.Code(apperr.CodeTokenMalformed).Errorf("malformed token")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return oops.Code(apperr.CodeTokenInvalidSignature).Errorf("invalid token signature")
	case errors.Is(err, jwt.ErrTokenExpired):
		return oops.Code(apperr.CodeTokenExpired).Errorf("token expired")
	default:
		return oops.Code(apperr.CodeTokenMalformed).With("reason", err.Error()).Errorf("invalid token")
	}
}
