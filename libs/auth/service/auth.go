package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// RoleAdmin is the role claim value granting admin-only operations
	RoleAdmin = "ADMIN"
	// RoleUser is the role claim value of regular users
	RoleUser = "USER"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned for every verification failure.
// Signature, expiry, algorithm and token type failures are not distinguished.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the identity a token is issued for
type Identity struct {
	UserID int
	Email  string
	Role   string
}

// Claims is the payload carried by access and refresh tokens
type Claims struct {
	UserID int    `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry the admin role
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// TokenCodec handles JWT token issuing and verification.
// Access and refresh tokens are signed with different secrets.
type TokenCodec struct {
	accessSecret       []byte
	refreshSecret      []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	now                func() time.Time
}

// Option configures a TokenCodec
type Option func(*TokenCodec)

// WithClock overrides the time source used for issuing and verifying tokens
func WithClock(now func() time.Time) Option {
	return func(tc *TokenCodec) {
		tc.now = now
	}
}

// NewTokenCodec creates a new token codec
func NewTokenCodec(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration, opts ...Option) *TokenCodec {
	tc := &TokenCodec{
		accessSecret:       []byte(accessSecret),
		refreshSecret:      []byte(refreshSecret),
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

// RefreshTokenExpiry returns the configured refresh token lifetime
func (tc *TokenCodec) RefreshTokenExpiry() time.Duration {
	return tc.refreshTokenExpiry
}

// IssuePair issues both access and refresh tokens for an identity
func (tc *TokenCodec) IssuePair(identity Identity) (string, string, error) {
	accessToken, err := tc.IssueAccessToken(identity)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := tc.IssueRefreshToken(identity)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// IssueAccessToken issues a short-lived access token
func (tc *TokenCodec) IssueAccessToken(identity Identity) (string, error) {
	token, err := tc.sign(identity, tokenTypeAccess, tc.accessTokenExpiry, tc.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

// IssueRefreshToken issues a long-lived refresh token
func (tc *TokenCodec) IssueRefreshToken(identity Identity) (string, error) {
	token, err := tc.sign(identity, tokenTypeRefresh, tc.refreshTokenExpiry, tc.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return token, nil
}

// VerifyAccessToken verifies an access token and returns its claims
func (tc *TokenCodec) VerifyAccessToken(tokenString string) (*Claims, error) {
	return tc.verify(tokenString, tokenTypeAccess, tc.accessSecret)
}

// VerifyRefreshToken verifies a refresh token and returns its claims
func (tc *TokenCodec) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return tc.verify(tokenString, tokenTypeRefresh, tc.refreshSecret)
}

func (tc *TokenCodec) sign(identity Identity, tokenType string, expiry time.Duration, secret []byte) (string, error) {
	now := tc.now()
	claims := Claims{
		UserID: identity.UserID,
		Email:  identity.Email,
		Role:   identity.Role,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.Itoa(identity.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (tc *TokenCodec) verify(tokenString, tokenType string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tc.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Type != tokenType || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
