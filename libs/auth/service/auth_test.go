package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "b8a3c2267dc85f855dea9b46b452bf20"
	testRefreshSecret = "5d0b1b8e0f7a4f0d9c3e2a1b6c7d8e9f"
)

var testIdentity = Identity{UserID: 42, Email: "admin@example.com", Role: RoleAdmin}

func TestNewTokenCodec(t *testing.T) {
	tests := []struct {
		name          string
		accessExpiry  time.Duration
		refreshExpiry time.Duration
	}{
		{
			name:          "standard initialization",
			accessExpiry:  15 * time.Minute,
			refreshExpiry: 7 * 24 * time.Hour,
		},
		{
			name:          "short expiry times",
			accessExpiry:  1 * time.Minute,
			refreshExpiry: 10 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := NewTokenCodec(testAccessSecret, testRefreshSecret, tt.accessExpiry, tt.refreshExpiry)

			assert.NotNil(t, tc)
			assert.Equal(t, []byte(testAccessSecret), tc.accessSecret)
			assert.Equal(t, []byte(testRefreshSecret), tc.refreshSecret)
			assert.Equal(t, tt.accessExpiry, tc.accessTokenExpiry)
			assert.Equal(t, tt.refreshExpiry, tc.RefreshTokenExpiry())
		})
	}
}

func TestTokenCodec_IssuePair(t *testing.T) {
	tc := NewTokenCodec(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)

	t.Run("success", func(t *testing.T) {
		accessToken, refreshToken, err := tc.IssuePair(testIdentity)
		require.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)
		assert.NotEqual(t, accessToken, refreshToken)
	})

	t.Run("token format validation", func(t *testing.T) {
		accessToken, refreshToken, err := tc.IssuePair(testIdentity)
		require.NoError(t, err)

		assert.Len(t, strings.Split(accessToken, "."), 3)
		assert.Len(t, strings.Split(refreshToken, "."), 3)
	})

	t.Run("tokens issued in the same second differ", func(t *testing.T) {
		fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		frozen := NewTokenCodec(testAccessSecret, testRefreshSecret, time.Minute, time.Hour, WithClock(func() time.Time { return fixed }))

		_, refresh1, err := frozen.IssuePair(testIdentity)
		require.NoError(t, err)
		_, refresh2, err := frozen.IssuePair(testIdentity)
		require.NoError(t, err)

		assert.NotEqual(t, refresh1, refresh2)
	})
}

func TestTokenCodec_VerifyAccessToken(t *testing.T) {
	tc := NewTokenCodec(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)

	t.Run("valid token", func(t *testing.T) {
		accessToken, err := tc.IssueAccessToken(testIdentity)
		require.NoError(t, err)

		claims, err := tc.VerifyAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, 42, claims.UserID)
		assert.Equal(t, "admin@example.com", claims.Email)
		assert.Equal(t, RoleAdmin, claims.Role)
		assert.True(t, claims.IsAdmin())
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("empty string token", func(t *testing.T) {
		_, err := tc.VerifyAccessToken("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("malformed JWT - missing parts", func(t *testing.T) {
		_, err := tc.VerifyAccessToken("header.payload")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("malformed JWT - invalid base64", func(t *testing.T) {
		_, err := tc.VerifyAccessToken("not-base64.not-base64.not-base64")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered signature", func(t *testing.T) {
		accessToken, err := tc.IssueAccessToken(testIdentity)
		require.NoError(t, err)

		parts := strings.Split(accessToken, ".")
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		tampered := parts[0] + "." + parts[1] + "." + string(sig)

		_, err = tc.VerifyAccessToken(tampered)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		userToken, err := tc.IssueAccessToken(Identity{UserID: 7, Email: "user@example.com", Role: RoleUser})
		require.NoError(t, err)
		adminToken, err := tc.IssueAccessToken(testIdentity)
		require.NoError(t, err)

		userParts := strings.Split(userToken, ".")
		adminParts := strings.Split(adminToken, ".")
		forged := userParts[0] + "." + adminParts[1] + "." + userParts[2]

		_, err = tc.VerifyAccessToken(forged)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("signed with another secret", func(t *testing.T) {
		other := NewTokenCodec("another-access-secret", testRefreshSecret, time.Hour, time.Hour)
		accessToken, err := other.IssueAccessToken(testIdentity)
		require.NoError(t, err)

		_, err = tc.VerifyAccessToken(accessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong signature method - none", func(t *testing.T) {
		claims := Claims{
			UserID: 42,
			Role:   RoleAdmin,
			Type:   tokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tc.VerifyAccessToken(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token without expiry", func(t *testing.T) {
		claims := Claims{UserID: 42, Role: RoleAdmin, Type: tokenTypeAccess}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString([]byte(testAccessSecret))
		require.NoError(t, err)

		_, err = tc.VerifyAccessToken(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token without user id", func(t *testing.T) {
		claims := Claims{
			Role: RoleAdmin,
			Type: tokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString([]byte(testAccessSecret))
		require.NoError(t, err)

		_, err = tc.VerifyAccessToken(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh token is not accepted as access token", func(t *testing.T) {
		shared := NewTokenCodec("same-secret", "same-secret", time.Hour, time.Hour)
		refreshToken, err := shared.IssueRefreshToken(testIdentity)
		require.NoError(t, err)

		_, err = shared.VerifyAccessToken(refreshToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		now := issuedAt
		clocked := NewTokenCodec(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour, WithClock(func() time.Time { return now }))

		accessToken, err := clocked.IssueAccessToken(testIdentity)
		require.NoError(t, err)

		now = issuedAt.Add(14 * time.Minute)
		_, err = clocked.VerifyAccessToken(accessToken)
		assert.NoError(t, err)

		now = issuedAt.Add(16 * time.Minute)
		_, err = clocked.VerifyAccessToken(accessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenCodec_VerifyRefreshToken(t *testing.T) {
	tc := NewTokenCodec(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)

	t.Run("valid token", func(t *testing.T) {
		refreshToken, err := tc.IssueRefreshToken(testIdentity)
		require.NoError(t, err)

		claims, err := tc.VerifyRefreshToken(refreshToken)
		require.NoError(t, err)
		assert.Equal(t, 42, claims.UserID)
	})

	t.Run("access token is not accepted as refresh token", func(t *testing.T) {
		accessToken, err := tc.IssueAccessToken(testIdentity)
		require.NoError(t, err)

		_, err = tc.VerifyRefreshToken(accessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired after seven days", func(t *testing.T) {
		issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		now := issuedAt
		clocked := NewTokenCodec(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour, WithClock(func() time.Time { return now }))

		refreshToken, err := clocked.IssueRefreshToken(testIdentity)
		require.NoError(t, err)

		now = issuedAt.Add(6 * 24 * time.Hour)
		_, err = clocked.VerifyRefreshToken(refreshToken)
		assert.NoError(t, err)

		now = issuedAt.Add(7*24*time.Hour + time.Second)
		_, err = clocked.VerifyRefreshToken(refreshToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
