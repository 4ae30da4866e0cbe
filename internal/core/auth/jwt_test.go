package auth

import (
	"context"
	"testing"
	"time"

	"recipe-discovery/internal/pkg/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-jwt-secret"

func TestVerify(t *testing.T) {
	verifier := NewJWTVerifier(secret, "")
	userID := uuid.NewString()

	token, err := IssueToken(secret, userID, "", time.Hour)
	require.NoError(t, err)

	t.Run("raw token", func(t *testing.T) {
		got, err := verifier.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("bearer prefix", func(t *testing.T) {
		got, err := verifier.Verify(context.Background(), "Bearer "+token)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})
}

func TestVerifyUserIDClaim(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-42",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	got, err := NewJWTVerifier(secret, "").Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", got)
}

func TestVerifyRejects(t *testing.T) {
	expired, err := IssueToken(secret, "u1", "", -time.Minute)
	require.NoError(t, err)

	wrongSecret, err := IssueToken("other-secret", "u1", "", time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := IssueToken(secret, "u1", "someone-else", time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u1",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"expired", expired},
		{"wrong secret", wrongSecret},
		{"wrong issuer", wrongIssuer},
		{"no subject", noSubject},
		{"none algorithm", noneAlg},
	}

	verifier := NewJWTVerifier(secret, "recipe-discovery")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(context.Background(), tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrUnauthorized)
		})
	}
}
