package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/StudyShelf/internal/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "studyshelf", Expiration: time.Minute}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, expiresAt, err := NewToken(cfg, "u1", "STUDENT")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)

	claims, err := ParseToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.AccountID)
	require.Equal(t, "STUDENT", claims.Role)
	require.Equal(t, "u1", claims.Subject)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewToken(testJWTConfig(), "admin1", "ADMIN")
	require.NoError(t, err)

	other := testJWTConfig()
	other.Secret = "other"
	_, err = ParseToken(other, token)
	require.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Expiration = -time.Minute
	token, _, err := NewToken(cfg, "u1", "STUDENT")
	require.NoError(t, err)

	_, err = ParseToken(cfg, token)
	require.Error(t, err)
}
