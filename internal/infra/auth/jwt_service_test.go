package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/config"
)

func newTestJWTService(t *testing.T) *jwtService {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.Access = "test-secret-key-for-access-tokens"
	cfg.Issuer = &config.IssuerConfig{URL: "https://auth.example.com/"}
	cfg.Token = &config.TokenConfig{AccessTTL: time.Minute}

	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	return svc.(*jwtService)
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(&config.Config{})
	assert.Error(t, err)
}

func TestJWTService_GenerateAndValidateAccessToken(t *testing.T) {
	svc := newTestJWTService(t)
	sessionID := uuid.New()
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(sessionID, userID, []string{"openid", "profile"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, []string{"openid", "profile"}, claims.Scopes)
	assert.Equal(t, "https://auth.example.com/", claims.Issuer)
}

func TestJWTService_RejectsTamperedToken(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.GenerateAccessToken(uuid.New(), uuid.New(), nil)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token + "x")
	assert.Error(t, err)

	_, err = svc.ValidateAccessToken("not-a-jwt")
	assert.Error(t, err)
}

func TestJWTService_RejectsTokenFromOtherSecret(t *testing.T) {
	svc := newTestJWTService(t)

	otherCfg := &config.Config{}
	otherCfg.SecretKey.Access = "a-completely-different-secret"
	other, err := NewJWTService(otherCfg)
	require.NoError(t, err)

	token, err := other.GenerateAccessToken(uuid.New(), uuid.New(), nil)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := newTestJWTService(t)
	svc.accessTTL = -time.Minute

	token, err := svc.GenerateAccessToken(uuid.New(), uuid.New(), nil)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_RefreshTokens(t *testing.T) {
	svc := newTestJWTService(t)

	token, hash, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, token, hash)
	assert.Equal(t, hash, svc.HashRefreshToken(token))

	second, _, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, second)
}
