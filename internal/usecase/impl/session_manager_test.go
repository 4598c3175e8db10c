package impl

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/errors"
	"gatehouse/internal/infra/auth"
	"gatehouse/internal/usecase"
)

func newSessionFixture(t *testing.T) (usecase.SessionManager, *fakeSessionRepo) {
	t.Helper()

	cfg := newTestConfig()
	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	sessionRepo := newFakeSessionRepo()

	return NewSessionManager(cfg, sessionRepo, tokenService, newDiscardLogger()), sessionRepo
}

func TestSessionManager_CreateAndValidate(t *testing.T) {
	manager, _ := newSessionFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	tokens, err := manager.CreateSession(ctx, usecase.CreateSessionInput{
		UserID: userID,
		IP:     "203.0.113.7",
		Scopes: []string{"openid", "profile"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	assert.Positive(t, tokens.ExpiresIn)

	principal, err := manager.ValidateToken(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, principal.UserID)
	assert.Equal(t, []string{"openid", "profile"}, principal.Scopes)
}

func TestSessionManager_ValidateGarbageToken(t *testing.T) {
	manager, _ := newSessionFixture(t)

	_, err := manager.ValidateToken(context.Background(), "not.a.jwt")
	assert.True(t, errors.Is(err, domainerrors.ErrTokenInvalid))
}

func TestSessionManager_RevokedSessionNeverValidates(t *testing.T) {
	manager, _ := newSessionFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	tokens, err := manager.CreateSession(ctx, usecase.CreateSessionInput{UserID: userID})
	require.NoError(t, err)

	principal, err := manager.ValidateToken(ctx, tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, manager.RevokeSession(ctx, userID, principal.SessionID))

	// The JWT itself is still unexpired, but the session row is gone.
	_, err = manager.ValidateToken(ctx, tokens.AccessToken)
	assert.True(t, errors.Is(err, domainerrors.ErrSessionRevoked))
}

func TestSessionManager_RevokeRequiresOwnership(t *testing.T) {
	manager, _ := newSessionFixture(t)
	ctx := context.Background()

	tokens, err := manager.CreateSession(ctx, usecase.CreateSessionInput{UserID: uuid.New()})
	require.NoError(t, err)
	principal, err := manager.ValidateToken(ctx, tokens.AccessToken)
	require.NoError(t, err)

	err = manager.RevokeSession(ctx, uuid.New(), principal.SessionID)
	assert.True(t, errors.Is(err, domainerrors.ErrForbidden))

	// The session survives the rejected attempt.
	_, err = manager.ValidateToken(ctx, tokens.AccessToken)
	assert.NoError(t, err)
}

func TestSessionManager_RefreshRotates(t *testing.T) {
	manager, _ := newSessionFixture(t)
	ctx := context.Background()

	tokens, err := manager.CreateSession(ctx, usecase.CreateSessionInput{UserID: uuid.New()})
	require.NoError(t, err)

	refreshed, err := manager.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.RefreshToken)
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)

	// The old refresh token died with the rotation.
	_, err = manager.Refresh(ctx, tokens.RefreshToken)
	assert.True(t, errors.Is(err, domainerrors.ErrRefreshTokenInvalid))

	// The new one still works.
	_, err = manager.Refresh(ctx, refreshed.RefreshToken)
	assert.NoError(t, err)
}

func TestSessionManager_RefreshUnknownToken(t *testing.T) {
	manager, _ := newSessionFixture(t)

	_, err := manager.Refresh(context.Background(), "never-issued")
	assert.True(t, errors.Is(err, domainerrors.ErrRefreshTokenInvalid))
}

func TestSessionManager_RevokeUserSessionsSparesCaller(t *testing.T) {
	manager, _ := newSessionFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	var kept *usecase.Principal
	for i := range 3 {
		tokens, err := manager.CreateSession(ctx, usecase.CreateSessionInput{UserID: userID})
		require.NoError(t, err)
		principal, err := manager.ValidateToken(ctx, tokens.AccessToken)
		require.NoError(t, err)
		if i == 0 {
			kept = principal
		}
	}

	require.NoError(t, manager.RevokeUserSessions(ctx, userID, &kept.SessionID))

	sessions, err := manager.ListSessions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, kept.SessionID, sessions[0].ID)
}

func TestSessionManager_RevokeAllUserSessions(t *testing.T) {
	manager, _ := newSessionFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	for range 2 {
		_, err := manager.CreateSession(ctx, usecase.CreateSessionInput{UserID: userID})
		require.NoError(t, err)
	}

	require.NoError(t, manager.RevokeUserSessions(ctx, userID, nil))

	sessions, err := manager.ListSessions(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
