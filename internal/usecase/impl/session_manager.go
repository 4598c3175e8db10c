package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gatehouse/config"
	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

// sessionManager implements the SessionManager interface. Access tokens are
// short-lived JWTs referencing the session row; the row is consulted on
// every validation so a revocation is effective immediately.
type sessionManager struct {
	sessionRepo  repository.SessionRepository
	tokenService service.TokenService
	sessionTTL   time.Duration
	logger       *slog.Logger
}

// NewSessionManager is the constructor for sessionManager.
func NewSessionManager(
	cfg *config.Config,
	sessionRepo repository.SessionRepository,
	tokenService service.TokenService,
	logger *slog.Logger,
) usecase.SessionManager {
	var sessionTTL time.Duration
	if cfg.Token != nil {
		sessionTTL = cfg.Token.SessionTTL
	}

	return &sessionManager{
		sessionRepo:  sessionRepo,
		tokenService: tokenService,
		sessionTTL:   sessionTTL,
		logger:       logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the manager's logger.
func (m *sessionManager) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, m.logger)
}

// CreateSession inserts a session row and mints its token pair.
func (m *sessionManager) CreateSession(ctx context.Context, input usecase.CreateSessionInput) (*usecase.SessionTokens, error) {
	refreshToken, refreshHash, err := m.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, errors.Wrap(err, "generate refresh token")
	}

	session := &entity.Session{
		UserID:           input.UserID,
		AppID:            input.AppID,
		RefreshTokenHash: refreshHash,
		Scopes:           input.Scopes,
		IP:               input.IP,
		RefreshedAt:      time.Now(),
	}
	if m.sessionTTL > 0 {
		expiresAt := time.Now().Add(m.sessionTTL)
		session.ExpiresAt = &expiresAt
	}

	if err := m.sessionRepo.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "create session")
	}

	accessToken, err := m.tokenService.GenerateAccessToken(session.ID, session.UserID, session.Scopes)
	if err != nil {
		return nil, errors.Wrap(err, "generate access token")
	}

	m.log(ctx).Info("Session created",
		slog.Any("user_id", input.UserID), slog.Any("session_id", session.ID), slog.String("ip", input.IP))

	return &usecase.SessionTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(m.tokenService.AccessTokenDuration().Seconds()),
	}, nil
}

// ValidateToken resolves an access token to a principal backed by a live
// session. Expired, malformed and revoked all collapse into "unauthenticated"
// error kinds; callers cannot act on the difference.
func (m *sessionManager) ValidateToken(ctx context.Context, accessToken string) (*usecase.Principal, error) {
	claims, err := m.tokenService.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrTokenInvalid, "access token rejected")
	}

	session, err := m.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, errors.Wrap(domainerrors.ErrTokenInvalid, "session not found")
		}

		return nil, errors.Wrap(err, "find session")
	}
	if !session.Active(time.Now()) {
		return nil, errors.Wrap(domainerrors.ErrSessionRevoked, "session revoked or expired")
	}

	return &usecase.Principal{
		UserID:    session.UserID,
		SessionID: session.ID,
		Scopes:    session.Scopes,
	}, nil
}

// Refresh rotates the refresh token and mints a new token pair. Rotation is
// atomic in the store, so a stolen-and-replayed old token loses.
func (m *sessionManager) Refresh(ctx context.Context, refreshToken string) (*usecase.SessionTokens, error) {
	newToken, newHash, err := m.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, errors.Wrap(err, "generate refresh token")
	}

	oldHash := m.tokenService.HashRefreshToken(refreshToken)
	session, err := m.sessionRepo.RotateRefreshToken(ctx, oldHash, newHash)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "refresh token rejected")
		}

		return nil, errors.Wrap(err, "rotate refresh token")
	}

	accessToken, err := m.tokenService.GenerateAccessToken(session.ID, session.UserID, session.Scopes)
	if err != nil {
		return nil, errors.Wrap(err, "generate access token")
	}

	m.log(ctx).Debug("Session refreshed",
		slog.Any("user_id", session.UserID), slog.Any("session_id", session.ID))

	return &usecase.SessionTokens{
		AccessToken:  accessToken,
		RefreshToken: newToken,
		ExpiresIn:    int64(m.tokenService.AccessTokenDuration().Seconds()),
	}, nil
}

// RevokeSession revokes one session after checking it belongs to the caller.
func (m *sessionManager) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	session, err := m.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return errors.Wrap(domainerrors.ErrSessionNotFound, "session not found")
		}

		return errors.Wrap(err, "find session")
	}
	if session.UserID != userID {
		return errors.Wrap(domainerrors.ErrForbidden, "session does not belong to user")
	}

	if err := m.sessionRepo.Revoke(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return errors.Wrap(domainerrors.ErrSessionNotFound, "session already revoked")
		}

		return errors.Wrap(err, "revoke session")
	}

	m.log(ctx).Info("Session revoked", slog.Any("user_id", userID), slog.Any("session_id", sessionID))

	return nil
}

// RevokeUserSessions revokes every active session of the user, sparing
// exceptSessionID when non-nil.
func (m *sessionManager) RevokeUserSessions(ctx context.Context, userID uuid.UUID, exceptSessionID *uuid.UUID) error {
	if err := m.sessionRepo.RevokeAllByUser(ctx, userID, exceptSessionID); err != nil {
		return errors.Wrap(err, "revoke user sessions")
	}

	m.log(ctx).Info("All sessions revoked", slog.Any("user_id", userID))

	return nil
}

// ListSessions returns the user's active sessions, newest first.
func (m *sessionManager) ListSessions(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	sessions, err := m.sessionRepo.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}

	return sessions, nil
}
