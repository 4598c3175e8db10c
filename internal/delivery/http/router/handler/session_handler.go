package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"gatehouse/internal/delivery/http/response"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

// SessionHandler holds dependencies for session lifecycle handlers.
type SessionHandler struct {
	sessions usecase.SessionManager
	logger   *slog.Logger
}

// NewSessionHandler is the constructor for SessionHandler, injected by Fx.
func NewSessionHandler(sessions usecase.SessionManager, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

type refreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates the refresh token and returns a new token pair.
func (h *SessionHandler) Refresh(c echo.Context) error {
	var input refreshInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid refresh input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	tokens, err := h.sessions.Refresh(c.Request().Context(), input.RefreshToken)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tokens, "Token refreshed")
}

// Logout revokes the session behind the presented access token.
func (h *SessionHandler) Logout(c echo.Context) error {
	principal, ok := principalFrom(c)
	if !ok {
		return response.Unauthorized(c, "TOKEN_MISSING", "Authentication required")
	}

	if err := h.sessions.RevokeSession(c.Request().Context(), principal.UserID, principal.SessionID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Logged out")
}

// ListSessions returns the caller's active sessions, newest first.
func (h *SessionHandler) ListSessions(c echo.Context) error {
	principal, ok := principalFrom(c)
	if !ok {
		return response.Unauthorized(c, "TOKEN_MISSING", "Authentication required")
	}

	sessions, err := h.sessions.ListSessions(c.Request().Context(), principal.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, sessions, "Sessions retrieved")
}

// RevokeSession revokes one of the caller's sessions by id.
func (h *SessionHandler) RevokeSession(c echo.Context) error {
	principal, ok := principalFrom(c)
	if !ok {
		return response.Unauthorized(c, "TOKEN_MISSING", "Authentication required")
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid session id")
	}

	if err := h.sessions.RevokeSession(c.Request().Context(), principal.UserID, sessionID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Session revoked")
}
