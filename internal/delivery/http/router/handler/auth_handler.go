// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"gatehouse/internal/delivery/http/response"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

// AuthHandler holds dependencies for the password and registration flows.
type AuthHandler struct {
	uc     usecase.AuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		logger: logger,
	}
}

// ListMethods returns the sign-in methods currently enabled, so clients can
// render the right buttons.
func (h *AuthHandler) ListMethods(c echo.Context) error {
	methods, err := h.uc.ListMethods(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, methods, "Authentication methods retrieved")
}

type emailInitInput struct {
	Email string `json:"email" validate:"required,email"`
}

// EmailInit pre-checks an email address before a password is collected.
func (h *AuthHandler) EmailInit(c echo.Context) error {
	var input emailInitInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid email input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.uc.EmailInit(c.Request().Context(), input.Email)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, result, "Email checked")
}

type emailLoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EmailLogin authenticates email+password and returns a session token pair.
func (h *AuthHandler) EmailLogin(c echo.Context) error {
	var input emailLoginInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.uc.EmailLogin(c.Request().Context(), usecase.EmailLoginInput{
		Email:    input.Email,
		Password: input.Password,
		IP:       c.RealIP(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, result, "Login successful")
}

type registerTokenInput struct {
	Token string `json:"token" validate:"required"`
}

// GetRegisterToken validates a register token and returns its payload so the
// registration form can be pre-filled.
func (h *AuthHandler) GetRegisterToken(c echo.Context) error {
	var input registerTokenInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid register token input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	payload, err := h.uc.GetRegisterToken(c.Request().Context(), input.Token)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, payload, "Register token valid")
}

type finishRegistrationInput struct {
	Token    string `json:"token" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

// FinishRegistration consumes a register token, creates the user and returns
// a first session.
func (h *AuthHandler) FinishRegistration(c echo.Context) error {
	var input finishRegistrationInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.uc.FinishRegistration(c.Request().Context(), usecase.FinishRegistrationInput{
		Token:    input.Token,
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		IP:       c.RealIP(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, result, "Registration completed")
}

type verifyEmailInput struct {
	Token string `json:"token" validate:"required"`
}

// VerifyEmailToken validates an emailed register token.
func (h *AuthHandler) VerifyEmailToken(c echo.Context) error {
	var input verifyEmailInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid verification input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	payload, err := h.uc.VerifyEmailToken(c.Request().Context(), input.Token)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, payload, "Email verified")
}

type requestResetInput struct {
	Email string `json:"email" validate:"required,email"`
}

// RequestPasswordReset mints a reset token and emails it. The response is the
// same whether or not the address exists.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var input requestResetInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid reset request input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.RequestPasswordReset(c.Request().Context(), input.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "If the address exists, a reset mail has been sent")
}

type resetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ResetPassword consumes a reset token and stores the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var input resetPasswordInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid reset input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.ResetPassword(c.Request().Context(), input.Token, input.Password); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password reset")
}

type changePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// ChangePassword verifies the old password and stores the new one. Every
// other session of the user is revoked.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	principal, ok := principalFrom(c)
	if !ok {
		return response.Unauthorized(c, "TOKEN_MISSING", "Authentication required")
	}

	var input changePasswordInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid password input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	err := h.uc.ChangePassword(c.Request().Context(), principal.UserID, principal.SessionID, input.OldPassword, input.NewPassword)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password changed")
}

type associateInput struct {
	Token string `json:"token" validate:"required"`
}

// Associate consumes an associate token and links its identities to the
// authenticated user.
func (h *AuthHandler) Associate(c echo.Context) error {
	principal, ok := principalFrom(c)
	if !ok {
		return response.Unauthorized(c, "TOKEN_MISSING", "Authentication required")
	}

	var input associateInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid associate input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.Associate(c.Request().Context(), principal.UserID, input.Token); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Identity linked")
}

// principalFrom extracts the authenticated principal set by the auth
// middleware.
func principalFrom(c echo.Context) (*usecase.Principal, bool) {
	principal, ok := c.Get("principal").(*usecase.Principal)

	return principal, ok
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
