package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"gatehouse/internal/delivery/http/response"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

// OAuthHandler holds dependencies for sign-in through external OAuth2
// identity providers.
type OAuthHandler struct {
	uc     usecase.OAuthUsecase
	logger *slog.Logger
}

// NewOAuthHandler is the constructor for OAuthHandler, injected by Fx.
func NewOAuthHandler(uc usecase.OAuthUsecase, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		uc:     uc,
		logger: logger,
	}
}

type oauthInitInput struct {
	Name string `json:"name" validate:"required"`
}

// Init starts the flow for a named upstream provider. With redirect=true the
// user agent is sent straight to the provider; otherwise the authorize URL is
// returned for frontend use.
func (h *OAuthHandler) Init(c echo.Context) error {
	var input oauthInitInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid OAuth init input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	authorizeURL, err := h.uc.Init(c.Request().Context(), input.Name)
	if err != nil {
		return errors.WithStack(err)
	}

	if c.QueryParam("redirect") == "true" {
		return c.Redirect(http.StatusTemporaryRedirect, authorizeURL)
	}

	return response.Success(c, http.StatusOK, authorizeURL, "OAuth authorize URL generated")
}

type oauthCallbackInput struct {
	State       string `json:"state" validate:"required"`
	Code        string `json:"code" validate:"required"`
	RedirectURI string `json:"redirect_uri"`
}

// Finish completes an external login: the state is consumed, the code is
// exchanged upstream, and the result is either a session or a register
// continuation token.
func (h *OAuthHandler) Finish(c echo.Context) error {
	var input oauthCallbackInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid OAuth callback input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.uc.Finish(c.Request().Context(), usecase.OAuthFinishInput{
		State:       input.State,
		Code:        input.Code,
		RedirectURI: input.RedirectURI,
		IP:          c.RealIP(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, result, "OAuth authentication successful")
}

// Associate links the external account behind the callback to the
// authenticated user.
func (h *OAuthHandler) Associate(c echo.Context) error {
	principal, ok := principalFrom(c)
	if !ok {
		return response.Unauthorized(c, "TOKEN_MISSING", "Authentication required")
	}

	var input oauthCallbackInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid OAuth associate input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	err := h.uc.AssociateOAuth(c.Request().Context(), principal.UserID, usecase.OAuthFinishInput{
		State:       input.State,
		Code:        input.Code,
		RedirectURI: input.RedirectURI,
		IP:          c.RealIP(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "External account linked")
}
