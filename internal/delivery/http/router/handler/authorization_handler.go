package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"gatehouse/internal/delivery/http/response"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

// AuthorizationHandler exposes the first-party OAuth2/OIDC authorization
// server endpoints. The token endpoint speaks the OAuth2 wire format directly
// rather than the API envelope, since its consumers are client backends.
type AuthorizationHandler struct {
	uc     usecase.AuthorizationUsecase
	logger *slog.Logger
}

// NewAuthorizationHandler is the constructor for AuthorizationHandler,
// injected by Fx.
func NewAuthorizationHandler(uc usecase.AuthorizationUsecase, logger *slog.Logger) *AuthorizationHandler {
	return &AuthorizationHandler{
		uc:     uc,
		logger: logger,
	}
}

// Authorize handles an authenticated authorization request and redirects the
// user agent back to the client with a code or the implicit tokens.
func (h *AuthorizationHandler) Authorize(c echo.Context) error {
	principal, ok := principalFrom(c)
	if !ok {
		return response.Unauthorized(c, "TOKEN_MISSING", "Authentication required")
	}

	output, err := h.uc.Authorize(c.Request().Context(), usecase.AuthorizeInput{
		UserID:       principal.UserID,
		ResponseType: c.QueryParam("response_type"),
		ClientID:     c.QueryParam("client_id"),
		RedirectURI:  c.QueryParam("redirect_uri"),
		Scope:        c.QueryParam("scope"),
		State:        c.QueryParam("state"),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Redirect(http.StatusFound, output.RedirectURL)
}

type authorizeInternalInput struct {
	ResponseType string `json:"response_type" validate:"required"`
	ClientID     string `json:"client_id" validate:"required"`
	RedirectURI  string `json:"redirect_uri" validate:"required"`
	Scope        string `json:"scope"`
	State        string `json:"state"`
}

// AuthorizeInternal is the same authorization decision for first-party
// frontends: instead of a 302 the redirect URL comes back in the body, so a
// SPA can drive the navigation itself.
func (h *AuthorizationHandler) AuthorizeInternal(c echo.Context) error {
	principal, ok := principalFrom(c)
	if !ok {
		return response.Unauthorized(c, "TOKEN_MISSING", "Authentication required")
	}

	var input authorizeInternalInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid authorize input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Authorize(c.Request().Context(), usecase.AuthorizeInput{
		UserID:       principal.UserID,
		ResponseType: input.ResponseType,
		ClientID:     input.ClientID,
		RedirectURI:  input.RedirectURI,
		Scope:        input.Scope,
		State:        input.State,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"url": output.RedirectURL}, "Authorization granted")
}

// oauthWireError is the OAuth2 token endpoint error body.
type oauthWireError struct {
	Error string `json:"error"`
}

// Token exchanges an authorization code for tokens. Client credentials come
// from HTTP Basic auth or the form body.
func (h *AuthorizationHandler) Token(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-store")

	clientID, clientSecret, ok := c.Request().BasicAuth()
	if !ok {
		clientID = c.FormValue("client_id")
		clientSecret = c.FormValue("client_secret")
	}

	if c.FormValue("grant_type") != "authorization_code" {
		return c.JSON(http.StatusBadRequest, oauthWireError{Error: "unsupported_grant_type"})
	}

	output, err := h.uc.Exchange(c.Request().Context(), usecase.TokenExchangeInput{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Code:         c.FormValue("code"),
		RedirectURI:  c.FormValue("redirect_uri"),
		IP:           c.RealIP(),
	})
	if err != nil {
		// Every client-caused failure is a 400 with the coarse OAuth2
		// error code; which check failed is never leaked.
		switch {
		case errors.Is(err, usecase.ErrOAuthInvalidClient):
			return c.JSON(http.StatusBadRequest, oauthWireError{Error: usecase.ErrOAuthInvalidClient.Error()})
		case errors.Is(err, usecase.ErrOAuthInvalidRequest):
			return c.JSON(http.StatusBadRequest, oauthWireError{Error: usecase.ErrOAuthInvalidRequest.Error()})
		default:
			return errors.WithStack(err)
		}
	}

	return c.JSON(http.StatusOK, output)
}

// JWKS publishes the public signing keys.
func (h *AuthorizationHandler) JWKS(c echo.Context) error {
	return c.JSON(http.StatusOK, h.uc.JWKS())
}

// Discovery serves the OIDC provider metadata.
func (h *AuthorizationHandler) Discovery(c echo.Context) error {
	return c.JSON(http.StatusOK, h.uc.Discovery())
}
