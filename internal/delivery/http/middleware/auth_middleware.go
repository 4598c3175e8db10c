package middleware

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"gatehouse/internal/delivery/http/response"
	"gatehouse/internal/usecase"
)

// PrincipalKey is the echo context key under which the authenticated
// principal is stored for downstream handlers.
const PrincipalKey = "principal"

// AuthMiddleware resolves bearer tokens to principals. Validation always goes
// through the session manager, so a revoked session is rejected even while
// its access token is still unexpired.
type AuthMiddleware struct {
	sessions usecase.SessionManager
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(sessions usecase.SessionManager) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate validates the Authorization header and stores the resolved
// principal on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return response.Unauthorized(c, "TOKEN_MISSING", "Authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return response.Unauthorized(c, "TOKEN_MISSING", "Authorization header must carry a Bearer token")
		}

		principal, err := m.sessions.ValidateToken(c.Request().Context(), tokenString)
		if err != nil {
			return response.Unauthorized(c, "TOKEN_INVALID", "Invalid or expired token")
		}

		c.Set(PrincipalKey, principal)

		return next(c)
	}
}

// AuthenticateOrLoginRedirect is the browser-navigation variant: instead of
// a 401 it sends the user agent to the login page, preserving the original
// URL so the flow can resume after sign-in.
func (m *AuthMiddleware) AuthenticateOrLoginRedirect(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString != "" && tokenString != authHeader {
			if principal, err := m.sessions.ValidateToken(c.Request().Context(), tokenString); err == nil {
				c.Set(PrincipalKey, principal)

				return next(c)
			}
		}

		returnTo := url.QueryEscape(c.Request().URL.RequestURI())

		return c.Redirect(http.StatusFound, "/login?return="+returnTo)
	}
}

// RequireScope rejects scoped sessions lacking the given scope. A session
// without any scopes is a full first-party session and passes every check.
// Must be used after Authenticate.
func (m *AuthMiddleware) RequireScope(scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := c.Get(PrincipalKey).(*usecase.Principal)
			if !ok {
				return response.Unauthorized(c, "TOKEN_MISSING", "Authentication required")
			}

			if len(principal.Scopes) > 0 && !slices.Contains(principal.Scopes, scope) {
				return response.Forbidden(c, "SCOPE_MISSING", "Session lacks the '"+scope+"' scope")
			}

			return next(c)
		}
	}
}
