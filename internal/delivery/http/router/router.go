// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"gatehouse/internal/delivery/http/middleware"
	"gatehouse/internal/delivery/http/router/handler"
)

type RouterParams struct {
	fx.In

	AuthHandler          *handler.AuthHandler
	SessionHandler       *handler.SessionHandler
	OAuthHandler         *handler.OAuthHandler
	AuthorizationHandler *handler.AuthorizationHandler
	AuthMiddleware       *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler          *handler.AuthHandler
	sessionHandler       *handler.SessionHandler
	oauthHandler         *handler.OAuthHandler
	authorizationHandler *handler.AuthorizationHandler
	authMiddleware       *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:          params.AuthHandler,
		sessionHandler:       params.SessionHandler,
		oauthHandler:         params.OAuthHandler,
		authorizationHandler: params.AuthorizationHandler,
		authMiddleware:       params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// OIDC discovery is served at the well-known location, outside /auth.
	e.GET("/.well-known/openid-configuration", r.authorizationHandler.Discovery)

	authGroup := e.Group("/auth")
	{
		authGroup.GET("/methods", r.authHandler.ListMethods)

		authGroup.POST("/email/init", r.authHandler.EmailInit)
		authGroup.POST("/email/verify", r.authHandler.VerifyEmailToken)
		authGroup.POST("/email/finish", r.authHandler.EmailLogin)
		authGroup.PUT("/email/reset", r.authHandler.RequestPasswordReset)
		authGroup.POST("/email/reset", r.authHandler.ResetPassword)

		authGroup.POST("/register/token", r.authHandler.GetRegisterToken)
		authGroup.POST("/register/finish", r.authHandler.FinishRegistration)

		authGroup.POST("/refresh", r.sessionHandler.Refresh)
	}

	// Auth routes that require an authenticated session.
	authedGroup := e.Group("/auth")
	authedGroup.Use(r.authMiddleware.Authenticate)
	{
		authedGroup.POST("/logout", r.sessionHandler.Logout)
		authedGroup.POST("/password/change", r.authHandler.ChangePassword)
		authedGroup.POST("/associate", r.authHandler.Associate)

		authedGroup.GET("/sessions", r.sessionHandler.ListSessions)
		authedGroup.DELETE("/sessions/:id", r.sessionHandler.RevokeSession)
	}

	// External OAuth2 identity providers.
	oauthGroup := e.Group("/auth/oauth")
	{
		oauthGroup.POST("/init", r.oauthHandler.Init)
		oauthGroup.POST("/finish", r.oauthHandler.Finish)

		// First-party authorization server.
		oauthGroup.POST("/token", r.authorizationHandler.Token)
		oauthGroup.GET("/jwks", r.authorizationHandler.JWKS)
	}

	oauthAuthedGroup := e.Group("/auth/oauth")
	oauthAuthedGroup.Use(r.authMiddleware.Authenticate)
	{
		oauthAuthedGroup.POST("/associate", r.oauthHandler.Associate)
		oauthAuthedGroup.POST("/authorize_internal", r.authorizationHandler.AuthorizeInternal)
	}

	// Browser navigation: an unauthenticated user is sent to the login page
	// with the original authorization request preserved.
	e.GET("/auth/oauth/authorize", r.authorizationHandler.Authorize,
		r.authMiddleware.AuthenticateOrLoginRedirect)
}
