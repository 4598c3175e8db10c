package usecase

import (
	"context"

	"github.com/google/uuid"
)

// OAuthFinishInput carries the callback half of an external OAuth2 login.
type OAuthFinishInput struct {
	State       string
	Code        string
	RedirectURI string
	IP          string
}

// OAuthUsecase drives sign-in through external OAuth2 identity providers.
type OAuthUsecase interface {
	// Init resolves a named upstream provider and returns the authorize
	// URL the client should redirect to, with a fresh CSRF state bound in.
	Init(ctx context.Context, name string) (string, error)

	// Finish consumes the state, exchanges the code upstream and either
	// mints a session (known identity) or returns a register continuation
	// token (unknown identity, provider permits registration).
	Finish(ctx context.Context, input OAuthFinishInput) (*AuthResult, error)

	// AssociateOAuth links the external account behind the callback to the
	// authenticated user.
	AssociateOAuth(ctx context.Context, userID uuid.UUID, input OAuthFinishInput) error
}
