package usecase

import (
	"context"

	"github.com/google/uuid"

	"gatehouse/internal/domain/entity"
)

// AuthResult kinds. A login attempt resolves to either a standing session or
// an ephemeral continuation token for the next step of a flow.
const (
	AuthResultSession  = "session"
	AuthResultRegister = "register"
	AuthResultLogin    = "login" // proceed to password entry
)

// AuthResult is the uniform outcome of an authentication step.
type AuthResult struct {
	Kind string `json:"kind"`

	// Session is set when Kind is "session".
	Session *SessionTokens `json:"session,omitempty"`

	// Token is the opaque continuation token when Kind is "register".
	Token string `json:"token,omitempty"`
}

// EmailLoginInput carries a password sign-in attempt.
type EmailLoginInput struct {
	Email    string
	Password string
	IP       string
}

// FinishRegistrationInput completes a registration flow started by a
// register token.
type FinishRegistrationInput struct {
	Token    string
	Name     string
	Email    string // contact address when the token carries no email identity
	Password string // required iff the token carries an email identity without a digest
	IP       string
}

// AuthUsecase drives the password and registration flows: pre-check, login,
// email verification, password reset/change, registration completion and
// identity association.
type AuthUsecase interface {
	// ListMethods aggregates the sign-in methods of every registered provider.
	ListMethods(ctx context.Context) ([]entity.AuthMethod, error)

	// EmailInit pre-checks an email address. The result is "login" when the
	// caller should collect a password, or "register" with a continuation
	// token when the address is unknown and self-registration is open.
	EmailInit(ctx context.Context, email string) (*AuthResult, error)

	// EmailLogin authenticates email+password and mints a session.
	EmailLogin(ctx context.Context, input EmailLoginInput) (*AuthResult, error)

	// VerifyEmailToken validates an emailed register token and returns its
	// payload so the registration form can be pre-filled.
	VerifyEmailToken(ctx context.Context, token string) (*entity.RegisterToken, error)

	// RequestPasswordReset mints a reset token and emails it. It succeeds
	// whether or not the address exists, to resist enumeration.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword consumes a reset token, stores the new digest and
	// revokes every standing session of the user.
	ResetPassword(ctx context.Context, token, newPassword string) error

	// ChangePassword verifies the old password, stores the new digest and
	// revokes every other session of the user.
	ChangePassword(ctx context.Context, userID, sessionID uuid.UUID, oldPassword, newPassword string) error

	// GetRegisterToken validates a register token and returns its payload.
	GetRegisterToken(ctx context.Context, token string) (*entity.RegisterToken, error)

	// FinishRegistration consumes a register token, creates the user with
	// its identities and mints a first session.
	FinishRegistration(ctx context.Context, input FinishRegistrationInput) (*AuthResult, error)

	// Associate consumes an associate token and links its identities to
	// the authenticated user. The token must have been minted for that
	// same user.
	Associate(ctx context.Context, userID uuid.UUID, token string) error
}
