package entity

import (
	"time"

	"github.com/google/uuid"
)

// Flags carried on a RegisterToken.
const (
	// FlagEmailVerified marks that the registration email was confirmed
	// through a verification link before the token was issued.
	FlagEmailVerified = "email_verified"
)

// AuthToken is the uniform result of an authentication attempt. It is a
// closed sum type: every provider returns one of the variants below, and
// every consumption site (session creation, user creation, identity linking)
// switches exhaustively over them.
type AuthToken interface {
	authToken()
}

// PendingIdentity describes an identity that does not exist yet but will be
// created when a register or associate token is consumed.
type PendingIdentity struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
	SecretData string `json:"secret_data,omitempty"`
}

// SessionToken means the principal authenticated fully; the caller should
// mint a first-party session for the user.
type SessionToken struct {
	UserID uuid.UUID `json:"user_id"`
}

// RegisterToken means the principal authenticated against an identity that
// has no local user yet; the caller should drive the registration flow.
type RegisterToken struct {
	Identities []PendingIdentity `json:"identities"`
	Flags      []string          `json:"flags,omitempty"`
	Roles      []string          `json:"roles,omitempty"`
}

// AssociateToken means the authenticated identity should be linked to an
// existing user rather than creating a new one.
type AssociateToken struct {
	UserID     uuid.UUID         `json:"user_id"`
	Identities []PendingIdentity `json:"identities"`
}

func (SessionToken) authToken()   {}
func (RegisterToken) authToken()  {}
func (AssociateToken) authToken() {}

// EmailIdentity returns the pending email identity, if any.
func (t RegisterToken) EmailIdentity() (PendingIdentity, bool) {
	for _, identity := range t.Identities {
		if identity.Provider == ProviderEmail {
			return identity, true
		}
	}

	return PendingIdentity{}, false
}

// HasFlag reports whether the register token carries the given flag.
func (t RegisterToken) HasFlag(flag string) bool {
	for _, f := range t.Flags {
		if f == flag {
			return true
		}
	}

	return false
}

// ResetPasswordToken is the payload of a password-reset ephemeral token.
type ResetPasswordToken struct {
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// StateToken is the payload of an OAuth CSRF state ephemeral token. It
// correlates an outbound authorize redirect with its callback.
type StateToken struct {
	Name string `json:"name"`
}

// AuthorizationCode is the payload of a first-party authorization-code
// ephemeral token, bound to the client and user it was minted for.
type AuthorizationCode struct {
	UserID      uuid.UUID `json:"user_id"`
	AppID       uuid.UUID `json:"app_id"`
	Scopes      []string  `json:"scopes"`
	RedirectURI string    `json:"redirect_uri"`
}
