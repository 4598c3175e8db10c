// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity in the system, representing a unique "person" or "account".
// Authentication methods (identities) hang off a user; the user row itself carries
// only what token issuance needs.
type User struct {
	ID         uuid.UUID  // The Global Unique Identifier (GUID) for the user.
	Name       string     // The user's display name, carried into ID token claims.
	Email      string     // The user's primary contact email, used for verification and reset mail.
	Roles      []string   // Role names granted to this user, carried into token claims.
	TeamID     *uuid.UUID // Optional team membership, surfaced as an ID token domain claim.
	DivisionID *uuid.UUID // Optional division membership, surfaced as an ID token domain claim.
	CreatedAt  time.Time  // Timestamp of when this user account was created.
	UpdatedAt  time.Time  // Timestamp of the last modification to this user's data.
}
