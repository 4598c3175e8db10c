// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher defines the interface for password hashing and verification.
// Digests are self-describing (scheme tag plus parameters), so old digests
// remain verifiable after a cost-parameter upgrade.
type PasswordHasher interface {
	// Hash derives a salted digest from a plaintext password.
	Hash(password string) (string, error)

	// Verify compares a plaintext password with a stored digest.
	// A malformed digest or unknown scheme tag returns an error rather
	// than false, since that indicates corruption, not a wrong password.
	Verify(password, digest string) (bool, error)
}
