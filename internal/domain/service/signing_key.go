package service

import (
	"crypto"

	"github.com/go-jose/go-jose/v4"
)

// SigningKeyService exposes the process-wide asymmetric signing keypair used
// for OIDC ID tokens. The key is derived deterministically from the root
// secret at startup and is immutable for the process's lifetime; rotating the
// root secret yields a new key with a distinguishable key id.
type SigningKeyService interface {
	// KeyID returns the identifier published in the JWKS and stamped into
	// every signed token header.
	KeyID() string

	// Signer returns the private signing key.
	Signer() crypto.Signer

	// PublicJWKS returns the published set of public verification keys.
	PublicJWKS() jose.JSONWebKeySet
}
