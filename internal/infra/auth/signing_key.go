package auth

import (
	"crypto"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/go-jose/go-jose/v4"

	"gatehouse/config"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
)

const (
	// signingKeyLabel names the derivation of the ID-token signing key
	// within the root-secret key hierarchy.
	signingKeyLabel = "jwks:key"

	kidLen = 20

	minRootSecretLen = 32
)

// signingKeyService derives the process-wide Ed25519 keypair used for OIDC
// ID tokens. The derivation is deterministic: every instance sharing the same
// root secret computes the same keypair, so no cross-process key agreement is
// needed. The key is computed once at construction and immutable afterwards.
type signingKeyService struct {
	private ed25519.PrivateKey
	kid     string
	jwks    jose.JSONWebKeySet
}

// NewSigningKeyService is the constructor for signingKeyService.
// The seed is HMAC-SHA256(SHA-256(rootSecret), label); the key id is the
// first 20 bytes of the SHA-256 of the public key, base64url-encoded, so a
// rotated root secret yields a distinguishable kid.
func NewSigningKeyService(cfg *config.Config) (service.SigningKeyService, error) {
	if len(cfg.RootSecret) < minRootSecretLen {
		return nil, errors.Errorf("root secret must be at least %d characters", minRootSecretLen)
	}

	master := sha256.Sum256([]byte(cfg.RootSecret))
	mac := hmac.New(sha256.New, master[:])
	mac.Write([]byte(signingKeyLabel))
	seed := mac.Sum(nil)

	private := ed25519.NewKeyFromSeed(seed)
	public := private.Public().(ed25519.PublicKey)

	sum := sha256.Sum256(public)
	kid := base64.RawURLEncoding.EncodeToString(sum[:kidLen])

	jwks := jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{
			{
				Key:       public,
				KeyID:     kid,
				Algorithm: string(jose.EdDSA),
				Use:       "sig",
			},
		},
	}

	return &signingKeyService{
		private: private,
		kid:     kid,
		jwks:    jwks,
	}, nil
}

// KeyID returns the identifier published in the JWKS.
func (s *signingKeyService) KeyID() string {
	return s.kid
}

// Signer returns the private signing key.
func (s *signingKeyService) Signer() crypto.Signer {
	return s.private
}

// PublicJWKS returns the published set of public verification keys.
func (s *signingKeyService) PublicJWKS() jose.JSONWebKeySet {
	return s.jwks
}
