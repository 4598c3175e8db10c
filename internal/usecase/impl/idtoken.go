package impl

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gatehouse/config"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

const defaultIDTokenTTL = time.Hour

// idTokenIssuer implements the IDTokenIssuer interface: EdDSA-signed OIDC ID
// tokens for relying parties, verified against the published JWKS.
type idTokenIssuer struct {
	keys     service.SigningKeyService
	userRepo repository.UserRepository
	issuer   string
	ttl      time.Duration
}

// NewIDTokenIssuer is the constructor for idTokenIssuer.
func NewIDTokenIssuer(
	cfg *config.Config,
	keys service.SigningKeyService,
	userRepo repository.UserRepository,
) (usecase.IDTokenIssuer, error) {
	if cfg.Issuer == nil || cfg.Issuer.URL == "" {
		return nil, errors.New("issuer url must be configured for id token signing")
	}

	ttl := defaultIDTokenTTL
	if cfg.Token != nil && cfg.Token.IDTokenTTL > 0 {
		ttl = cfg.Token.IDTokenTTL
	}

	return &idTokenIssuer{
		keys:     keys,
		userRepo: userRepo,
		issuer:   cfg.Issuer.URL,
		ttl:      ttl,
	}, nil
}

// Issue signs an ID token for the user and audience. The jti claim is fresh
// per token so relying parties can reject replays.
func (iss *idTokenIssuer) Issue(ctx context.Context, userID uuid.UUID, clientID string) (string, error) {
	user, err := iss.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", errors.Wrap(domainerrors.ErrUserNotFound, "id token subject missing")
		}

		return "", errors.Wrap(err, "load id token subject")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"iss":   iss.issuer,
		"aud":   clientID,
		"exp":   now.Add(iss.ttl).Unix(),
		"iat":   now.Unix(),
		"jti":   uuid.NewString(),
		"name":  user.Name,
		"roles": user.Roles,
	}
	if user.TeamID != nil {
		claims["team_id"] = user.TeamID.String()
	}
	if user.DivisionID != nil {
		claims["division_id"] = user.DivisionID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = iss.keys.KeyID()

	key, ok := iss.keys.Signer().(ed25519.PrivateKey)
	if !ok {
		return "", errors.New("signing key is not an ed25519 private key")
	}

	signed, err := token.SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, "sign id token")
	}

	return signed, nil
}
