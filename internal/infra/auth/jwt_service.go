package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gatehouse/config"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
)

const (
	// tokenAudience tags first-party access tokens so they can never be
	// confused with ID tokens issued to third-party clients.
	tokenAudience = "gatehouse/auth"

	defaultAccessTTL = 15 * time.Minute

	refreshTokenBytes = 32
)

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
// Access tokens are HS256-signed references to a session row; possession alone
// is not enough, validity is re-checked against the row on every request.
type jwtService struct {
	secret    string
	issuer    string
	accessTTL time.Duration
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	issuer := ""
	if cfg.Issuer != nil {
		issuer = cfg.Issuer.URL
	}

	accessTTL := defaultAccessTTL
	if cfg.Token != nil && cfg.Token.AccessTTL > 0 {
		accessTTL = cfg.Token.AccessTTL
	}

	return &jwtService{
		secret:    cfg.SecretKey.Access,
		issuer:    issuer,
		accessTTL: accessTTL,
	}, nil
}

// GenerateAccessToken creates a signed access token referencing the given session.
func (s *jwtService) GenerateAccessToken(sessionID, userID uuid.UUID, scopes []string) (string, error) {
	now := time.Now()
	claims := service.SessionClaims{
		SessionID: sessionID,
		UserID:    userID,
		Scopes:    scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", errors.Wrap(err, "sign access token")
	}

	return signed, nil
}

// ValidateAccessToken checks the signature, audience and expiry of a token string.
func (s *jwtService) ValidateAccessToken(tokenString string) (*service.SessionClaims, error) {
	claims := &service.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return []byte(s.secret), nil
	}, jwt.WithAudience(tokenAudience))
	if err != nil {
		return nil, errors.Wrap(err, "parse access token")
	}
	if !token.Valid {
		return nil, errors.WithStack(jwt.ErrTokenUnverifiable)
	}

	return claims, nil
}

// GenerateRefreshToken creates an opaque random refresh token and the SHA-256
// hash stored alongside the session. Only the hash ever reaches the database.
func (s *jwtService) GenerateRefreshToken() (string, string, error) {
	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", errors.Wrap(err, "generate refresh token")
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	return token, s.HashRefreshToken(token), nil
}

// HashRefreshToken maps a presented refresh token to its stored hash.
func (s *jwtService) HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// AccessTokenDuration returns the configured access token lifetime.
func (s *jwtService) AccessTokenDuration() time.Duration {
	return s.accessTTL
}
