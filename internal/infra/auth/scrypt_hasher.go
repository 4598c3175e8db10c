// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/scrypt"

	"gatehouse/config"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
)

const (
	scryptScheme = "scrypt"
	scryptKeyLen = 64
	saltLen      = 16

	defaultScryptN = 16384
	defaultScryptR = 8
	defaultScryptP = 1
)

// ErrInvalidDigest is returned when a stored digest cannot be parsed. A
// malformed digest means corruption, not a wrong password, so it is never
// folded into a plain "no match".
var ErrInvalidDigest = errors.New("invalid digest format")

// scryptHasher is a concrete implementation of the PasswordHasher interface
// using scrypt. Digests are self-describing:
//
//	$scrypt$N=16384,r=8,p=1$<base64 salt>$<base64 key>
//
// so digests hashed under older cost parameters stay verifiable after an
// upgrade.
type scryptHasher struct {
	n int
	r int
	p int
}

// NewScryptHasher is the constructor for scryptHasher. Cost parameters come
// from configuration; zero values fall back to the interactive-login defaults.
func NewScryptHasher(cfg *config.Config) service.PasswordHasher {
	h := &scryptHasher{n: defaultScryptN, r: defaultScryptR, p: defaultScryptP}
	if cfg != nil && cfg.Scrypt != nil {
		if cfg.Scrypt.N > 0 {
			h.n = cfg.Scrypt.N
		}
		if cfg.Scrypt.R > 0 {
			h.r = cfg.Scrypt.R
		}
		if cfg.Scrypt.P > 0 {
			h.p = cfg.Scrypt.P
		}
	}

	return h
}

// Hash derives a salted scrypt digest with a fresh random salt per call.
func (h *scryptHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "generate salt")
	}

	key, err := scrypt.Key([]byte(password), salt, h.n, h.r, h.p, scryptKeyLen)
	if err != nil {
		return "", errors.Wrap(err, "derive scrypt key")
	}

	digest := fmt.Sprintf("$%s$N=%d,r=%d,p=%d$%s$%s",
		scryptScheme, h.n, h.r, h.p,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	)

	return digest, nil
}

// Verify parses the digest's scheme tag, re-derives the key under the stored
// parameters and compares in constant time.
func (h *scryptHasher) Verify(password, digest string) (bool, error) {
	parts := strings.Split(digest, "$")
	// Leading "$" yields an empty first element.
	if len(parts) < 3 || parts[0] != "" {
		return false, errors.WithStack(ErrInvalidDigest)
	}

	switch parts[1] {
	case scryptScheme:
		return verifyScrypt(password, parts[2:])
	default:
		return false, errors.Wrapf(ErrInvalidDigest, "unsupported scheme %q", parts[1])
	}
}

func verifyScrypt(password string, parts []string) (bool, error) {
	if len(parts) != 3 {
		return false, errors.WithStack(ErrInvalidDigest)
	}

	n, r, p, err := parseScryptParams(parts[0])
	if err != nil {
		return false, err
	}

	salt, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, errors.Wrap(ErrInvalidDigest, "decode salt")
	}
	key, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, errors.Wrap(ErrInvalidDigest, "decode key")
	}

	derived, err := scrypt.Key([]byte(password), salt, n, r, p, len(key))
	if err != nil {
		return false, errors.Wrap(err, "derive scrypt key")
	}

	return subtle.ConstantTimeCompare(key, derived) == 1, nil
}

func parseScryptParams(s string) (n, r, p int, err error) {
	for _, pair := range strings.Split(s, ",") {
		k, v, found := strings.Cut(pair, "=")
		if !found {
			return 0, 0, 0, errors.Wrapf(ErrInvalidDigest, "malformed parameter %q", pair)
		}
		val, convErr := strconv.Atoi(v)
		if convErr != nil || val <= 0 {
			return 0, 0, 0, errors.Wrapf(ErrInvalidDigest, "invalid value for parameter %s", k)
		}
		switch k {
		case "N":
			n = val
		case "r":
			r = val
		case "p":
			p = val
		default:
			return 0, 0, 0, errors.Wrapf(ErrInvalidDigest, "unrecognized parameter %s", k)
		}
	}
	if n == 0 || r == 0 || p == 0 {
		return 0, 0, 0, errors.Wrap(ErrInvalidDigest, "missing required scrypt parameters")
	}

	return n, r, p, nil
}
