package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

// passwordProvider implements the PasswordProvider interface: the "email"
// authentication strategy backed by the identity table and the credential
// hasher. Feature flags are read from the settings service on every call,
// never cached here, since operators may flip them at runtime.
type passwordProvider struct {
	identityRepo repository.IdentityRepository
	hasher       service.PasswordHasher
	settings     service.SettingsService
	logger       *slog.Logger
}

// normalizeEmail canonicalizes an inbound address. Addresses are stored
// lowercased, so `User@Example.com` resolves to the identity registered as
// `user@example.com` instead of looking like a fresh registration.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewPasswordProvider is the constructor for passwordProvider.
func NewPasswordProvider(
	identityRepo repository.IdentityRepository,
	hasher service.PasswordHasher,
	settings service.SettingsService,
	logger *slog.Logger,
) usecase.PasswordProvider {
	return &passwordProvider{
		identityRepo: identityRepo,
		hasher:       hasher,
		settings:     settings,
		logger:       logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the provider's logger.
func (p *passwordProvider) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, p.logger)
}

// ID returns the provider's stable identifier.
func (p *passwordProvider) ID() string {
	return entity.ProviderEmail
}

// ListMethods returns the password sign-in method, or nothing when password
// login is disabled.
func (p *passwordProvider) ListMethods(ctx context.Context) ([]entity.AuthMethod, error) {
	settings, err := p.settings.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read auth settings")
	}
	if !settings.EnableLoginPassword {
		return nil, nil
	}

	return []entity.AuthMethod{{Provider: entity.ProviderEmail, Name: "Email"}}, nil
}

// PreCheck inspects the identity for an email address before a password is
// collected. Returns (nil, nil) when the identity exists and password
// sign-in can proceed, or a register token when the address is unknown and
// self-registration is open.
func (p *passwordProvider) PreCheck(ctx context.Context, email string) (entity.AuthToken, error) {
	email = normalizeEmail(email)

	settings, err := p.settings.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read auth settings")
	}
	if !settings.EnableLoginPassword {
		return nil, errors.Wrap(domainerrors.ErrAuthMethodDisabled, "password login disabled")
	}

	identity, err := p.identityRepo.FindByProvider(ctx, entity.ProviderEmail, email)
	if err != nil {
		if !errors.Is(err, repository.ErrIdentityNotFound) {
			return nil, errors.Wrap(err, "find email identity")
		}

		if !settings.EnableRegisterPassword {
			return nil, errors.Wrap(domainerrors.ErrRegistrationDisabled, "password registration disabled")
		}
		if !settings.EmailDomainAllowed(email) {
			return nil, errors.Wrap(domainerrors.ErrRegistrationDisabled, "email domain not allowed")
		}

		token := entity.RegisterToken{
			Identities: []entity.PendingIdentity{{Provider: entity.ProviderEmail, ProviderID: email}},
		}
		// When email validation is on, the token only ever reaches the
		// user through their mailbox, so possession proves control.
		if settings.ValidateEmail {
			token.Flags = append(token.Flags, entity.FlagEmailVerified)
		}

		return token, nil
	}

	if identity.SecretData == "" {
		// The identity only ever authenticated through OAuth; password
		// sign-in is not configured for it.
		p.log(ctx).Debug("Identity has no password digest", slog.String("email", email))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "password sign-in not configured")
	}

	return nil, nil
}

// Authenticate verifies the password and returns a session token. The error
// is identical for an unknown address and a wrong password.
func (p *passwordProvider) Authenticate(ctx context.Context, email, password string) (entity.AuthToken, error) {
	email = normalizeEmail(email)

	settings, err := p.settings.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read auth settings")
	}
	if !settings.EnableLoginPassword {
		return nil, errors.Wrap(domainerrors.ErrAuthMethodDisabled, "password login disabled")
	}

	identity, err := p.identityRepo.FindByProvider(ctx, entity.ProviderEmail, email)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "identity not found")
		}

		return nil, errors.Wrap(err, "find email identity")
	}
	if identity.SecretData == "" {
		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "no password digest")
	}

	ok, err := p.hasher.Verify(password, identity.SecretData)
	if err != nil {
		// A malformed digest is corruption, not a wrong password.
		p.log(ctx).Error("Stored password digest is malformed",
			slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrInternalError, "verify password digest")
	}
	if !ok {
		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "password mismatch")
	}

	return entity.SessionToken{UserID: identity.UserID}, nil
}
