package impl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gatehouse/config"
	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"
)

// Fallback TTLs when the token section is not configured.
const (
	defaultRegisterTTL = time.Hour
	defaultResetTTL    = time.Hour
)

// authService implements the AuthUsecase interface: the password and
// registration flows, gluing the password provider, the ephemeral token
// store and the session manager together.
type authService struct {
	password    usecase.PasswordProvider
	registry    usecase.IdentityRegistry
	sessions    usecase.SessionManager
	tokenStore  service.TokenStore
	lock        service.LockService
	txManager   repository.TransactionManager
	userRepo    repository.UserRepository
	identities  repository.IdentityRepository
	hasher      service.PasswordHasher
	mailer      service.Mailer
	settings    service.SettingsService
	issuerURL   string
	registerTTL time.Duration
	resetTTL    time.Duration
	logger      *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(
	cfg *config.Config,
	password usecase.PasswordProvider,
	registry usecase.IdentityRegistry,
	sessions usecase.SessionManager,
	tokenStore service.TokenStore,
	lock service.LockService,
	txManager repository.TransactionManager,
	userRepo repository.UserRepository,
	identities repository.IdentityRepository,
	hasher service.PasswordHasher,
	mailer service.Mailer,
	settings service.SettingsService,
	logger *slog.Logger,
) usecase.AuthUsecase {
	registerTTL, resetTTL := defaultRegisterTTL, defaultResetTTL
	var issuerURL string
	if cfg.Token != nil {
		if cfg.Token.RegisterTTL > 0 {
			registerTTL = cfg.Token.RegisterTTL
		}
		if cfg.Token.ResetTTL > 0 {
			resetTTL = cfg.Token.ResetTTL
		}
	}
	if cfg.Issuer != nil {
		issuerURL = cfg.Issuer.URL
	}

	return &authService{
		password:    password,
		registry:    registry,
		sessions:    sessions,
		tokenStore:  tokenStore,
		lock:        lock,
		txManager:   txManager,
		userRepo:    userRepo,
		identities:  identities,
		hasher:      hasher,
		mailer:      mailer,
		settings:    settings,
		issuerURL:   issuerURL,
		registerTTL: registerTTL,
		resetTTL:    resetTTL,
		logger:      logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListMethods aggregates the sign-in methods of every registered provider.
func (srv *authService) ListMethods(ctx context.Context) ([]entity.AuthMethod, error) {
	return srv.registry.ListMethods(ctx)
}

// EmailInit pre-checks an email address before a password is collected.
func (srv *authService) EmailInit(ctx context.Context, email string) (*usecase.AuthResult, error) {
	email = normalizeEmail(email)

	token, err := srv.password.PreCheck(ctx, email)
	if err != nil {
		return nil, err
	}

	switch t := token.(type) {
	case nil:
		return &usecase.AuthResult{Kind: usecase.AuthResultLogin}, nil
	case entity.RegisterToken:
		opaque, err := srv.tokenStore.Create(ctx, service.TokenTypeRegister, t, srv.registerTTL)
		if err != nil {
			return nil, errors.Wrap(err, "mint register token")
		}

		settings, err := srv.settings.Auth(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "read auth settings")
		}
		if settings.ValidateEmail {
			// The token only reaches the user through their mailbox;
			// possession later proves control of the address.
			srv.sendMail(ctx, email, "Confirm your registration",
				fmt.Sprintf("Complete your registration: %s/auth/register?token=%s", srv.issuerURL, opaque))

			return &usecase.AuthResult{Kind: usecase.AuthResultRegister}, nil
		}

		return &usecase.AuthResult{Kind: usecase.AuthResultRegister, Token: opaque}, nil
	default:
		return nil, errors.Errorf("unexpected auth token %T from pre-check", token)
	}
}

// EmailLogin authenticates email+password and mints a session.
func (srv *authService) EmailLogin(ctx context.Context, input usecase.EmailLoginInput) (*usecase.AuthResult, error) {
	token, err := srv.password.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	session, ok := token.(entity.SessionToken)
	if !ok {
		return nil, errors.Errorf("unexpected auth token %T from password authenticate", token)
	}

	tokens, err := srv.sessions.CreateSession(ctx, usecase.CreateSessionInput{
		UserID: session.UserID,
		IP:     input.IP,
	})
	if err != nil {
		return nil, err
	}

	return &usecase.AuthResult{Kind: usecase.AuthResultSession, Session: tokens}, nil
}

// VerifyEmailToken validates an emailed register token and returns its payload.
func (srv *authService) VerifyEmailToken(ctx context.Context, token string) (*entity.RegisterToken, error) {
	return srv.GetRegisterToken(ctx, token)
}

// GetRegisterToken validates a register token and returns its payload so the
// registration form can be pre-filled.
func (srv *authService) GetRegisterToken(ctx context.Context, token string) (*entity.RegisterToken, error) {
	var payload entity.RegisterToken
	if err := srv.tokenStore.Lookup(ctx, service.TokenTypeRegister, token, &payload); err != nil {
		return nil, errors.Wrap(domainerrors.ErrTokenInvalid, "register token rejected")
	}

	return &payload, nil
}

// RequestPasswordReset mints a reset token and emails it. The response is
// identical whether or not the address exists.
func (srv *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	identity, err := srv.identities.FindByProvider(ctx, entity.ProviderEmail, email)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			srv.log(ctx).Debug("Password reset for unknown address", slog.String("email", email))

			return nil
		}

		return errors.Wrap(err, "find email identity")
	}

	token, err := srv.tokenStore.Create(ctx, service.TokenTypeReset, entity.ResetPasswordToken{
		UserID:    identity.UserID,
		CreatedAt: time.Now(),
	}, srv.resetTTL)
	if err != nil {
		return errors.Wrap(err, "mint reset token")
	}

	srv.sendMail(ctx, email, "Reset your password",
		fmt.Sprintf("Reset your password: %s/auth/reset?token=%s", srv.issuerURL, token))

	return nil
}

// ResetPassword consumes a reset token under a lease, stores the new digest
// and revokes every standing session of the user. Two concurrent submissions
// of the same token cannot both succeed.
func (srv *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	leaseKey := srv.tokenStore.LeaseKey(service.TokenTypeReset, token)

	err := srv.lock.WithLease(ctx, leaseKey, func(ctx context.Context) error {
		var payload entity.ResetPasswordToken
		if err := srv.tokenStore.Lookup(ctx, service.TokenTypeReset, token, &payload); err != nil {
			return errors.Wrap(domainerrors.ErrTokenRevoked, "reset token rejected")
		}

		digest, err := srv.hasher.Hash(newPassword)
		if err != nil {
			return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
		}

		if err := srv.identities.UpdateSecretData(ctx, payload.UserID, entity.ProviderEmail, digest); err != nil {
			if errors.Is(err, repository.ErrIdentityNotFound) {
				return errors.Wrap(domainerrors.ErrIdentityNotFound, "email identity missing")
			}

			return errors.Wrap(err, "store new password digest")
		}

		if err := srv.tokenStore.Invalidate(ctx, service.TokenTypeReset, token); err != nil {
			return errors.Wrap(domainerrors.ErrTokenRevoked, "reset token already consumed")
		}

		srv.log(ctx).Info("Password reset", slog.Any("user_id", payload.UserID))

		return srv.sessions.RevokeUserSessions(ctx, payload.UserID, nil)
	})
	if errors.Is(err, service.ErrLeaseHeld) {
		return errors.Wrap(domainerrors.ErrTokenRevoked, "reset already in progress")
	}

	return err
}

// ChangePassword verifies the old password, stores the new digest and
// revokes every other session of the user, keeping the caller's own.
func (srv *authService) ChangePassword(ctx context.Context, userID, sessionID uuid.UUID, oldPassword, newPassword string) error {
	identity, err := srv.identities.FindByUserProvider(ctx, userID, entity.ProviderEmail)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			return errors.Wrap(domainerrors.ErrIdentityNotFound, "no password identity")
		}

		return errors.Wrap(err, "find email identity")
	}

	ok, err := srv.hasher.Verify(oldPassword, identity.SecretData)
	if err != nil {
		return errors.Wrap(domainerrors.ErrInternalError, "verify password digest")
	}
	if !ok {
		return errors.Wrap(domainerrors.ErrInvalidCredentials, "old password mismatch")
	}

	digest, err := srv.hasher.Hash(newPassword)
	if err != nil {
		return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}
	if err := srv.identities.UpdateSecretData(ctx, userID, entity.ProviderEmail, digest); err != nil {
		return errors.Wrap(err, "store new password digest")
	}

	srv.log(ctx).Info("Password changed", slog.Any("user_id", userID))

	return srv.sessions.RevokeUserSessions(ctx, userID, &sessionID)
}

// FinishRegistration consumes a register token under a lease, creates the
// user with its identities in one transaction and mints a first session.
func (srv *authService) FinishRegistration(ctx context.Context, input usecase.FinishRegistrationInput) (*usecase.AuthResult, error) {
	leaseKey := srv.tokenStore.LeaseKey(service.TokenTypeRegister, input.Token)

	var user entity.User
	err := srv.lock.WithLease(ctx, leaseKey, func(ctx context.Context) error {
		var payload entity.RegisterToken
		if err := srv.tokenStore.Lookup(ctx, service.TokenTypeRegister, input.Token, &payload); err != nil {
			return errors.Wrap(domainerrors.ErrTokenInvalid, "register token rejected")
		}

		settings, err := srv.settings.Auth(ctx)
		if err != nil {
			return errors.Wrap(err, "read auth settings")
		}

		email, hasEmail := payload.EmailIdentity()
		if hasEmail {
			if settings.ValidateEmail && !payload.HasFlag(entity.FlagEmailVerified) {
				return errors.Wrap(domainerrors.ErrForbidden, "email not verified")
			}
			if email.SecretData == "" && input.Password == "" {
				return errors.Wrap(domainerrors.ErrValidationFailed, "password required")
			}
		}

		user = entity.User{
			Name:  input.Name,
			Email: normalizeEmail(input.Email),
			Roles: payload.Roles,
		}
		if hasEmail {
			user.Email = email.ProviderID
		}
		if user.Email == "" {
			return errors.Wrap(domainerrors.ErrValidationFailed, "email required")
		}

		if err := srv.createUserWithIdentities(ctx, &user, payload.Identities, input.Password); err != nil {
			return err
		}

		if err := srv.tokenStore.Invalidate(ctx, service.TokenTypeRegister, input.Token); err != nil {
			return errors.Wrap(domainerrors.ErrTokenRevoked, "register token already consumed")
		}

		return nil
	})
	if errors.Is(err, service.ErrLeaseHeld) {
		return nil, errors.Wrap(domainerrors.ErrTokenRevoked, "registration already in progress")
	}
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User registered", slog.Any("user_id", user.ID), slog.String("name", user.Name))

	tokens, err := srv.sessions.CreateSession(ctx, usecase.CreateSessionInput{
		UserID: user.ID,
		IP:     input.IP,
	})
	if err != nil {
		return nil, err
	}

	return &usecase.AuthResult{Kind: usecase.AuthResultSession, Session: tokens}, nil
}

// createUserWithIdentities inserts the user row and every pending identity
// atomically. The password is hashed here, at consumption time, so the
// register token never carries a usable digest for the email identity.
func (srv *authService) createUserWithIdentities(ctx context.Context, user *entity.User, pending []entity.PendingIdentity, password string) error {
	return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()
		identityRepo := repoFactory.NewIdentityRepository()

		if err := userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrUserConflict) {
				return errors.Wrap(domainerrors.ErrUserAlreadyExists, "name or email taken")
			}

			return errors.Wrap(err, "create user")
		}

		for _, identity := range pending {
			secret := identity.SecretData
			if identity.Provider == entity.ProviderEmail && password != "" {
				digest, err := srv.hasher.Hash(password)
				if err != nil {
					return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
				}
				secret = digest
			}

			record := &entity.Identity{
				UserID:     user.ID,
				Provider:   identity.Provider,
				ProviderID: identity.ProviderID,
				SecretData: secret,
			}
			if err := identityRepo.Create(ctx, record); err != nil {
				if errors.Is(err, repository.ErrIdentityConflict) {
					return errors.Wrap(domainerrors.ErrIdentityAlreadyLinked, "identity already bound")
				}

				return errors.Wrap(err, "create identity")
			}
		}

		return nil
	})
}

// Associate consumes an associate token under a lease and links its
// identities to the authenticated user. Standing sessions are left alone;
// linking an identity requires an authenticated principal, which is
// considered proof enough.
func (srv *authService) Associate(ctx context.Context, userID uuid.UUID, token string) error {
	leaseKey := srv.tokenStore.LeaseKey(service.TokenTypeAssociate, token)

	err := srv.lock.WithLease(ctx, leaseKey, func(ctx context.Context) error {
		var payload entity.AssociateToken
		if err := srv.tokenStore.Lookup(ctx, service.TokenTypeAssociate, token, &payload); err != nil {
			return errors.Wrap(domainerrors.ErrTokenInvalid, "associate token rejected")
		}
		if payload.UserID != userID {
			return errors.Wrap(domainerrors.ErrForbidden, "associate token minted for another user")
		}

		for _, identity := range payload.Identities {
			record := &entity.Identity{
				UserID:     userID,
				Provider:   identity.Provider,
				ProviderID: identity.ProviderID,
				SecretData: identity.SecretData,
			}
			if err := srv.identities.Create(ctx, record); err != nil {
				if errors.Is(err, repository.ErrIdentityConflict) {
					return errors.Wrap(domainerrors.ErrIdentityAlreadyLinked, "identity already bound")
				}

				return errors.Wrap(err, "create identity")
			}
		}

		if err := srv.tokenStore.Invalidate(ctx, service.TokenTypeAssociate, token); err != nil {
			return errors.Wrap(domainerrors.ErrTokenRevoked, "associate token already consumed")
		}

		srv.log(ctx).Info("Identities associated", slog.Any("user_id", userID))

		return nil
	})
	if errors.Is(err, service.ErrLeaseHeld) {
		return errors.Wrap(domainerrors.ErrTokenRevoked, "association already in progress")
	}

	return err
}

// sendMail delivers a transactional mail without failing the caller's flow.
func (srv *authService) sendMail(ctx context.Context, to, subject, body string) {
	if err := srv.mailer.Send(ctx, service.Mail{To: to, Subject: subject, Body: body}); err != nil {
		srv.log(ctx).Error("Failed to send mail", slog.String("to", to), slog.Any("error", err))
	}
}
