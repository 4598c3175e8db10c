package impl

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
	"gatehouse/internal/infra/auth"
	"gatehouse/internal/usecase"
)

func newPasswordFixture(t *testing.T, settings entity.AuthSettings) (usecase.PasswordProvider, *fakeIdentityRepo, service.PasswordHasher) {
	t.Helper()

	identityRepo := &fakeIdentityRepo{}
	hasher := auth.NewScryptHasher(newTestConfig())
	provider := NewPasswordProvider(identityRepo, hasher, &fakeSettings{settings: settings}, newDiscardLogger())

	return provider, identityRepo, hasher
}

func allOpenSettings() entity.AuthSettings {
	return entity.AuthSettings{
		EnableLoginPassword:    true,
		EnableRegisterPassword: true,
		EnableOAuth:            true,
	}
}

func seedEmailIdentity(t *testing.T, repo *fakeIdentityRepo, hasher service.PasswordHasher, email, password string) uuid.UUID {
	t.Helper()

	digest := ""
	if password != "" {
		var err error
		digest, err = hasher.Hash(password)
		require.NoError(t, err)
	}

	userID := uuid.New()
	require.NoError(t, repo.Create(context.Background(), &entity.Identity{
		UserID:     userID,
		Provider:   entity.ProviderEmail,
		ProviderID: email,
		SecretData: digest,
	}))

	return userID
}

func TestPasswordProvider_ListMethods(t *testing.T) {
	provider, _, _ := newPasswordFixture(t, allOpenSettings())

	methods, err := provider.ListMethods(context.Background())
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, entity.ProviderEmail, methods[0].Provider)
}

func TestPasswordProvider_ListMethodsDisabled(t *testing.T) {
	settings := allOpenSettings()
	settings.EnableLoginPassword = false
	provider, _, _ := newPasswordFixture(t, settings)

	methods, err := provider.ListMethods(context.Background())
	require.NoError(t, err)
	assert.Empty(t, methods)
}

func TestPasswordProvider_PreCheckUnknownAddressStartsRegistration(t *testing.T) {
	provider, _, _ := newPasswordFixture(t, allOpenSettings())

	token, err := provider.PreCheck(context.Background(), "new@example.com")
	require.NoError(t, err)

	register, ok := token.(entity.RegisterToken)
	require.True(t, ok, "expected a register token, got %T", token)
	require.Len(t, register.Identities, 1)
	assert.Equal(t, entity.ProviderEmail, register.Identities[0].Provider)
	assert.Equal(t, "new@example.com", register.Identities[0].ProviderID)
	// Without email validation the token is handed straight back, so it
	// must not claim the address was verified.
	assert.False(t, register.HasFlag(entity.FlagEmailVerified))
}

func TestPasswordProvider_PreCheckMarksEmailVerifiedUnderValidation(t *testing.T) {
	settings := allOpenSettings()
	settings.ValidateEmail = true
	provider, _, _ := newPasswordFixture(t, settings)

	token, err := provider.PreCheck(context.Background(), "new@example.com")
	require.NoError(t, err)

	register, ok := token.(entity.RegisterToken)
	require.True(t, ok)
	assert.True(t, register.HasFlag(entity.FlagEmailVerified))
}

func TestPasswordProvider_PreCheckKnownAddressProceedsToLogin(t *testing.T) {
	provider, repo, hasher := newPasswordFixture(t, allOpenSettings())
	seedEmailIdentity(t, repo, hasher, "known@example.com", "hunter2!")

	token, err := provider.PreCheck(context.Background(), "known@example.com")
	require.NoError(t, err)
	assert.Nil(t, token)
}

func TestPasswordProvider_PreCheckLoginDisabled(t *testing.T) {
	settings := allOpenSettings()
	settings.EnableLoginPassword = false
	provider, _, _ := newPasswordFixture(t, settings)

	_, err := provider.PreCheck(context.Background(), "anyone@example.com")
	assert.True(t, errors.Is(err, domainerrors.ErrAuthMethodDisabled))
}

func TestPasswordProvider_PreCheckRegistrationClosed(t *testing.T) {
	settings := allOpenSettings()
	settings.EnableRegisterPassword = false
	provider, _, _ := newPasswordFixture(t, settings)

	_, err := provider.PreCheck(context.Background(), "new@example.com")
	assert.True(t, errors.Is(err, domainerrors.ErrRegistrationDisabled))
}

func TestPasswordProvider_PreCheckDomainNotAllowed(t *testing.T) {
	settings := allOpenSettings()
	settings.AllowedEmailDomains = []string{"corp.example.com"}
	provider, _, _ := newPasswordFixture(t, settings)

	_, err := provider.PreCheck(context.Background(), "outsider@gmail.com")
	assert.True(t, errors.Is(err, domainerrors.ErrRegistrationDisabled))

	token, err := provider.PreCheck(context.Background(), "insider@corp.example.com")
	require.NoError(t, err)
	assert.IsType(t, entity.RegisterToken{}, token)
}

func TestPasswordProvider_PreCheckIdentityWithoutDigest(t *testing.T) {
	provider, repo, hasher := newPasswordFixture(t, allOpenSettings())
	// An identity created through OAuth association carries no digest.
	seedEmailIdentity(t, repo, hasher, "oauth-only@example.com", "")

	_, err := provider.PreCheck(context.Background(), "oauth-only@example.com")
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestPasswordProvider_Authenticate(t *testing.T) {
	provider, repo, hasher := newPasswordFixture(t, allOpenSettings())
	userID := seedEmailIdentity(t, repo, hasher, "known@example.com", "hunter2!")

	token, err := provider.Authenticate(context.Background(), "known@example.com", "hunter2!")
	require.NoError(t, err)

	session, ok := token.(entity.SessionToken)
	require.True(t, ok, "expected a session token, got %T", token)
	assert.Equal(t, userID, session.UserID)
}

func TestPasswordProvider_EmailAddressesAreCaseInsensitive(t *testing.T) {
	provider, repo, hasher := newPasswordFixture(t, allOpenSettings())
	userID := seedEmailIdentity(t, repo, hasher, "user@example.com", "hunter2!")

	// A differently-cased address must resolve to the stored identity, not
	// look like a fresh registration.
	token, err := provider.PreCheck(context.Background(), "User@Example.com")
	require.NoError(t, err)
	assert.Nil(t, token)

	token, err = provider.Authenticate(context.Background(), " User@Example.com ", "hunter2!")
	require.NoError(t, err)
	session, ok := token.(entity.SessionToken)
	require.True(t, ok, "expected a session token, got %T", token)
	assert.Equal(t, userID, session.UserID)
}

func TestPasswordProvider_PreCheckStoresNormalizedAddress(t *testing.T) {
	provider, _, _ := newPasswordFixture(t, allOpenSettings())

	token, err := provider.PreCheck(context.Background(), "New@Example.com")
	require.NoError(t, err)

	register, ok := token.(entity.RegisterToken)
	require.True(t, ok, "expected a register token, got %T", token)
	email, hasEmail := register.EmailIdentity()
	require.True(t, hasEmail)
	assert.Equal(t, "new@example.com", email.ProviderID)
}

func TestPasswordProvider_AuthenticateDoesNotRevealAccountExistence(t *testing.T) {
	provider, repo, hasher := newPasswordFixture(t, allOpenSettings())
	seedEmailIdentity(t, repo, hasher, "known@example.com", "hunter2!")

	// Wrong password for a known address and any password for an unknown
	// address must be indistinguishable.
	_, wrongPassword := provider.Authenticate(context.Background(), "known@example.com", "not-it")
	_, unknownAddress := provider.Authenticate(context.Background(), "nobody@example.com", "whatever")

	assert.True(t, errors.Is(wrongPassword, domainerrors.ErrInvalidCredentials))
	assert.True(t, errors.Is(unknownAddress, domainerrors.ErrInvalidCredentials))
}

func TestPasswordProvider_AuthenticateDisabled(t *testing.T) {
	settings := allOpenSettings()
	settings.EnableLoginPassword = false
	provider, repo, hasher := newPasswordFixture(t, allOpenSettings())
	seedEmailIdentity(t, repo, hasher, "known@example.com", "hunter2!")

	provider, _, _ = newPasswordFixture(t, settings)
	_, err := provider.Authenticate(context.Background(), "known@example.com", "hunter2!")
	assert.True(t, errors.Is(err, domainerrors.ErrAuthMethodDisabled))
}

func TestPasswordProvider_AuthenticateMalformedDigestIsInternal(t *testing.T) {
	provider, repo, _ := newPasswordFixture(t, allOpenSettings())
	require.NoError(t, repo.Create(context.Background(), &entity.Identity{
		UserID:     uuid.New(),
		Provider:   entity.ProviderEmail,
		ProviderID: "corrupt@example.com",
		SecretData: "not-a-digest",
	}))

	_, err := provider.Authenticate(context.Background(), "corrupt@example.com", "whatever")
	// Corruption must not be folded into "wrong password".
	assert.True(t, errors.Is(err, domainerrors.ErrInternalError))
}
