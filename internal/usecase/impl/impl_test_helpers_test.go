package impl

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gatehouse/config"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
	"gatehouse/internal/infra/cache"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		RootSecret: "0123456789abcdef0123456789abcdef",
		Issuer:     &config.IssuerConfig{URL: "https://auth.example.com"},
		Token: &config.TokenConfig{
			AccessTTL:   15 * time.Minute,
			SessionTTL:  24 * time.Hour,
			IDTokenTTL:  time.Hour,
			RegisterTTL: time.Hour,
			ResetTTL:    time.Hour,
		},
		// Low scrypt cost keeps the hashing-heavy tests fast.
		Scrypt: &config.ScryptConfig{N: 1024, R: 8, P: 1},
	}
	cfg.SecretKey.Access = "test-access-secret"

	return cfg
}

// newTestRedis starts an in-process redis and returns the ephemeral infra
// built on it: cache, token store and lock service.
func newTestRedis(t *testing.T) (service.Cache, service.TokenStore, service.LockService) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewCache(client)

	return c, cache.NewTokenStore(c), cache.NewLockService(client, newDiscardLogger())
}

// --- In-memory fakes for the repository and service contracts. ---

type fakeIdentityRepo struct {
	mu         sync.Mutex
	identities []*entity.Identity
}

func (f *fakeIdentityRepo) Create(_ context.Context, identity *entity.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.identities {
		if existing.Provider == identity.Provider && existing.ProviderID == identity.ProviderID {
			return repository.ErrIdentityConflict
		}
		if existing.UserID == identity.UserID && existing.Provider == identity.Provider {
			return repository.ErrIdentityConflict
		}
	}

	stored := *identity
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.CreatedAt = time.Now()
	f.identities = append(f.identities, &stored)
	identity.ID = stored.ID

	return nil
}

func (f *fakeIdentityRepo) FindByProvider(_ context.Context, provider, providerID string) (*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, identity := range f.identities {
		if identity.Provider == provider && identity.ProviderID == providerID {
			found := *identity

			return &found, nil
		}
	}

	return nil, repository.ErrIdentityNotFound
}

func (f *fakeIdentityRepo) FindByUserProvider(_ context.Context, userID uuid.UUID, provider string) (*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, identity := range f.identities {
		if identity.UserID == userID && identity.Provider == provider {
			found := *identity

			return &found, nil
		}
	}

	return nil, repository.ErrIdentityNotFound
}

func (f *fakeIdentityRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*entity.Identity
	for _, identity := range f.identities {
		if identity.UserID == userID {
			found := *identity
			out = append(out, &found)
		}
	}

	return out, nil
}

func (f *fakeIdentityRepo) UpdateSecretData(_ context.Context, userID uuid.UUID, provider, secretData string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, identity := range f.identities {
		if identity.UserID == userID && identity.Provider == provider {
			identity.SecretData = secretData
			identity.UpdatedAt = time.Now()

			return nil
		}
	}

	return repository.ErrIdentityNotFound
}

func (f *fakeIdentityRepo) Delete(_ context.Context, userID uuid.UUID, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, identity := range f.identities {
		if identity.UserID == userID && identity.Provider == provider {
			f.identities = append(f.identities[:i], f.identities[i+1:]...)

			return nil
		}
	}

	return repository.ErrIdentityNotFound
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.Name == user.Name || existing.Email == user.Email {
			return repository.ErrUserConflict
		}
	}

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	stored := *user
	f.users[user.ID] = &stored

	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	found := *user

	return &found, nil
}

func (f *fakeUserRepo) UpdateEmail(_ context.Context, id uuid.UUID, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Email = email

	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*entity.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, session *entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	stored := *session
	f.sessions[session.ID] = &stored

	return nil
}

func (f *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	found := *session

	return &found, nil
}

func (f *fakeSessionRepo) FindByRefreshTokenHash(_ context.Context, hash string) (*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.findByHashLocked(hash)
}

func (f *fakeSessionRepo) findByHashLocked(hash string) (*entity.Session, error) {
	for _, session := range f.sessions {
		if session.RefreshTokenHash == hash && hash != "" {
			found := *session

			return &found, nil
		}
	}

	return nil, repository.ErrSessionNotFound
}

func (f *fakeSessionRepo) RotateRefreshToken(_ context.Context, oldHash, newHash string) (*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, session := range f.sessions {
		if session.RefreshTokenHash == oldHash && oldHash != "" && session.Active(time.Now()) {
			session.RefreshTokenHash = newHash
			session.RefreshedAt = time.Now()
			found := *session

			return &found, nil
		}
	}

	return nil, repository.ErrSessionNotFound
}

func (f *fakeSessionRepo) Revoke(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[id]
	if !ok || session.RevokedAt != nil {
		return repository.ErrSessionNotFound
	}
	now := time.Now()
	session.RevokedAt = &now
	session.RefreshTokenHash = ""

	return nil
}

func (f *fakeSessionRepo) RevokeAllByUser(_ context.Context, userID uuid.UUID, exceptSessionID *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	for _, session := range f.sessions {
		if session.UserID != userID || session.RevokedAt != nil {
			continue
		}
		if exceptSessionID != nil && session.ID == *exceptSessionID {
			continue
		}
		revoked := now
		session.RevokedAt = &revoked
		session.RefreshTokenHash = ""
	}

	return nil
}

func (f *fakeSessionRepo) ListByUser(_ context.Context, userID uuid.UUID, activeOnly bool) ([]*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*entity.Session
	for _, session := range f.sessions {
		if session.UserID != userID {
			continue
		}
		if activeOnly && !session.Active(time.Now()) {
			continue
		}
		found := *session
		out = append(out, &found)
	}

	return out, nil
}

type fakeAppRepo struct {
	apps []*entity.App
}

func (f *fakeAppRepo) Create(_ context.Context, app *entity.App) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	stored := *app
	f.apps = append(f.apps, &stored)

	return nil
}

func (f *fakeAppRepo) FindEnabledByClientID(_ context.Context, clientID string) (*entity.App, error) {
	for _, app := range f.apps {
		if app.ClientID == clientID && app.Enabled {
			found := *app

			return &found, nil
		}
	}

	return nil, repository.ErrAppNotFound
}

type fakeSettings struct {
	settings entity.AuthSettings
}

func (f *fakeSettings) Auth(context.Context) (*entity.AuthSettings, error) {
	settings := f.settings

	return &settings, nil
}

type fakeConfigRepo struct {
	mu      sync.Mutex
	entries map[string]*entity.ConfigEntry
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{entries: make(map[string]*entity.ConfigEntry)}
}

func (f *fakeConfigRepo) Get(_ context.Context, namespace string) (*entity.ConfigEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[namespace]
	if !ok {
		return nil, repository.ErrConfigNotFound
	}
	found := *entry

	return &found, nil
}

func (f *fakeConfigRepo) CreateIfAbsent(_ context.Context, namespace string, value json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[namespace]; ok {
		return nil
	}
	f.entries[namespace] = &entity.ConfigEntry{
		Namespace: namespace,
		Value:     value,
		Version:   1,
		UpdatedAt: time.Now(),
	}

	return nil
}

func (f *fakeConfigRepo) Update(_ context.Context, namespace string, value json.RawMessage, expectedVersion uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[namespace]
	if !ok || entry.Version != expectedVersion {
		return repository.ErrConfigVersionConflict
	}
	entry.Value = value
	entry.Version++
	entry.UpdatedAt = time.Now()

	return nil
}

// fakeTxManager runs the callback against the shared fakes with no real
// transaction semantics.
type fakeTxManager struct {
	users      repository.UserRepository
	identities repository.IdentityRepository
	sessions   repository.SessionRepository
}

func (f *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(f)
}

func (f *fakeTxManager) NewUserRepository() repository.UserRepository         { return f.users }
func (f *fakeTxManager) NewIdentityRepository() repository.IdentityRepository { return f.identities }
func (f *fakeTxManager) NewSessionRepository() repository.SessionRepository   { return f.sessions }

type fakeMailer struct {
	mu    sync.Mutex
	mails []service.Mail
}

func (f *fakeMailer) Send(_ context.Context, mail service.Mail) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mails = append(f.mails, mail)

	return nil
}

func (f *fakeMailer) sent() []service.Mail {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]service.Mail(nil), f.mails...)
}

type fakeOAuthConfig struct {
	providers map[string]*entity.OAuthProvider
}

func (f *fakeOAuthConfig) GetProvider(_ context.Context, name string) (*entity.OAuthProvider, error) {
	provider, ok := f.providers[name]
	if !ok {
		// The contract surfaces the domain error, not the repository
		// sentinel; the real implementation translates at the store edge.
		return nil, errors.Wrap(domainerrors.ErrOAuthProviderNotFound, "unknown provider "+name)
	}
	found := *provider

	return &found, nil
}

func (f *fakeOAuthConfig) ListEnabled(context.Context) ([]*entity.OAuthProvider, error) {
	var out []*entity.OAuthProvider
	for _, provider := range f.providers {
		found := *provider
		out = append(out, &found)
	}

	return out, nil
}

func (f *fakeOAuthConfig) InvalidateCache(context.Context, string) error { return nil }

type fakeIDTokenIssuer struct{}

func (fakeIDTokenIssuer) Issue(_ context.Context, userID uuid.UUID, clientID string) (string, error) {
	return "idtoken-" + userID.String() + "-" + clientID, nil
}
