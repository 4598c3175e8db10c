package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/infra/persistence/model"
)

// sessionRepository implements the domain.SessionRepository interface using GORM.
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository is the constructor for sessionRepository.
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Create persists a new session.
func (repo *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	sessionM := fromSessionDomain(session)
	if sessionM.RefreshedAt.IsZero() {
		sessionM.RefreshedAt = time.Now()
	}

	if err := repo.db.WithContext(ctx).Create(sessionM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create session")
	}

	session.ID = sessionM.ID
	session.CreatedAt = sessionM.CreatedAt
	session.RefreshedAt = sessionM.RefreshedAt

	return nil
}

// FindByID retrieves a session by its unique ID.
func (repo *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var sessionM model.SessionModel
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&sessionM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to find session by id")
	}

	return toSessionDomain(&sessionM), nil
}

// FindByRefreshTokenHash retrieves a session by its stored refresh token hash.
func (repo *sessionRepository) FindByRefreshTokenHash(ctx context.Context, hash string) (*entity.Session, error) {
	var sessionM model.SessionModel
	err := repo.db.WithContext(ctx).
		Where("refresh_token_hash = ?", hash).
		First(&sessionM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to find session by refresh token hash")
	}

	return toSessionDomain(&sessionM), nil
}

// RotateRefreshToken atomically swaps the refresh token hash of an active
// session. The WHERE clause carries the old hash and the liveness checks, so
// two concurrent rotations of the same token can never both succeed.
func (repo *sessionRepository) RotateRefreshToken(ctx context.Context, oldHash, newHash string) (*entity.Session, error) {
	now := time.Now()

	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("refresh_token_hash = ?", oldHash).
		Where("revoked_at IS NULL").
		Where("expires_at IS NULL OR expires_at > ?", now).
		Updates(map[string]any{
			"refresh_token_hash": newHash,
			"refreshed_at":       now,
		})
	if result.Error != nil {
		return nil, domainerrors.NewDatabaseExecuteError(result.Error, "failed to rotate refresh token")
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrSessionNotFound
	}

	return repo.FindByRefreshTokenHash(ctx, newHash)
}

// Revoke marks a single session as revoked and clears its refresh token hash.
func (repo *sessionRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("id = ?", id).
		Where("revoked_at IS NULL").
		Updates(map[string]any{
			"revoked_at":         time.Now(),
			"refresh_token_hash": "",
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to revoke session")
	}
	if result.RowsAffected == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

// RevokeAllByUser revokes every active session of a user, optionally sparing
// one session. Revoking zero sessions is not an error.
func (repo *sessionRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID, exceptSessionID *uuid.UUID) error {
	query := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL")
	if exceptSessionID != nil {
		query = query.Where("id <> ?", *exceptSessionID)
	}

	err := query.Updates(map[string]any{
		"revoked_at":         time.Now(),
		"refresh_token_hash": "",
	}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to revoke user sessions")
	}

	return nil
}

// ListByUser retrieves a user's sessions, newest first.
func (repo *sessionRepository) ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*entity.Session, error) {
	query := repo.db.WithContext(ctx).
		Where("user_id = ?", userID)
	if activeOnly {
		query = query.
			Where("revoked_at IS NULL").
			Where("expires_at IS NULL OR expires_at > ?", time.Now())
	}

	var sessionMs []model.SessionModel
	if err := query.Order("created_at DESC").Find(&sessionMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list sessions by user")
	}

	sessions := make([]*entity.Session, 0, len(sessionMs))
	for i := range sessionMs {
		sessions = append(sessions, toSessionDomain(&sessionMs[i]))
	}

	return sessions, nil
}

// toSessionDomain converts a GORM SessionModel to a domain Session entity.
func toSessionDomain(data *model.SessionModel) *entity.Session {
	if data == nil {
		return nil
	}

	return &entity.Session{
		ID:               data.ID,
		UserID:           data.UserID,
		AppID:            data.AppID,
		RefreshTokenHash: data.RefreshTokenHash,
		Scopes:           data.Scopes,
		IP:               data.IP,
		CreatedAt:        data.CreatedAt,
		RefreshedAt:      data.RefreshedAt,
		ExpiresAt:        data.ExpiresAt,
		RevokedAt:        data.RevokedAt,
	}
}

// fromSessionDomain converts a domain Session entity to a GORM SessionModel.
func fromSessionDomain(data *entity.Session) *model.SessionModel {
	if data == nil {
		return nil
	}

	return &model.SessionModel{
		ID:               data.ID,
		UserID:           data.UserID,
		AppID:            data.AppID,
		RefreshTokenHash: data.RefreshTokenHash,
		Scopes:           data.Scopes,
		IP:               data.IP,
		RefreshedAt:      data.RefreshedAt,
		ExpiresAt:        data.ExpiresAt,
		RevokedAt:        data.RevokedAt,
	}
}
