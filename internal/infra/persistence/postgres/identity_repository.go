package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/infra/persistence/model"
)

// identityRepository implements the domain.IdentityRepository interface using GORM.
type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository is the constructor for identityRepository.
func NewIdentityRepository(db *gorm.DB) repository.IdentityRepository {
	return &identityRepository{db: db}
}

// Create persists a new identity. Uniqueness violations on either the
// (provider, provider_id) or (user_id, provider) constraint surface as
// ErrIdentityConflict so the use case can distinguish "already linked" from
// a database failure.
func (repo *identityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	identityM := fromIdentityDomain(identity)

	if err := repo.db.WithContext(ctx).Create(identityM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrIdentityConflict
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create identity")
	}

	identity.ID = identityM.ID
	identity.CreatedAt = identityM.CreatedAt
	identity.UpdatedAt = identityM.UpdatedAt

	return nil
}

// FindByProvider retrieves an identity by its provider and provider-specific ID.
func (repo *identityRepository) FindByProvider(ctx context.Context, provider, providerID string) (*entity.Identity, error) {
	var identityM model.IdentityModel
	err := repo.db.WithContext(ctx).
		Where("provider = ? AND provider_id = ?", provider, providerID).
		First(&identityM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrIdentityNotFound
		}

		return nil, errors.Wrap(err, "failed to find identity by provider")
	}

	return toIdentityDomain(&identityM), nil
}

// FindByUserProvider retrieves the identity a user holds for the given provider.
func (repo *identityRepository) FindByUserProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.Identity, error) {
	var identityM model.IdentityModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&identityM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrIdentityNotFound
		}

		return nil, errors.Wrap(err, "failed to find identity by user and provider")
	}

	return toIdentityDomain(&identityM), nil
}

// ListByUser retrieves all identities linked to a user.
func (repo *identityRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Identity, error) {
	var identityMs []model.IdentityModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&identityMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list identities by user")
	}

	identities := make([]*entity.Identity, 0, len(identityMs))
	for i := range identityMs {
		identities = append(identities, toIdentityDomain(&identityMs[i]))
	}

	return identities, nil
}

// UpdateSecretData replaces the secret material of a user's identity.
func (repo *identityRepository) UpdateSecretData(ctx context.Context, userID uuid.UUID, provider, secretData string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.IdentityModel{}).
		Where("user_id = ? AND provider = ?", userID, provider).
		Update("secret_data", secretData)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update identity secret")
	}
	if result.RowsAffected == 0 {
		return repository.ErrIdentityNotFound
	}

	return nil
}

// Delete unlinks a provider from a user.
func (repo *identityRepository) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	result := repo.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&model.IdentityModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete identity")
	}
	if result.RowsAffected == 0 {
		return repository.ErrIdentityNotFound
	}

	return nil
}

// toIdentityDomain converts a GORM IdentityModel to a domain Identity entity.
func toIdentityDomain(data *model.IdentityModel) *entity.Identity {
	if data == nil {
		return nil
	}

	return &entity.Identity{
		ID:         data.ID,
		UserID:     data.UserID,
		Provider:   data.Provider,
		ProviderID: data.ProviderID,
		SecretData: data.SecretData,
		CreatedAt:  data.CreatedAt,
		UpdatedAt:  data.UpdatedAt,
	}
}

// fromIdentityDomain converts a domain Identity entity to a GORM IdentityModel.
func fromIdentityDomain(data *entity.Identity) *model.IdentityModel {
	if data == nil {
		return nil
	}

	return &model.IdentityModel{
		ID:         data.ID,
		UserID:     data.UserID,
		Provider:   data.Provider,
		ProviderID: data.ProviderID,
		SecretData: data.SecretData,
	}
}
