package postgres

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/infra/persistence/model"
)

// oauthProviderRepository implements the domain.OAuthProviderRepository interface using GORM.
type oauthProviderRepository struct {
	db *gorm.DB
}

// NewOAuthProviderRepository is the constructor for oauthProviderRepository.
func NewOAuthProviderRepository(db *gorm.DB) repository.OAuthProviderRepository {
	return &oauthProviderRepository{db: db}
}

// Create persists a new provider configuration.
func (repo *oauthProviderRepository) Create(ctx context.Context, provider *entity.OAuthProvider) error {
	providerM := fromOAuthProviderDomain(provider)

	if err := repo.db.WithContext(ctx).Create(providerM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create oauth provider")
	}

	provider.ID = providerM.ID
	provider.CreatedAt = providerM.CreatedAt
	provider.UpdatedAt = providerM.UpdatedAt

	return nil
}

// FindEnabledByName retrieves an enabled provider by name.
func (repo *oauthProviderRepository) FindEnabledByName(ctx context.Context, name string) (*entity.OAuthProvider, error) {
	var providerM model.OAuthProviderModel
	err := repo.db.WithContext(ctx).
		Where("name = ? AND is_enabled", name).
		First(&providerM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOAuthProviderNotFound
		}

		return nil, errors.Wrap(err, "failed to find oauth provider by name")
	}

	return toOAuthProviderDomain(&providerM), nil
}

// ListEnabled retrieves every enabled provider.
func (repo *oauthProviderRepository) ListEnabled(ctx context.Context) ([]*entity.OAuthProvider, error) {
	var providerMs []model.OAuthProviderModel
	err := repo.db.WithContext(ctx).
		Where("is_enabled").
		Order("name ASC").
		Find(&providerMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list enabled oauth providers")
	}

	providers := make([]*entity.OAuthProvider, 0, len(providerMs))
	for i := range providerMs {
		providers = append(providers, toOAuthProviderDomain(&providerMs[i]))
	}

	return providers, nil
}

// toOAuthProviderDomain converts a GORM OAuthProviderModel to a domain entity.
func toOAuthProviderDomain(data *model.OAuthProviderModel) *entity.OAuthProvider {
	if data == nil {
		return nil
	}

	return &entity.OAuthProvider{
		ID:                    data.ID,
		Name:                  data.Name,
		ClientID:              data.ClientID,
		ClientSecret:          data.ClientSecret,
		AuthorizeURL:          data.AuthorizeURL,
		TokenURL:              data.TokenURL,
		InfoURL:               data.InfoURL,
		InfoIDProperty:        data.InfoIDProperty,
		ImageSrc:              data.ImageSrc,
		IsRegistrationEnabled: data.IsRegistrationEnabled,
		IsEnabled:             data.IsEnabled,
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
	}
}

// fromOAuthProviderDomain converts a domain entity to a GORM OAuthProviderModel.
func fromOAuthProviderDomain(data *entity.OAuthProvider) *model.OAuthProviderModel {
	if data == nil {
		return nil
	}

	return &model.OAuthProviderModel{
		ID:                    data.ID,
		Name:                  data.Name,
		ClientID:              data.ClientID,
		ClientSecret:          data.ClientSecret,
		AuthorizeURL:          data.AuthorizeURL,
		TokenURL:              data.TokenURL,
		InfoURL:               data.InfoURL,
		InfoIDProperty:        data.InfoIDProperty,
		ImageSrc:              data.ImageSrc,
		IsRegistrationEnabled: data.IsRegistrationEnabled,
		IsEnabled:             data.IsEnabled,
	}
}
