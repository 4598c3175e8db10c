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

// appRepository implements the domain.AppRepository interface using GORM.
type appRepository struct {
	db *gorm.DB
}

// NewAppRepository is the constructor for appRepository.
func NewAppRepository(db *gorm.DB) repository.AppRepository {
	return &appRepository{db: db}
}

// Create persists a new client application.
func (repo *appRepository) Create(ctx context.Context, app *entity.App) error {
	appM := fromAppDomain(app)

	if err := repo.db.WithContext(ctx).Create(appM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create app")
	}

	app.ID = appM.ID
	app.CreatedAt = appM.CreatedAt
	app.UpdatedAt = appM.UpdatedAt

	return nil
}

// FindEnabledByClientID retrieves an enabled application by its public client
// identifier. Disabled applications are treated as absent.
func (repo *appRepository) FindEnabledByClientID(ctx context.Context, clientID string) (*entity.App, error) {
	var appM model.AppModel
	err := repo.db.WithContext(ctx).
		Where("client_id = ? AND enabled", clientID).
		First(&appM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAppNotFound
		}

		return nil, errors.Wrap(err, "failed to find app by client id")
	}

	return toAppDomain(&appM), nil
}

// toAppDomain converts a GORM AppModel to a domain App entity.
func toAppDomain(data *model.AppModel) *entity.App {
	if data == nil {
		return nil
	}

	return &entity.App{
		ID:               data.ID,
		Name:             data.Name,
		ClientID:         data.ClientID,
		ClientSecretHash: data.ClientSecretHash,
		RedirectURIs:     data.RedirectURIs,
		Scopes:           data.Scopes,
		Enabled:          data.Enabled,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}

// fromAppDomain converts a domain App entity to a GORM AppModel.
func fromAppDomain(data *entity.App) *model.AppModel {
	if data == nil {
		return nil
	}

	return &model.AppModel{
		ID:               data.ID,
		Name:             data.Name,
		ClientID:         data.ClientID,
		ClientSecretHash: data.ClientSecretHash,
		RedirectURIs:     data.RedirectURIs,
		Scopes:           data.Scopes,
		Enabled:          data.Enabled,
	}
}
