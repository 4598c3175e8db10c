package postgres

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/infra/persistence/model"
)

// configRepository implements the domain.ConfigRepository interface using GORM.
type configRepository struct {
	db *gorm.DB
}

// NewConfigRepository is the constructor for configRepository.
func NewConfigRepository(db *gorm.DB) repository.ConfigRepository {
	return &configRepository{db: db}
}

// Get retrieves the document for a namespace.
func (repo *configRepository) Get(ctx context.Context, namespace string) (*entity.ConfigEntry, error) {
	var configM model.ConfigModel
	err := repo.db.WithContext(ctx).
		Where("namespace = ?", namespace).
		First(&configM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrConfigNotFound
		}

		return nil, errors.Wrap(err, "failed to get config namespace")
	}

	return toConfigDomain(&configM), nil
}

// CreateIfAbsent registers a namespace with its default value. An existing
// namespace is left untouched, so boot-time default registration is
// idempotent and never clobbers admin edits.
func (repo *configRepository) CreateIfAbsent(ctx context.Context, namespace string, value json.RawMessage) error {
	configM := &model.ConfigModel{
		Namespace: namespace,
		Value:     datatypes.JSON(value),
		Version:   1,
	}

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}},
			DoNothing: true,
		}).
		Create(configM).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to register config namespace")
	}

	return nil
}

// Update replaces the document iff the stored version still matches
// expectedVersion. The version guard in the WHERE clause makes concurrent
// writers lose cleanly instead of silently overwriting each other.
func (repo *configRepository) Update(ctx context.Context, namespace string, value json.RawMessage, expectedVersion uint64) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ConfigModel{}).
		Where("namespace = ? AND version = ?", namespace, expectedVersion).
		Updates(map[string]any{
			"value":   datatypes.JSON(value),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update config namespace")
	}
	if result.RowsAffected == 0 {
		return repository.ErrConfigVersionConflict
	}

	return nil
}

// toConfigDomain converts a GORM ConfigModel to a domain ConfigEntry entity.
func toConfigDomain(data *model.ConfigModel) *entity.ConfigEntry {
	if data == nil {
		return nil
	}

	return &entity.ConfigEntry{
		Namespace: data.Namespace,
		Value:     json.RawMessage(data.Value),
		Version:   data.Version,
		UpdatedAt: data.UpdatedAt,
	}
}
