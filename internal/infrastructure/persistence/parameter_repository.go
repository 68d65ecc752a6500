package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormParameterRepository implements ParameterRepository using GORM
type GormParameterRepository struct {
	db *gorm.DB
}

// NewGormParameterRepository creates a new GormParameterRepository
func NewGormParameterRepository(db *gorm.DB) *GormParameterRepository {
	return &GormParameterRepository{db: db}
}

// Get returns the value of key and whether it exists
func (r *GormParameterRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var model models.ConfigParameterModel
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return model.Value, true, nil
}

// Set creates or replaces a parameter
func (r *GormParameterRepository) Set(ctx context.Context, param *mail.ConfigParameter) error {
	model := &models.ConfigParameterModel{Key: param.Key, Value: param.Value, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(model).Error
}

// Delete removes a parameter
func (r *GormParameterRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.ConfigParameterModel{}).Error
}

// List returns every parameter ordered by key
func (r *GormParameterRepository) List(ctx context.Context) ([]*mail.ConfigParameter, error) {
	var paramModels []models.ConfigParameterModel
	if err := r.db.WithContext(ctx).Order("key").Find(&paramModels).Error; err != nil {
		return nil, err
	}
	params := make([]*mail.ConfigParameter, len(paramModels))
	for i := range paramModels {
		params[i] = paramModels[i].ToDomain()
	}
	return params, nil
}
