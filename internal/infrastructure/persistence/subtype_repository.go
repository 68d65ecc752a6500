package persistence

import (
	"context"
	"errors"

	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSubtypeRepository implements SubtypeRepository using GORM
type GormSubtypeRepository struct {
	db *gorm.DB
}

// NewGormSubtypeRepository creates a new GormSubtypeRepository
func NewGormSubtypeRepository(db *gorm.DB) *GormSubtypeRepository {
	return &GormSubtypeRepository{db: db}
}

// Create creates a new subtype
func (r *GormSubtypeRepository) Create(ctx context.Context, subtype *mail.Subtype) error {
	model := models.SubtypeModelFromDomain(subtype)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	subtype.ID = model.ID
	return nil
}

// FindByID finds a subtype by ID
func (r *GormSubtypeRepository) FindByID(ctx context.Context, id int64) (*mail.Subtype, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByXMLID finds a subtype by its external id, e.g. "mail.mt_comment"
func (r *GormSubtypeRepository) FindByXMLID(ctx context.Context, xmlID string) (*mail.Subtype, error) {
	return r.findOne(ctx, "xml_id = ?", xmlID)
}

// FindAll returns every subtype ordered by id
func (r *GormSubtypeRepository) FindAll(ctx context.Context) ([]*mail.Subtype, error) {
	var subtypeModels []models.SubtypeModel
	if err := r.db.WithContext(ctx).Order("id").Find(&subtypeModels).Error; err != nil {
		return nil, err
	}
	subtypes := make([]*mail.Subtype, len(subtypeModels))
	for i := range subtypeModels {
		subtypes[i] = subtypeModels[i].ToDomain()
	}
	return subtypes, nil
}

func (r *GormSubtypeRepository) findOne(ctx context.Context, query string, args ...any) (*mail.Subtype, error) {
	var model models.SubtypeModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
