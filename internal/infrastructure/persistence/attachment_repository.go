package persistence

import (
	"context"
	"errors"

	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAttachmentRepository implements AttachmentRepository using GORM
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// Create creates attachment metadata
func (r *GormAttachmentRepository) Create(ctx context.Context, attachment *mail.Attachment) error {
	model := models.AttachmentModelFromDomain(attachment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	attachment.ID = model.ID
	return nil
}

// FindByID finds an attachment by ID
func (r *GormAttachmentRepository) FindByID(ctx context.Context, id int64) (*mail.Attachment, error) {
	var model models.AttachmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds attachments by IDs, ordered by id
func (r *GormAttachmentRepository) FindByIDs(ctx context.Context, ids []int64) ([]*mail.Attachment, error) {
	if len(ids) == 0 {
		return []*mail.Attachment{}, nil
	}
	var attachmentModels []models.AttachmentModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&attachmentModels).Error; err != nil {
		return nil, err
	}
	attachments := make([]*mail.Attachment, len(attachmentModels))
	for i := range attachmentModels {
		attachments[i] = attachmentModels[i].ToDomain()
	}
	return attachments, nil
}

// Delete removes attachment metadata and its message links
func (r *GormAttachmentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("attachment_id = ?", id).Delete(&models.MessageAttachmentModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.AttachmentModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
