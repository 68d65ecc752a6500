package persistence

import (
	"context"
	"errors"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormChannelRepository implements ChannelRepository using GORM
type GormChannelRepository struct {
	db *gorm.DB
}

// NewGormChannelRepository creates a new GormChannelRepository
func NewGormChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

// Create creates a new channel with its members
func (r *GormChannelRepository) Create(ctx context.Context, channel *mail.Channel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.ChannelModelFromDomain(channel)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		channel.ID = model.ID
		return saveChannelMembers(tx, channel)
	})
}

// Update updates an existing channel and replaces its members
func (r *GormChannelRepository) Update(ctx context.Context, channel *mail.Channel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.ChannelModelFromDomain(channel)
		result := tx.Model(model).Select("*").Omit("id", "created_at").Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return saveChannelMembers(tx, channel)
	})
}

// FindByID finds a channel by ID with its members
func (r *GormChannelRepository) FindByID(ctx context.Context, id int64) (*mail.Channel, error) {
	var model models.ChannelModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	channel := model.ToDomain()

	var members []int64
	if err := r.db.WithContext(ctx).
		Model(&models.ChannelMemberModel{}).
		Where("channel_id = ?", id).
		Order("partner_id").
		Pluck("partner_id", &members).Error; err != nil {
		return nil, err
	}
	channel.MemberPartnerIDs = members
	return channel, nil
}

// ReadableIDs returns the ids of public channels, private channels the
// partner is a member of and group channels restricted to one of groups.
func (r *GormChannelRepository) ReadableIDs(ctx context.Context, partnerID int64, groups []identity.Group) ([]int64, error) {
	groupKeys := make([]string, len(groups))
	for i, g := range groups {
		groupKeys[i] = string(g)
	}
	memberOf := r.db.Model(&models.ChannelMemberModel{}).Select("channel_id").Where("partner_id = ?", partnerID)

	query := r.db.WithContext(ctx).Model(&models.ChannelModel{}).
		Where("visibility = ?", string(mail.VisibilityPublic)).
		Or("visibility = ? AND id IN (?)", string(mail.VisibilityPrivate), memberOf)
	if len(groupKeys) > 0 {
		query = query.Or("visibility = ? AND group_public IN ?", string(mail.VisibilityGroups), groupKeys)
	}

	var ids []int64
	if err := query.Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// AllIDs returns every channel id
func (r *GormChannelRepository) AllIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&models.ChannelModel{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// saveChannelMembers replaces the channel's members
func saveChannelMembers(tx *gorm.DB, channel *mail.Channel) error {
	if err := tx.Where("channel_id = ?", channel.ID).Delete(&models.ChannelMemberModel{}).Error; err != nil {
		return err
	}
	if len(channel.MemberPartnerIDs) == 0 {
		return nil
	}
	memberModels := make([]models.ChannelMemberModel, len(channel.MemberPartnerIDs))
	for i, pid := range channel.MemberPartnerIDs {
		memberModels[i] = models.ChannelMemberModel{ChannelID: channel.ID, PartnerID: pid}
	}
	return tx.Create(&memberModels).Error
}
