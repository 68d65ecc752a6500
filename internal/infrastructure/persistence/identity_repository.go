package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Create creates a new company
func (r *GormCompanyRepository) Create(ctx context.Context, company *identity.Company) error {
	model := models.CompanyModelFromDomain(company)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	company.ID = model.ID
	return nil
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id int64) (*identity.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GormPartnerRepository implements PartnerRepository using GORM
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewGormPartnerRepository creates a new GormPartnerRepository
func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// Create creates a new partner
func (r *GormPartnerRepository) Create(ctx context.Context, partner *identity.Partner) error {
	model := models.PartnerModelFromDomain(partner)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	partner.ID = model.ID
	return nil
}

// Update updates an existing partner
func (r *GormPartnerRepository) Update(ctx context.Context, partner *identity.Partner) error {
	model := models.PartnerModelFromDomain(partner)
	result := r.db.WithContext(ctx).Model(model).Select("*").Omit("id", "created_at").Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a partner by ID
func (r *GormPartnerRepository) FindByID(ctx context.Context, id int64) (*identity.Partner, error) {
	var model models.PartnerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds partners by IDs, ordered by id
func (r *GormPartnerRepository) FindByIDs(ctx context.Context, ids []int64) ([]*identity.Partner, error) {
	if len(ids) == 0 {
		return []*identity.Partner{}, nil
	}
	var partnerModels []models.PartnerModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&partnerModels).Error; err != nil {
		return nil, err
	}
	partners := make([]*identity.Partner, len(partnerModels))
	for i := range partnerModels {
		partners[i] = partnerModels[i].ToDomain()
	}
	return partners, nil
}

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user together with its groups
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.UserModelFromDomain(user)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		user.ID = model.ID
		return saveUserGroups(tx, user)
	})
}

// Update updates an existing user and replaces its groups
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.UserModelFromDomain(user)
		result := tx.Model(model).Select("*").Omit("id", "created_at").Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return saveUserGroups(tx, user)
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (*identity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByLogin finds a user by login, case-insensitively
func (r *GormUserRepository) FindByLogin(ctx context.Context, login string) (*identity.User, error) {
	return r.findOne(ctx, "LOWER(login) = ?", strings.ToLower(strings.TrimSpace(login)))
}

// FindByPartnerID finds the user bound to a partner
func (r *GormUserRepository) FindByPartnerID(ctx context.Context, partnerID int64) (*identity.User, error) {
	return r.findOne(ctx, "partner_id = ?", partnerID)
}

// ExistsByLogin checks if a login already exists
func (r *GormUserRepository) ExistsByLogin(ctx context.Context, login string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("LOWER(login) = ?", strings.ToLower(strings.TrimSpace(login))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormUserRepository) findOne(ctx context.Context, query string, args ...any) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	user := model.ToDomain()
	if err := r.loadUserGroups(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// loadUserGroups loads the user's groups from the database
func (r *GormUserRepository) loadUserGroups(ctx context.Context, user *identity.User) error {
	var groupModels []models.UserGroupModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("group_key").
		Find(&groupModels).Error; err != nil {
		return err
	}
	groups := make([]identity.Group, len(groupModels))
	for i, gm := range groupModels {
		groups[i] = identity.Group(gm.GroupKey)
	}
	user.Groups = groups
	return nil
}

// saveUserGroups replaces the user's groups
func saveUserGroups(tx *gorm.DB, user *identity.User) error {
	if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserGroupModel{}).Error; err != nil {
		return err
	}
	if len(user.Groups) == 0 {
		return nil
	}
	groupModels := make([]models.UserGroupModel, len(user.Groups))
	for i, g := range user.Groups {
		groupModels[i] = models.UserGroupModel{UserID: user.ID, GroupKey: string(g)}
	}
	return tx.Create(&groupModels).Error
}
