package models

import (
	"time"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/shared"
)

// CompanyModel is the persistence model for companies
type CompanyModel struct {
	BaseModel
	Name  string `gorm:"type:varchar(200);not null"`
	Email string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "res_company"
}

// ToDomain converts the model to a domain Company
func (m *CompanyModel) ToDomain() *identity.Company {
	return &identity.Company{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name, Email: m.Email}
}

// CompanyModelFromDomain builds a model from a domain Company
func CompanyModelFromDomain(c *identity.Company) *CompanyModel {
	m := &CompanyModel{Name: c.Name, Email: c.Email}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// PartnerModel is the persistence model for partners
type PartnerModel struct {
	BaseModel
	Name      string `gorm:"type:varchar(200);not null"`
	Email     string `gorm:"type:varchar(200);index"`
	CompanyID int64  `gorm:"index"`
}

// TableName returns the table name for GORM
func (PartnerModel) TableName() string {
	return "res_partner"
}

// ToDomain converts the model to a domain Partner
func (m *PartnerModel) ToDomain() *identity.Partner {
	return &identity.Partner{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Email:      m.Email,
		CompanyID:  m.CompanyID,
	}
}

// PartnerModelFromDomain builds a model from a domain Partner
func PartnerModelFromDomain(p *identity.Partner) *PartnerModel {
	m := &PartnerModel{Name: p.Name, Email: p.Email, CompanyID: p.CompanyID}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// UserModel is the persistence model for users
type UserModel struct {
	BaseModel
	Login        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	PartnerID    int64  `gorm:"not null;index"`
	CompanyID    int64  `gorm:"not null;index"`
	Active       bool   `gorm:"not null"`
	Superuser    bool   `gorm:"not null;default:false"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "res_users"
}

// ToDomain converts the model to a domain User.
// Note: Groups must be loaded separately by the repository.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
		Login:             m.Login,
		PasswordHash:      m.PasswordHash,
		PartnerID:         m.PartnerID,
		CompanyID:         m.CompanyID,
		Groups:            make([]identity.Group, 0),
		Active:            m.Active,
		Superuser:         m.Superuser,
		LastLoginAt:       m.LastLoginAt,
	}
}

// UserModelFromDomain builds a model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Login:        u.Login,
		PasswordHash: u.PasswordHash,
		PartnerID:    u.PartnerID,
		CompanyID:    u.CompanyID,
		Active:       u.Active,
		Superuser:    u.Superuser,
		LastLoginAt:  u.LastLoginAt,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}

// UserGroupModel links a user to a group key
type UserGroupModel struct {
	UserID   int64  `gorm:"primaryKey"`
	GroupKey string `gorm:"primaryKey;type:varchar(100)"`
}

// TableName returns the table name for GORM
func (UserGroupModel) TableName() string {
	return "res_users_groups"
}
