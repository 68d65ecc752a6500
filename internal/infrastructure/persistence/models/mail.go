package models

import (
	"time"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
)

// SubtypeModel is the persistence model for message subtypes
type SubtypeModel struct {
	BaseModel
	XMLID       string `gorm:"column:xml_id;type:varchar(128);not null;uniqueIndex"`
	Name        string `gorm:"type:varchar(200);not null"`
	Description string `gorm:"type:text"`
	Internal    bool   `gorm:"not null;default:false"`
	Default     bool   `gorm:"column:is_default;not null"`
}

// TableName returns the table name for GORM
func (SubtypeModel) TableName() string {
	return "mail_message_subtype"
}

// ToDomain converts the model to a domain Subtype
func (m *SubtypeModel) ToDomain() *mail.Subtype {
	return &mail.Subtype{
		BaseEntity:  m.BaseModel.ToDomain(),
		XMLID:       m.XMLID,
		Name:        m.Name,
		Description: m.Description,
		Internal:    m.Internal,
		Default:     m.Default,
	}
}

// SubtypeModelFromDomain builds a model from a domain Subtype
func SubtypeModelFromDomain(s *mail.Subtype) *SubtypeModel {
	m := &SubtypeModel{
		XMLID:       s.XMLID,
		Name:        s.Name,
		Description: s.Description,
		Internal:    s.Internal,
		Default:     s.Default,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// ChannelModel is the persistence model for channels
type ChannelModel struct {
	BaseModel
	Name        string `gorm:"type:varchar(200);not null"`
	Description string `gorm:"type:text"`
	Visibility  string `gorm:"type:varchar(20);not null;default:'groups'"`
	GroupPublic string `gorm:"type:varchar(100)"`
	AliasName   string `gorm:"type:varchar(100);index"`
}

// TableName returns the table name for GORM
func (ChannelModel) TableName() string {
	return "mail_channel"
}

// ToDomain converts the model to a domain Channel.
// Note: members must be loaded separately by the repository.
func (m *ChannelModel) ToDomain() *mail.Channel {
	return &mail.Channel{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
		Name:              m.Name,
		Description:       m.Description,
		Visibility:        mail.Visibility(m.Visibility),
		GroupPublic:       identity.Group(m.GroupPublic),
		AliasName:         m.AliasName,
		MemberPartnerIDs:  make([]int64, 0),
	}
}

// ChannelModelFromDomain builds a model from a domain Channel
func ChannelModelFromDomain(c *mail.Channel) *ChannelModel {
	m := &ChannelModel{
		Name:        c.Name,
		Description: c.Description,
		Visibility:  string(c.Visibility),
		GroupPublic: string(c.GroupPublic),
		AliasName:   c.AliasName,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// ChannelMemberModel links a channel to a member partner
type ChannelMemberModel struct {
	ChannelID int64 `gorm:"primaryKey"`
	PartnerID int64 `gorm:"primaryKey;index"`
}

// TableName returns the table name for GORM
func (ChannelMemberModel) TableName() string {
	return "mail_channel_partner"
}

// MessageModel is the persistence model for messages
type MessageModel struct {
	BaseModel
	Subject      string    `gorm:"type:varchar(500)"`
	Body         string    `gorm:"type:text"`
	Model        string    `gorm:"type:varchar(128);index:idx_mail_message_document"`
	ResID        int64     `gorm:"index:idx_mail_message_document"`
	RecordName   string    `gorm:"type:varchar(200)"`
	MessageType  string    `gorm:"type:varchar(20);not null;default:'email'"`
	SubtypeID    *int64    `gorm:"index"`
	AuthorID     *int64    `gorm:"index"`
	EmailFrom    string    `gorm:"type:varchar(300)"`
	ReplyTo      string    `gorm:"type:varchar(300)"`
	MessageID    string    `gorm:"column:message_id;type:varchar(300);index"`
	ParentID     *int64    `gorm:"index"`
	NoAutoThread bool      `gorm:"not null;default:false"`
	Date         time.Time `gorm:"not null"`
	CreateUID    int64     `gorm:"column:create_uid"`
}

// TableName returns the table name for GORM
func (MessageModel) TableName() string {
	return "mail_message"
}

// ToDomain converts the model to a domain Message.
// Note: recipients, stars and attachments are loaded by the repository.
func (m *MessageModel) ToDomain() *mail.Message {
	return &mail.Message{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
		Subject:           m.Subject,
		Body:              m.Body,
		Model:             m.Model,
		ResID:             m.ResID,
		RecordName:        m.RecordName,
		MessageType:       mail.MessageType(m.MessageType),
		SubtypeID:         m.SubtypeID,
		AuthorID:          m.AuthorID,
		EmailFrom:         m.EmailFrom,
		ReplyTo:           m.ReplyTo,
		MessageID:         m.MessageID,
		ParentID:          m.ParentID,
		NoAutoThread:      m.NoAutoThread,
		PartnerIDs:        make([]int64, 0),
		StarredPartnerIDs: make([]int64, 0),
		AttachmentIDs:     make([]int64, 0),
		Date:              m.Date,
		CreateUID:         m.CreateUID,
	}
}

// MessageModelFromDomain builds a model from a domain Message
func MessageModelFromDomain(msg *mail.Message) *MessageModel {
	m := &MessageModel{
		Subject:      msg.Subject,
		Body:         msg.Body,
		Model:        msg.Model,
		ResID:        msg.ResID,
		RecordName:   msg.RecordName,
		MessageType:  string(msg.MessageType),
		SubtypeID:    msg.SubtypeID,
		AuthorID:     msg.AuthorID,
		EmailFrom:    msg.EmailFrom,
		ReplyTo:      msg.ReplyTo,
		MessageID:    msg.MessageID,
		ParentID:     msg.ParentID,
		NoAutoThread: msg.NoAutoThread,
		Date:         msg.Date,
		CreateUID:    msg.CreateUID,
	}
	m.FromDomainBaseEntity(msg.BaseEntity)
	return m
}

// MessageRecipientModel links a message to a recipient partner
type MessageRecipientModel struct {
	MailMessageID int64 `gorm:"primaryKey"`
	ResPartnerID  int64 `gorm:"primaryKey;index"`
}

// TableName returns the table name for GORM
func (MessageRecipientModel) TableName() string {
	return "mail_message_res_partner_rel"
}

// MessageStarModel records that a partner starred a message
type MessageStarModel struct {
	MailMessageID int64 `gorm:"primaryKey"`
	ResPartnerID  int64 `gorm:"primaryKey;index"`
}

// TableName returns the table name for GORM
func (MessageStarModel) TableName() string {
	return "mail_message_res_partner_starred_rel"
}

// MessageAttachmentModel links a message to an attachment
type MessageAttachmentModel struct {
	MessageID    int64 `gorm:"primaryKey"`
	AttachmentID int64 `gorm:"primaryKey;index"`
}

// TableName returns the table name for GORM
func (MessageAttachmentModel) TableName() string {
	return "message_attachment_rel"
}

// AttachmentModel is the persistence model for attachment metadata
type AttachmentModel struct {
	BaseModel
	Name       string `gorm:"type:varchar(255);not null"`
	ResModel   string `gorm:"type:varchar(128);index:idx_ir_attachment_res"`
	ResID      int64  `gorm:"index:idx_ir_attachment_res"`
	Mimetype   string `gorm:"type:varchar(128)"`
	FileSize   int64  `gorm:"not null;default:0"`
	StorageKey string `gorm:"type:varchar(512);not null"`
	CreateUID  int64  `gorm:"column:create_uid"`
}

// TableName returns the table name for GORM
func (AttachmentModel) TableName() string {
	return "ir_attachment"
}

// ToDomain converts the model to a domain Attachment
func (m *AttachmentModel) ToDomain() *mail.Attachment {
	return &mail.Attachment{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		ResModel:   m.ResModel,
		ResID:      m.ResID,
		Mimetype:   m.Mimetype,
		Size:       m.FileSize,
		StorageKey: m.StorageKey,
		CreateUID:  m.CreateUID,
	}
}

// AttachmentModelFromDomain builds a model from a domain Attachment
func AttachmentModelFromDomain(a *mail.Attachment) *AttachmentModel {
	m := &AttachmentModel{
		Name:       a.Name,
		ResModel:   a.ResModel,
		ResID:      a.ResID,
		Mimetype:   a.Mimetype,
		FileSize:   a.Size,
		StorageKey: a.StorageKey,
		CreateUID:  a.CreateUID,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// ConfigParameterModel is the persistence model for system parameters
type ConfigParameterModel struct {
	Key       string    `gorm:"primaryKey;type:varchar(256)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConfigParameterModel) TableName() string {
	return "ir_config_parameter"
}

// ToDomain converts the model to a domain ConfigParameter
func (m *ConfigParameterModel) ToDomain() *mail.ConfigParameter {
	return &mail.ConfigParameter{Key: m.Key, Value: m.Value}
}
