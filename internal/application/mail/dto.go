package mail

import (
	"time"

	"github.com/erp/messaging/internal/domain/mail"
)

// CreateMessageRequest represents a request to create a message. Empty
// optional fields are filled with defaults derived from the acting
// identity and the attached document.
type CreateMessageRequest struct {
	Subject       string  `json:"subject" binding:"max=500"`
	Body          string  `json:"body"`
	Model         string  `json:"model" binding:"max=128"`
	ResID         int64   `json:"res_id" binding:"gte=0"`
	MessageType   string  `json:"message_type" binding:"omitempty,oneof=email comment notification"`
	Subtype       string  `json:"subtype" binding:"max=128"` // external id, e.g. mail.mt_comment
	AuthorID      *int64  `json:"author_id"`
	EmailFrom     string  `json:"email_from" binding:"max=500"`
	ReplyTo       string  `json:"reply_to" binding:"max=500"`
	MessageID     string  `json:"message_id" binding:"max=500"`
	ParentID      *int64  `json:"parent_id"`
	NoAutoThread  bool    `json:"no_auto_thread"`
	PartnerIDs    []int64 `json:"partner_ids"`
	AttachmentIDs []int64 `json:"attachment_ids"`
}

// UpdateMessageRequest represents a request to update a message. Nil fields
// are left untouched; PartnerIDs replaces the recipients while
// AddPartnerIDs appends to them.
type UpdateMessageRequest struct {
	Subject       *string  `json:"subject" binding:"omitempty,max=500"`
	Body          *string  `json:"body"`
	Model         *string  `json:"model" binding:"omitempty,max=128"`
	ResID         *int64   `json:"res_id" binding:"omitempty,gte=0"`
	Subtype       *string  `json:"subtype" binding:"omitempty,max=128"`
	AuthorID      *int64   `json:"author_id"`
	PartnerIDs    *[]int64 `json:"partner_ids"`
	AddPartnerIDs []int64  `json:"add_partner_ids"`
	AttachmentIDs []int64  `json:"attachment_ids"`
}

// SearchMessagesRequest represents the filters of a message search
type SearchMessagesRequest struct {
	Search      string `form:"search"`
	Subject     string `form:"subject"`
	Body        string `form:"body"`
	Model       string `form:"model"`
	ResID       int64  `form:"res_id" binding:"omitempty,gte=0"`
	AuthorID    int64  `form:"author_id" binding:"omitempty,gte=0"`
	ParentID    int64  `form:"parent_id" binding:"omitempty,gte=0"`
	MessageType string `form:"message_type" binding:"omitempty,oneof=email comment notification"`
	Starred     bool   `form:"starred"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy     string `form:"order_by"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// PostMessageRequest represents a message posted on a document thread
type PostMessageRequest struct {
	Subject       string  `json:"subject" binding:"max=500"`
	Body          string  `json:"body" binding:"required"`
	MessageType   string  `json:"message_type" binding:"omitempty,oneof=email comment notification"`
	Subtype       string  `json:"subtype" binding:"max=128"`
	ParentID      *int64  `json:"parent_id"`
	PartnerIDs    []int64 `json:"partner_ids"`
	AttachmentIDs []int64 `json:"attachment_ids"`
}

// MessageResponse represents a message in API responses. Starred is
// computed for the identity the response is produced for.
type MessageResponse struct {
	ID            int64     `json:"id"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	Model         string    `json:"model,omitempty"`
	ResID         int64     `json:"res_id,omitempty"`
	RecordName    string    `json:"record_name,omitempty"`
	MessageType   string    `json:"message_type"`
	SubtypeID     *int64    `json:"subtype_id"`
	AuthorID      *int64    `json:"author_id"`
	EmailFrom     string    `json:"email_from"`
	ReplyTo       string    `json:"reply_to"`
	MessageID     string    `json:"message_id"`
	ParentID      *int64    `json:"parent_id"`
	NoAutoThread  bool      `json:"no_auto_thread"`
	PartnerIDs    []int64   `json:"partner_ids"`
	AttachmentIDs []int64   `json:"attachment_ids"`
	Starred       bool      `json:"starred"`
	Date          time.Time `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToMessageResponse converts a domain message for the given partner
func ToMessageResponse(m *mail.Message, partnerID int64) MessageResponse {
	return MessageResponse{
		ID:            m.ID,
		Subject:       m.Subject,
		Body:          m.Body,
		Model:         m.Model,
		ResID:         m.ResID,
		RecordName:    m.RecordName,
		MessageType:   string(m.MessageType),
		SubtypeID:     m.SubtypeID,
		AuthorID:      m.AuthorID,
		EmailFrom:     m.EmailFrom,
		ReplyTo:       m.ReplyTo,
		MessageID:     m.MessageID,
		ParentID:      m.ParentID,
		NoAutoThread:  m.NoAutoThread,
		PartnerIDs:    nonNil(m.PartnerIDs),
		AttachmentIDs: nonNil(m.AttachmentIDs),
		Starred:       m.IsStarredBy(partnerID),
		Date:          m.Date,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ToMessageResponses converts a slice of domain messages
func ToMessageResponses(msgs []*mail.Message, partnerID int64) []MessageResponse {
	responses := make([]MessageResponse, len(msgs))
	for i, m := range msgs {
		responses[i] = ToMessageResponse(m, partnerID)
	}
	return responses
}

// ThreadResponse lists the messages of one document
type ThreadResponse struct {
	Model      string  `json:"model"`
	ResID      int64   `json:"res_id"`
	MessageIDs []int64 `json:"message_ids"`
	Count      int     `json:"count"`
}

// CreateChannelRequest represents a request to create a channel
type CreateChannelRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=200"`
	Description string  `json:"description" binding:"max=2000"`
	Visibility  string  `json:"visibility" binding:"omitempty,oneof=public private groups"`
	GroupPublic string  `json:"group_public" binding:"max=64"`
	AliasName   string  `json:"alias_name" binding:"max=64"`
	MemberIDs   []int64 `json:"member_ids"`
}

// UpdateChannelRequest represents a request to update a channel
type UpdateChannelRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Visibility  *string `json:"visibility" binding:"omitempty,oneof=public private groups"`
	GroupPublic *string `json:"group_public" binding:"omitempty,max=64"`
	AliasName   *string `json:"alias_name" binding:"omitempty,max=64"`
}

// AddMembersRequest represents a request to subscribe partners to a channel
type AddMembersRequest struct {
	PartnerIDs []int64 `json:"partner_ids" binding:"required,min=1"`
}

// ChannelResponse represents a channel in API responses
type ChannelResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Visibility  string    `json:"visibility"`
	GroupPublic string    `json:"group_public,omitempty"`
	AliasName   string    `json:"alias_name,omitempty"`
	MemberIDs   []int64   `json:"member_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToChannelResponse converts a domain channel
func ToChannelResponse(c *mail.Channel) ChannelResponse {
	return ChannelResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Visibility:  string(c.Visibility),
		GroupPublic: c.GroupPublic.String(),
		AliasName:   c.AliasName,
		MemberIDs:   nonNil(c.MemberPartnerIDs),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// SetParameterRequest represents a request to set a system parameter
type SetParameterRequest struct {
	Value string `json:"value" binding:"max=4096"`
}

// ParameterResponse represents a system parameter in API responses
type ParameterResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UploadAttachmentRequest represents an attachment upload
type UploadAttachmentRequest struct {
	Name     string
	Mimetype string
	ResModel string
	ResID    int64
	Data     []byte
}

// AttachmentResponse represents an attachment in API responses
type AttachmentResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ResModel    string    `json:"res_model,omitempty"`
	ResID       int64     `json:"res_id,omitempty"`
	Mimetype    string    `json:"mimetype"`
	FileSize    int64     `json:"file_size"`
	CreatedBy   int64     `json:"created_by"`
	DownloadURL string    `json:"download_url,omitempty"`
	URLExpires  time.Time `json:"url_expires_at,omitzero"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToAttachmentResponse converts a domain attachment
func ToAttachmentResponse(a *mail.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:        a.ID,
		Name:      a.Name,
		ResModel:  a.ResModel,
		ResID:     a.ResID,
		Mimetype:  a.Mimetype,
		FileSize:  a.Size,
		CreatedBy: a.CreateUID,
		CreatedAt: a.CreatedAt,
	}
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
