package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/messaging/internal/domain/shared"
	"github.com/google/uuid"
)

// AttachmentModel is the model name of attachments
const AttachmentModel = "ir.attachment"

// Attachment is a file whose content lives in object storage
type Attachment struct {
	shared.BaseEntity
	Name       string
	ResModel   string
	ResID      int64
	Mimetype   string
	Size       int64
	StorageKey string
	CreateUID  int64
}

// NewAttachment creates an attachment with a fresh storage key
func NewAttachment(name, mimetype string, size int64, createUID int64) (*Attachment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ATTACHMENT_NAME", "Attachment name cannot be empty")
	}
	if size < 0 {
		return nil, shared.NewDomainError("INVALID_ATTACHMENT_SIZE", "Attachment size cannot be negative")
	}
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}
	return &Attachment{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Mimetype:   mimetype,
		Size:       size,
		StorageKey: fmt.Sprintf("attachments/%s/%s", uuid.New().String(), name),
		CreateUID:  createUID,
	}, nil
}

// Document returns the record the attachment is bound to, if any
func (a *Attachment) Document() DocumentRef {
	return DocumentRef{Model: a.ResModel, ResID: a.ResID}
}

// AttachmentRepository defines the interface for attachment metadata persistence
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *Attachment) error
	FindByID(ctx context.Context, id int64) (*Attachment, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*Attachment, error)
	Delete(ctx context.Context, id int64) error
}
