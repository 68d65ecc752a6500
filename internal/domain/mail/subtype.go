package mail

import (
	"context"

	"github.com/erp/messaging/internal/domain/shared"
)

// Well-known subtype external ids
const (
	SubtypeComment = "mail.mt_comment"
	SubtypeNote    = "mail.mt_note"
)

// Subtype qualifies a message. Internal subtypes are hidden from portal and
// public users.
type Subtype struct {
	shared.BaseEntity
	XMLID       string
	Name        string
	Description string
	Internal    bool
	Default     bool
}

// NewSubtype creates a subtype
func NewSubtype(xmlID, name string, internal bool) *Subtype {
	return &Subtype{
		BaseEntity: shared.NewBaseEntity(),
		XMLID:      xmlID,
		Name:       name,
		Internal:   internal,
		Default:    !internal,
	}
}

// SubtypeRepository defines the interface for subtype persistence
type SubtypeRepository interface {
	Create(ctx context.Context, subtype *Subtype) error
	FindByID(ctx context.Context, id int64) (*Subtype, error)
	FindByXMLID(ctx context.Context, xmlID string) (*Subtype, error)
	FindAll(ctx context.Context) ([]*Subtype, error)
}
