package mail

import (
	"context"

	"github.com/erp/messaging/internal/domain/shared"
)

// MessageFilter narrows message searches
type MessageFilter struct {
	shared.Filter
	Subject     string // substring
	Body        string // case-insensitive substring
	Model       string
	ResID       int64
	AuthorID    int64
	MessageType MessageType
	StarredBy   int64 // only messages starred by this partner
	ParentID    int64
}

// VisibilityScope restricts searches to the messages a principal can see:
// authored by the partner, addressed to it, or attached to readable
// documents. RestrictSubtypes hides other authors' messages without a
// public subtype.
type VisibilityScope struct {
	PartnerID        int64
	Readable         map[string][]int64
	RestrictSubtypes bool
}

// MessageRepository defines the interface for message persistence
type MessageRepository interface {
	// Create inserts the message with its recipients, stars and attachments
	Create(ctx context.Context, msg *Message) error

	// Update saves scalar fields and replaces recipients and attachments
	Update(ctx context.Context, msg *Message) error

	// Delete removes the message and its relations
	Delete(ctx context.Context, id int64) error

	// FindByID loads a message with its relations
	FindByID(ctx context.Context, id int64) (*Message, error)

	// FindByIDs loads messages in id order; missing ids are skipped
	FindByIDs(ctx context.Context, ids []int64) ([]*Message, error)

	// Search returns one page of matching messages, newest first, and the total
	Search(ctx context.Context, filter MessageFilter, scope *VisibilityScope) ([]*Message, int64, error)

	// ThreadMessageIDs returns the ids of a document's messages, newest first
	ThreadMessageIDs(ctx context.Context, ref DocumentRef) ([]int64, error)

	// SetStarred adds or removes one partner's star without touching others
	SetStarred(ctx context.Context, messageID, partnerID int64, starred bool) error

	// FindByAttachmentID returns the messages an attachment is linked to
	FindByAttachmentID(ctx context.Context, attachmentID int64) ([]*Message, error)
}

// ThreadCache caches the message ids of documents
type ThreadCache interface {
	Get(ctx context.Context, ref DocumentRef) ([]int64, bool, error)
	Set(ctx context.Context, ref DocumentRef, ids []int64) error
	Invalidate(ctx context.Context, refs ...DocumentRef) error
	Close() error
}
