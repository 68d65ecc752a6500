package mail

import (
	"slices"
	"strings"
	"time"

	"github.com/erp/messaging/internal/domain/shared"
)

// AggregateTypeMessage is the aggregate type of messages
const AggregateTypeMessage = "mail.message"

// DocumentRef points at a business record by model name and numeric id
type DocumentRef struct {
	Model string
	ResID int64
}

// IsZero reports whether the reference points nowhere
func (d DocumentRef) IsZero() bool {
	return d.Model == "" || d.ResID == 0
}

// Message is a note, comment or email attached to a business record, or
// a private message when it has no document.
type Message struct {
	shared.BaseAggregateRoot
	Subject           string
	Body              string
	Model             string
	ResID             int64
	RecordName        string
	MessageType       MessageType
	SubtypeID         *int64
	AuthorID          *int64
	EmailFrom         string
	ReplyTo           string
	MessageID         string
	ParentID          *int64
	NoAutoThread      bool
	PartnerIDs        []int64 // recipients
	StarredPartnerIDs []int64
	AttachmentIDs     []int64
	Date              time.Time
	CreateUID         int64
}

// NewMessage creates an unsaved message; defaults are filled in by the
// application layer before persisting.
func NewMessage(subject, body string) *Message {
	return &Message{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Subject:           strings.TrimSpace(subject),
		Body:              body,
		PartnerIDs:        make([]int64, 0),
		StarredPartnerIDs: make([]int64, 0),
		AttachmentIDs:     make([]int64, 0),
		Date:              time.Now(),
	}
}

// Document returns the reference to the attached record
func (m *Message) Document() DocumentRef {
	return DocumentRef{Model: m.Model, ResID: m.ResID}
}

// IsPrivate reports whether the message is not attached to any document
func (m *Message) IsPrivate() bool {
	return m.Document().IsZero()
}

// AttachTo links the message to a document; a zero ref detaches it
func (m *Message) AttachTo(ref DocumentRef) {
	if ref.IsZero() {
		m.Model, m.ResID = "", 0
		return
	}
	m.Model, m.ResID = ref.Model, ref.ResID
}

// IsAuthor reports whether partnerID authored the message
func (m *Message) IsAuthor(partnerID int64) bool {
	return m.AuthorID != nil && *m.AuthorID == partnerID
}

// IsRecipient reports whether partnerID is an explicit recipient
func (m *Message) IsRecipient(partnerID int64) bool {
	return slices.Contains(m.PartnerIDs, partnerID)
}

// IsStarredBy reports whether partnerID starred the message
func (m *Message) IsStarredBy(partnerID int64) bool {
	return slices.Contains(m.StarredPartnerIDs, partnerID)
}

// ToggleStar flips the starred flag for one partner only and returns the
// new state.
func (m *Message) ToggleStar(partnerID int64) bool {
	starred := !m.IsStarredBy(partnerID)
	if starred {
		m.StarredPartnerIDs = append(m.StarredPartnerIDs, partnerID)
	} else {
		m.StarredPartnerIDs = slices.DeleteFunc(m.StarredPartnerIDs, func(id int64) bool { return id == partnerID })
	}
	m.RecordEvent(NewMessageStarToggledEvent(m, partnerID, starred))
	return starred
}

// AddRecipients appends recipients, ignoring duplicates
func (m *Message) AddRecipients(partnerIDs ...int64) {
	m.PartnerIDs = mergeIDs(m.PartnerIDs, partnerIDs)
}

// SetRecipients replaces the recipient list
func (m *Message) SetRecipients(partnerIDs []int64) {
	m.PartnerIDs = mergeIDs(nil, partnerIDs)
}

// AddAttachments links attachments, ignoring duplicates
func (m *Message) AddAttachments(attachmentIDs ...int64) {
	m.AttachmentIDs = mergeIDs(m.AttachmentIDs, attachmentIDs)
}

// HasAttachment reports whether the attachment is linked to the message
func (m *Message) HasAttachment(attachmentID int64) bool {
	return slices.Contains(m.AttachmentIDs, attachmentID)
}

// MarkCreated records the creation event once the message has an id
func (m *Message) MarkCreated() {
	m.RecordEvent(NewMessageCreatedEvent(m))
}

// MarkUpdated records an update; previous is the document the message was
// attached to before the change.
func (m *Message) MarkUpdated(previous DocumentRef) {
	m.Touch()
	m.RecordEvent(NewMessageUpdatedEvent(m, previous))
}

// MarkDeleted records the deletion event
func (m *Message) MarkDeleted() {
	m.RecordEvent(NewMessageDeletedEvent(m))
}

func mergeIDs(existing, extra []int64) []int64 {
	out := make([]int64, 0, len(existing)+len(extra))
	for _, id := range existing {
		if id > 0 && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	for _, id := range extra {
		if id > 0 && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
