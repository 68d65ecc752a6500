package mail

import (
	"github.com/erp/messaging/internal/domain/shared"
)

// Message domain event types
const (
	EventTypeMessageCreated     = "MessageCreated"
	EventTypeMessageUpdated     = "MessageUpdated"
	EventTypeMessageDeleted     = "MessageDeleted"
	EventTypeMessageStarToggled = "MessageStarToggled"
)

// MessageCreatedEvent is published after a message is persisted
type MessageCreatedEvent struct {
	shared.EventHeader
	Model    string `json:"model"`
	ResID    int64  `json:"res_id"`
	AuthorID *int64 `json:"author_id,omitempty"`
}

// NewMessageCreatedEvent creates a new MessageCreatedEvent
func NewMessageCreatedEvent(m *Message) *MessageCreatedEvent {
	return &MessageCreatedEvent{
		EventHeader: shared.NewEventHeader(EventTypeMessageCreated, AggregateTypeMessage, m.ID),
		Model:       m.Model,
		ResID:       m.ResID,
		AuthorID:    m.AuthorID,
	}
}

// MessageUpdatedEvent is published after a message is modified
type MessageUpdatedEvent struct {
	shared.EventHeader
	Model         string `json:"model"`
	ResID         int64  `json:"res_id"`
	PreviousModel string `json:"previous_model"`
	PreviousResID int64  `json:"previous_res_id"`
}

// NewMessageUpdatedEvent creates a new MessageUpdatedEvent
func NewMessageUpdatedEvent(m *Message, previous DocumentRef) *MessageUpdatedEvent {
	return &MessageUpdatedEvent{
		EventHeader:   shared.NewEventHeader(EventTypeMessageUpdated, AggregateTypeMessage, m.ID),
		Model:         m.Model,
		ResID:         m.ResID,
		PreviousModel: previous.Model,
		PreviousResID: previous.ResID,
	}
}

// MessageDeletedEvent is published after a message is removed
type MessageDeletedEvent struct {
	shared.EventHeader
	Model string `json:"model"`
	ResID int64  `json:"res_id"`
}

// NewMessageDeletedEvent creates a new MessageDeletedEvent
func NewMessageDeletedEvent(m *Message) *MessageDeletedEvent {
	return &MessageDeletedEvent{
		EventHeader: shared.NewEventHeader(EventTypeMessageDeleted, AggregateTypeMessage, m.ID),
		Model:       m.Model,
		ResID:       m.ResID,
	}
}

// MessageStarToggledEvent is published when a partner stars or unstars a message
type MessageStarToggledEvent struct {
	shared.EventHeader
	PartnerID int64 `json:"partner_id"`
	Starred   bool  `json:"starred"`
}

// NewMessageStarToggledEvent creates a new MessageStarToggledEvent
func NewMessageStarToggledEvent(m *Message, partnerID int64, starred bool) *MessageStarToggledEvent {
	return &MessageStarToggledEvent{
		EventHeader: shared.NewEventHeader(EventTypeMessageStarToggled, AggregateTypeMessage, m.ID),
		PartnerID:   partnerID,
		Starred:     starred,
	}
}

// AffectedDocuments lists the documents whose message collection changed
// because of the event.
func AffectedDocuments(event shared.DomainEvent) []DocumentRef {
	var refs []DocumentRef
	add := func(ref DocumentRef) {
		if !ref.IsZero() {
			refs = append(refs, ref)
		}
	}
	switch e := event.(type) {
	case *MessageCreatedEvent:
		add(DocumentRef{Model: e.Model, ResID: e.ResID})
	case *MessageUpdatedEvent:
		add(DocumentRef{Model: e.Model, ResID: e.ResID})
		if e.PreviousModel != e.Model || e.PreviousResID != e.ResID {
			add(DocumentRef{Model: e.PreviousModel, ResID: e.PreviousResID})
		}
	case *MessageDeletedEvent:
		add(DocumentRef{Model: e.Model, ResID: e.ResID})
	}
	return refs
}
