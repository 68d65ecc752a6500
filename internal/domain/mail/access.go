package mail

import (
	"context"
	"fmt"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/shared"
)

// Operation is an access-controlled action on a message
type Operation string

const (
	OperationRead   Operation = "read"
	OperationCreate Operation = "create"
	OperationWrite  Operation = "write"
	OperationUnlink Operation = "unlink"
)

// MessageAccessPolicy decides whether a principal may read, create, write or
// delete messages. Administrators bypass every check.
type MessageAccessPolicy struct {
	documents *DocumentRegistry
	subtypes  SubtypeRepository
}

// NewMessageAccessPolicy creates the message access policy
func NewMessageAccessPolicy(documents *DocumentRegistry, subtypes SubtypeRepository) *MessageAccessPolicy {
	return &MessageAccessPolicy{documents: documents, subtypes: subtypes}
}

// CheckModelAccess applies the model-level rights: public users may only
// read, portal users and employees may also create and write, and only
// administrators may delete.
func (p *MessageAccessPolicy) CheckModelAccess(principal *identity.Principal, op Operation) error {
	if principal.IsAdmin() {
		return nil
	}
	switch op {
	case OperationRead:
		return nil
	case OperationCreate, OperationWrite:
		if principal.IsEmployee() || principal.IsPortal() {
			return nil
		}
	}
	return shared.NewDomainError(CodeAccessDenied,
		fmt.Sprintf("Sorry, you are not allowed to %s this document (%s)", op, AggregateTypeMessage))
}

// CanRead reports whether the principal may read the message: as its author,
// as a recipient, or through read access to the attached document. Portal
// and public users additionally never see messages of other authors that
// carry no subtype or an internal one.
func (p *MessageAccessPolicy) CanRead(ctx context.Context, principal *identity.Principal, msg *Message) (bool, error) {
	if principal.IsAdmin() {
		return true, nil
	}
	pid := principal.PartnerID()
	if msg.IsAuthor(pid) {
		return true, nil
	}
	if principal.IsShared() {
		visible, err := p.subtypeVisibleToShared(ctx, msg)
		if err != nil || !visible {
			return false, err
		}
	}
	if msg.IsRecipient(pid) {
		return true, nil
	}
	return p.documentAccess(ctx, principal, msg.Document(), OperationRead)
}

// CheckRead raises ACCESS_DENIED listing every message the principal cannot read
func (p *MessageAccessPolicy) CheckRead(ctx context.Context, principal *identity.Principal, msgs ...*Message) error {
	if err := p.CheckModelAccess(principal, OperationRead); err != nil {
		return err
	}
	var denied []int64
	for _, msg := range msgs {
		ok, err := p.CanRead(ctx, principal, msg)
		if err != nil {
			return err
		}
		if !ok {
			denied = append(denied, msg.ID)
		}
	}
	if len(denied) > 0 {
		return AccessDenied(OperationRead, AggregateTypeMessage, denied...)
	}
	return nil
}

// CheckCreate allows private messages, replies to a parent the principal
// received or authored, and messages on documents the principal can write.
func (p *MessageAccessPolicy) CheckCreate(ctx context.Context, principal *identity.Principal, msg *Message, parent *Message) error {
	if err := p.CheckModelAccess(principal, OperationCreate); err != nil {
		return err
	}
	if principal.IsAdmin() || msg.IsPrivate() {
		return nil
	}
	pid := principal.PartnerID()
	if parent != nil && (parent.IsRecipient(pid) || parent.IsAuthor(pid)) {
		return nil
	}
	ok, err := p.documentAccess(ctx, principal, msg.Document(), OperationWrite)
	if err != nil {
		return err
	}
	if !ok {
		return AccessDenied(OperationCreate, msg.Model, msg.ResID)
	}
	return nil
}

// CheckWrite allows the author and principals with write access to the
// attached document.
func (p *MessageAccessPolicy) CheckWrite(ctx context.Context, principal *identity.Principal, msg *Message) error {
	if err := p.CheckModelAccess(principal, OperationWrite); err != nil {
		return err
	}
	if principal.IsAdmin() || msg.IsAuthor(principal.PartnerID()) {
		return nil
	}
	ok, err := p.documentAccess(ctx, principal, msg.Document(), OperationWrite)
	if err != nil {
		return err
	}
	if !ok {
		return AccessDenied(OperationWrite, AggregateTypeMessage, msg.ID)
	}
	return nil
}

// CheckAttachmentLink allows the principal to link attachments it uploaded
// and attachments bound to the message's own document when it can write
// that document. Linking exposes the content to every reader of the
// message, so anything else raises ACCESS_DENIED.
func (p *MessageAccessPolicy) CheckAttachmentLink(ctx context.Context, principal *identity.Principal, msg *Message, attachments ...*Attachment) error {
	if principal.IsAdmin() {
		return nil
	}
	var denied []int64
	canWrite := make(map[DocumentRef]bool)
	for _, a := range attachments {
		if a.CreateUID == principal.UserID() {
			continue
		}
		ref := a.Document()
		if ref.IsZero() || ref != msg.Document() {
			denied = append(denied, a.ID)
			continue
		}
		ok, seen := canWrite[ref]
		if !seen {
			var err error
			if ok, err = p.documentAccess(ctx, principal, ref, OperationWrite); err != nil {
				return err
			}
			canWrite[ref] = ok
		}
		if !ok {
			denied = append(denied, a.ID)
		}
	}
	if len(denied) > 0 {
		return AccessDenied(OperationRead, AttachmentModel, denied...)
	}
	return nil
}

// CheckUnlink allows administrators only
func (p *MessageAccessPolicy) CheckUnlink(principal *identity.Principal) error {
	return p.CheckModelAccess(principal, OperationUnlink)
}

// CanReadDocument reports whether the principal can read the document
func (p *MessageAccessPolicy) CanReadDocument(ctx context.Context, principal *identity.Principal, ref DocumentRef) (bool, error) {
	if principal.IsAdmin() {
		return true, nil
	}
	return p.documentAccess(ctx, principal, ref, OperationRead)
}

// VisibilityScope builds the search restriction for the principal; nil
// means unrestricted.
func (p *MessageAccessPolicy) VisibilityScope(ctx context.Context, principal *identity.Principal) (*VisibilityScope, error) {
	if principal.IsAdmin() {
		return nil, nil
	}
	scope := &VisibilityScope{
		PartnerID:        principal.PartnerID(),
		Readable:         make(map[string][]int64),
		RestrictSubtypes: principal.IsShared(),
	}
	for _, model := range p.documents.Models() {
		provider, _ := p.documents.Provider(model)
		ids, err := provider.ReadableIDs(ctx, principal)
		if err != nil {
			return nil, fmt.Errorf("readable %s: %w", model, err)
		}
		if len(ids) > 0 {
			scope.Readable[model] = ids
		}
	}
	return scope, nil
}

func (p *MessageAccessPolicy) documentAccess(ctx context.Context, principal *identity.Principal, ref DocumentRef, op Operation) (bool, error) {
	if ref.IsZero() {
		return false, nil
	}
	provider, ok := p.documents.Provider(ref.Model)
	if !ok {
		return false, nil
	}
	if op == OperationRead {
		return provider.CanRead(ctx, principal, ref.ResID)
	}
	return provider.CanWrite(ctx, principal, ref.ResID)
}

func (p *MessageAccessPolicy) subtypeVisibleToShared(ctx context.Context, msg *Message) (bool, error) {
	if msg.SubtypeID == nil {
		return false, nil
	}
	subtype, err := p.subtypes.FindByID(ctx, *msg.SubtypeID)
	if err != nil {
		if shared.CodeOf(err) == shared.ErrNotFound.Code {
			return false, nil
		}
		return false, err
	}
	return !subtype.Internal, nil
}
