package mail

import (
	"context"
	"errors"
	"os"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/logger"
	"github.com/erp/messaging/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MessageService handles message creation, reading, updating and deletion
// on behalf of an acting identity.
type MessageService struct {
	messages    mail.MessageRepository
	subtypes    mail.SubtypeRepository
	attachments mail.AttachmentRepository
	partners    identity.PartnerRepository
	params      mail.ParameterRepository
	documents   *mail.DocumentRegistry
	policy      *mail.MessageAccessPolicy
	events      shared.EventPublisher
	metrics     *telemetry.MessageMetrics
	hostname    string
}

// MessageServiceOption configures MessageService
type MessageServiceOption func(*MessageService)

// WithMessageMetrics records message counters
func WithMessageMetrics(metrics *telemetry.MessageMetrics) MessageServiceOption {
	return func(s *MessageService) {
		s.metrics = metrics
	}
}

// WithHostname sets the host embedded in generated Message-Id headers
func WithHostname(hostname string) MessageServiceOption {
	return func(s *MessageService) {
		if hostname != "" {
			s.hostname = hostname
		}
	}
}

// NewMessageService creates a new MessageService
func NewMessageService(
	messages mail.MessageRepository,
	subtypes mail.SubtypeRepository,
	attachments mail.AttachmentRepository,
	partners identity.PartnerRepository,
	params mail.ParameterRepository,
	documents *mail.DocumentRegistry,
	events shared.EventPublisher,
	opts ...MessageServiceOption,
) *MessageService {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "localhost"
	}
	s := &MessageService{
		messages:    messages,
		subtypes:    subtypes,
		attachments: attachments,
		partners:    partners,
		params:      params,
		documents:   documents,
		policy:      mail.NewMessageAccessPolicy(documents, subtypes),
		events:      events,
		hostname:    hostname,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the access policy the service enforces
func (s *MessageService) Policy() *mail.MessageAccessPolicy {
	return s.policy
}

// Create creates a message as the principal, filling in message_id,
// email_from, reply_to, author and record name when not given.
func (s *MessageService) Create(ctx context.Context, p *identity.Principal, req CreateMessageRequest) (*MessageResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "message", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrModel, req.Model,
		telemetry.SpanAttrResID, req.ResID,
		telemetry.SpanAttrUserID, p.UserID(),
	)

	var msg *mail.Message
	var err error
	telemetry.ProfileOperation(ctx, "message.create", req.Model, func(ctx context.Context) {
		msg, err = s.create(ctx, p, req)
	})
	if err != nil {
		s.recordDenied(ctx, err, mail.OperationCreate)
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrMessageID, msg.ID)

	resp := ToMessageResponse(msg, p.PartnerID())
	return &resp, nil
}

func (s *MessageService) create(ctx context.Context, p *identity.Principal, req CreateMessageRequest) (*mail.Message, error) {
	if err := s.policy.CheckModelAccess(p, mail.OperationCreate); err != nil {
		return nil, err
	}

	msg := mail.NewMessage(req.Subject, req.Body)
	msg.AttachTo(mail.DocumentRef{Model: req.Model, ResID: req.ResID})
	msg.NoAutoThread = req.NoAutoThread
	msg.MessageType = mail.MessageTypeEmail
	if req.MessageType != "" {
		msg.MessageType = mail.MessageType(req.MessageType)
	}
	if !msg.MessageType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MESSAGE_TYPE", "Message type must be email, comment or notification")
	}

	var doc *mail.Document
	if !msg.IsPrivate() {
		d, err := s.documents.Document(ctx, msg.Document())
		if err != nil {
			return nil, err
		}
		doc = d
	}

	if req.Subtype != "" {
		subtype, err := s.findSubtype(ctx, req.Subtype)
		if err != nil {
			return nil, err
		}
		msg.SubtypeID = &subtype.ID
	}

	var parent *mail.Message
	if req.ParentID != nil {
		found, err := s.messages.FindByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("PARENT_NOT_FOUND", "Parent message not found")
			}
			return nil, err
		}
		parent = found
		msg.ParentID = &parent.ID
	}

	authorID := p.PartnerID()
	if req.AuthorID != nil {
		authorID = *req.AuthorID
	}
	msg.AuthorID = &authorID

	if err := s.checkPartners(ctx, append([]int64{authorID}, req.PartnerIDs...)); err != nil {
		return nil, err
	}
	msg.AddRecipients(req.PartnerIDs...)
	if err := s.checkAttachments(ctx, p, msg, req.AttachmentIDs); err != nil {
		return nil, err
	}
	msg.AddAttachments(req.AttachmentIDs...)

	if err := s.policy.CheckCreate(ctx, p, msg, parent); err != nil {
		return nil, err
	}

	if err := s.applyDefaults(ctx, p, msg, doc, req); err != nil {
		return nil, err
	}
	msg.CreateUID = p.UserID()

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	msg.MarkCreated()
	s.publish(ctx, msg)
	s.metrics.RecordMessageCreated(ctx, msg.Model, string(msg.MessageType))

	logger.L(ctx).Debug("Message created",
		zap.Int64("message_id", msg.ID),
		zap.String("model", msg.Model),
		zap.Int64("res_id", msg.ResID),
	)
	return msg, nil
}

// applyDefaults fills email_from, reply_to, message_id and record_name
func (s *MessageService) applyDefaults(ctx context.Context, p *identity.Principal, msg *mail.Message, doc *mail.Document, req CreateMessageRequest) error {
	emailFrom, err := mail.DefaultEmailFrom(req.EmailFrom, p)
	if err != nil {
		return err
	}
	msg.EmailFrom = emailFrom

	msg.ReplyTo = req.ReplyTo
	if msg.ReplyTo == "" {
		settings, err := mail.LoadCatchallSettings(ctx, s.params)
		if err != nil {
			return err
		}
		msg.ReplyTo = mail.DefaultReplyTo(settings, mail.ReplyToContext{
			CompanyName:   p.CompanyName(),
			Document:      doc,
			FallbackEmail: msg.EmailFrom,
		})
	}

	msg.MessageID = req.MessageID
	if msg.MessageID == "" {
		msg.MessageID = mail.GenerateTrackingMessageID(mail.TrackingTag(msg.Document(), msg.NoAutoThread), s.hostname)
	}

	if doc != nil && msg.RecordName == "" {
		msg.RecordName = doc.Name
	}
	return nil
}

// Get reads one message
func (s *MessageService) Get(ctx context.Context, p *identity.Principal, id int64) (*MessageResponse, error) {
	msgs, err := s.Read(ctx, p, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, shared.ErrNotFound
	}
	return &msgs[0], nil
}

// Read returns the messages in id order. It fails with ACCESS_DENIED when any
// of them is neither authored by, addressed to, nor attached to a document
// readable by the principal.
func (s *MessageService) Read(ctx context.Context, p *identity.Principal, ids []int64) ([]MessageResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "message", "read")
	defer span.End()

	want := uniqueIDs(ids)
	if len(want) == 0 {
		return []MessageResponse{}, nil
	}
	msgs, err := s.messages.FindByIDs(ctx, want)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(msgs) < len(want) {
		return nil, shared.ErrNotFound
	}
	if err := s.policy.CheckRead(ctx, p, msgs...); err != nil {
		s.recordDenied(ctx, err, mail.OperationRead)
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrResultSize, len(msgs))
	return ToMessageResponses(msgs, p.PartnerID()), nil
}

// Update modifies a message. The author and identities able to write the
// attached document may update it; moving it onto another document also
// requires write access to that document.
func (s *MessageService) Update(ctx context.Context, p *identity.Principal, id int64, req UpdateMessageRequest) (*MessageResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "message", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrMessageID, id)

	var msg *mail.Message
	var err error
	telemetry.ProfileOperation(ctx, "message.update", "", func(ctx context.Context) {
		msg, err = s.update(ctx, p, id, req)
	})
	if err != nil {
		s.recordDenied(ctx, err, mail.OperationWrite)
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToMessageResponse(msg, p.PartnerID())
	return &resp, nil
}

func (s *MessageService) update(ctx context.Context, p *identity.Principal, id int64, req UpdateMessageRequest) (*mail.Message, error) {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CheckWrite(ctx, p, msg); err != nil {
		return nil, err
	}
	previous := msg.Document()

	if req.Subject != nil {
		msg.Subject = *req.Subject
	}
	if req.Body != nil {
		msg.Body = *req.Body
	}
	if req.Model != nil || req.ResID != nil {
		ref := previous
		if req.Model != nil {
			ref.Model = *req.Model
		}
		if req.ResID != nil {
			ref.ResID = *req.ResID
		}
		if err := s.moveTo(ctx, p, msg, ref); err != nil {
			return nil, err
		}
	}
	if req.Subtype != nil {
		msg.SubtypeID = nil
		if *req.Subtype != "" {
			subtype, err := s.findSubtype(ctx, *req.Subtype)
			if err != nil {
				return nil, err
			}
			msg.SubtypeID = &subtype.ID
		}
	}
	if req.AuthorID != nil {
		if err := s.checkPartners(ctx, []int64{*req.AuthorID}); err != nil {
			return nil, err
		}
		msg.AuthorID = req.AuthorID
	}
	if req.PartnerIDs != nil {
		if err := s.checkPartners(ctx, *req.PartnerIDs); err != nil {
			return nil, err
		}
		msg.SetRecipients(*req.PartnerIDs)
	}
	if len(req.AddPartnerIDs) > 0 {
		if err := s.checkPartners(ctx, req.AddPartnerIDs); err != nil {
			return nil, err
		}
		msg.AddRecipients(req.AddPartnerIDs...)
	}
	if len(req.AttachmentIDs) > 0 {
		if err := s.checkAttachments(ctx, p, msg, req.AttachmentIDs); err != nil {
			return nil, err
		}
		msg.AddAttachments(req.AttachmentIDs...)
	}

	if err := s.messages.Update(ctx, msg); err != nil {
		return nil, err
	}
	msg.MarkUpdated(previous)
	s.publish(ctx, msg)
	return msg, nil
}

// moveTo re-attaches the message, checking the target document
func (s *MessageService) moveTo(ctx context.Context, p *identity.Principal, msg *mail.Message, ref mail.DocumentRef) error {
	if ref == msg.Document() {
		return nil
	}
	moved := *msg
	moved.AttachTo(ref)
	if moved.IsPrivate() {
		msg.AttachTo(ref)
		msg.RecordName = ""
		return nil
	}
	doc, err := s.documents.Document(ctx, moved.Document())
	if err != nil {
		return err
	}
	if !p.IsAdmin() {
		provider, ok := s.documents.Provider(ref.Model)
		if !ok {
			return mail.ErrUnknownModel
		}
		writable, err := provider.CanWrite(ctx, p, ref.ResID)
		if err != nil {
			return err
		}
		if !writable {
			return mail.AccessDenied(mail.OperationWrite, ref.Model, ref.ResID)
		}
	}
	msg.AttachTo(ref)
	msg.RecordName = doc.Name
	return nil
}

// Unlink deletes messages; only administrators may delete
func (s *MessageService) Unlink(ctx context.Context, p *identity.Principal, ids []int64) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "message", "unlink")
	defer span.End()

	if err := s.policy.CheckUnlink(p); err != nil {
		s.recordDenied(ctx, err, mail.OperationUnlink)
		telemetry.RecordError(span, err)
		return err
	}

	msgs, err := s.messages.FindByIDs(ctx, ids)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	for _, msg := range msgs {
		if err := s.messages.Delete(ctx, msg.ID); err != nil {
			telemetry.RecordError(span, err)
			return err
		}
		msg.MarkDeleted()
		s.publish(ctx, msg)
	}
	s.metrics.RecordMessagesDeleted(ctx, len(msgs))

	logger.L(ctx).Info("Messages deleted", zap.Int("count", len(msgs)))
	return nil
}

// Search returns one page of the messages visible to the principal, newest
// first, and the total number of matches.
func (s *MessageService) Search(ctx context.Context, p *identity.Principal, req SearchMessagesRequest) ([]MessageResponse, int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "message", "search")
	defer span.End()

	if err := s.policy.CheckModelAccess(p, mail.OperationRead); err != nil {
		return nil, 0, err
	}
	scope, err := s.policy.VisibilityScope(ctx, p)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}

	filter := mail.MessageFilter{
		Filter:      shared.DefaultFilter(),
		Subject:     req.Subject,
		Body:        req.Body,
		Model:       req.Model,
		ResID:       req.ResID,
		AuthorID:    req.AuthorID,
		ParentID:    req.ParentID,
		MessageType: mail.MessageType(req.MessageType),
	}
	filter.Search = req.Search
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	if req.Starred {
		filter.StarredBy = p.PartnerID()
	}

	var msgs []*mail.Message
	var total int64
	telemetry.ProfileOperation(ctx, "message.search", req.Model, func(ctx context.Context) {
		msgs, total, err = s.messages.Search(ctx, filter, scope)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrResultSize, len(msgs))
	return ToMessageResponses(msgs, p.PartnerID()), total, nil
}

// ToggleStarred flips the starred flag of the message for the principal
// only and returns the new state.
func (s *MessageService) ToggleStarred(ctx context.Context, p *identity.Principal, id int64) (bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "message", "toggle_starred")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrMessageID, id,
		telemetry.SpanAttrPartnerID, p.PartnerID(),
	)

	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return false, err
	}
	if err := s.policy.CheckRead(ctx, p, msg); err != nil {
		s.recordDenied(ctx, err, mail.OperationRead)
		telemetry.RecordError(span, err)
		return false, err
	}

	starred := msg.ToggleStar(p.PartnerID())
	if err := s.messages.SetStarred(ctx, msg.ID, p.PartnerID(), starred); err != nil {
		telemetry.RecordError(span, err)
		return false, err
	}
	s.publish(ctx, msg)
	s.metrics.RecordStarToggle(ctx, starred)
	return starred, nil
}

func (s *MessageService) publish(ctx context.Context, msg *mail.Message) {
	events := msg.PullEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Error("Failed to publish message events",
			zap.Int64("message_id", msg.ID),
			zap.Error(err),
		)
	}
}

func (s *MessageService) recordDenied(ctx context.Context, err error, op mail.Operation) {
	if shared.CodeOf(err) == mail.CodeAccessDenied {
		s.metrics.RecordAccessDenied(ctx, string(op))
		logger.L(ctx).Warn("Message access denied",
			zap.String("operation", string(op)),
			zap.Error(err),
		)
	}
}

func (s *MessageService) findSubtype(ctx context.Context, xmlID string) (*mail.Subtype, error) {
	subtype, err := s.subtypes.FindByXMLID(ctx, xmlID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError("SUBTYPE_NOT_FOUND", "Unknown message subtype: "+xmlID)
	}
	return subtype, err
}

func (s *MessageService) checkPartners(ctx context.Context, ids []int64) error {
	want := uniqueIDs(ids)
	if len(want) == 0 {
		return nil
	}
	found, err := s.partners.FindByIDs(ctx, want)
	if err != nil {
		return err
	}
	if len(found) != len(want) {
		return shared.NewDomainError("PARTNER_NOT_FOUND", "One or more partners do not exist")
	}
	return nil
}

// checkAttachments verifies the attachments exist and that the principal
// may link them to msg, whose document must already be final.
func (s *MessageService) checkAttachments(ctx context.Context, p *identity.Principal, msg *mail.Message, ids []int64) error {
	want := uniqueIDs(ids)
	if len(want) == 0 {
		return nil
	}
	found, err := s.attachments.FindByIDs(ctx, want)
	if err != nil {
		return err
	}
	if len(found) != len(want) {
		return shared.NewDomainError("ATTACHMENT_NOT_FOUND", "One or more attachments do not exist")
	}
	return s.policy.CheckAttachmentLink(ctx, p, msg, found...)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
