package mail

import (
	"context"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/logger"
	"github.com/erp/messaging/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ThreadService posts on and lists the message threads of documents
type ThreadService struct {
	messages  *MessageService
	repo      mail.MessageRepository
	documents *mail.DocumentRegistry
	cache     mail.ThreadCache
	metrics   *telemetry.MessageMetrics
}

// NewThreadService creates a new ThreadService. A nil cache reads the
// repository every time.
func NewThreadService(
	messages *MessageService,
	repo mail.MessageRepository,
	documents *mail.DocumentRegistry,
	cache mail.ThreadCache,
	metrics *telemetry.MessageMetrics,
) *ThreadService {
	return &ThreadService{
		messages:  messages,
		repo:      repo,
		documents: documents,
		cache:     cache,
		metrics:   metrics,
	}
}

// MessagePost creates a message on the document's thread. It is a comment
// with the comment subtype unless told otherwise, and goes through the
// regular create path so the document write check applies.
func (s *ThreadService) MessagePost(ctx context.Context, p *identity.Principal, ref mail.DocumentRef, req PostMessageRequest) (*MessageResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "thread", "message_post")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrModel, ref.Model,
		telemetry.SpanAttrResID, ref.ResID,
	)

	if ref.IsZero() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "A model and a record id are required to post a message")
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = string(mail.MessageTypeComment)
	}
	subtype := req.Subtype
	if subtype == "" {
		subtype = mail.SubtypeComment
	}

	var resp *MessageResponse
	var err error
	telemetry.ProfileOperation(ctx, "thread.message_post", ref.Model, func(ctx context.Context) {
		resp, err = s.messages.Create(ctx, p, CreateMessageRequest{
			Subject:       req.Subject,
			Body:          req.Body,
			Model:         ref.Model,
			ResID:         ref.ResID,
			MessageType:   messageType,
			Subtype:       subtype,
			ParentID:      req.ParentID,
			PartnerIDs:    req.PartnerIDs,
			AttachmentIDs: req.AttachmentIDs,
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

// MessageIDs returns the ids of the document's messages visible to the
// principal, newest first. Portal and public users bypass the cache since
// their view is filtered by subtype.
func (s *ThreadService) MessageIDs(ctx context.Context, p *identity.Principal, ref mail.DocumentRef) (*ThreadResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "thread", "message_ids")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrModel, ref.Model,
		telemetry.SpanAttrResID, ref.ResID,
	)

	if _, ok := s.documents.Provider(ref.Model); !ok {
		return nil, mail.ErrUnknownModel
	}
	readable, err := s.messages.Policy().CanReadDocument(ctx, p, ref)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !readable {
		err := mail.AccessDenied(mail.OperationRead, ref.Model, ref.ResID)
		s.metrics.RecordAccessDenied(ctx, string(mail.OperationRead))
		telemetry.RecordError(span, err)
		return nil, err
	}

	var ids []int64
	telemetry.ProfileOperation(ctx, "thread.message_ids", ref.Model, func(ctx context.Context) {
		if p.IsShared() {
			ids, err = s.sharedMessageIDs(ctx, p, ref)
		} else {
			ids, err = s.cachedMessageIDs(ctx, ref)
		}
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrResultSize, len(ids))

	return &ThreadResponse{Model: ref.Model, ResID: ref.ResID, MessageIDs: ids, Count: len(ids)}, nil
}

func (s *ThreadService) cachedMessageIDs(ctx context.Context, ref mail.DocumentRef) ([]int64, error) {
	if s.cache != nil {
		ids, hit, err := s.cache.Get(ctx, ref)
		if err != nil {
			logger.L(ctx).Warn("Thread cache lookup failed", zap.Error(err))
		}
		s.metrics.RecordThreadCacheLookup(ctx, hit)
		if hit {
			return ids, nil
		}
	}

	ids, err := s.repo.ThreadMessageIDs(ctx, ref)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, ref, ids); err != nil {
			logger.L(ctx).Warn("Thread cache store failed", zap.Error(err))
		}
	}
	return ids, nil
}

func (s *ThreadService) sharedMessageIDs(ctx context.Context, p *identity.Principal, ref mail.DocumentRef) ([]int64, error) {
	scope, err := s.messages.Policy().VisibilityScope(ctx, p)
	if err != nil {
		return nil, err
	}
	filter := mail.MessageFilter{Filter: shared.DefaultFilter(), Model: ref.Model, ResID: ref.ResID}
	filter.PageSize = 0
	msgs, _, err := s.repo.Search(ctx, filter, scope)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids, nil
}

// ThreadCacheInvalidator drops the cached threads of the documents a
// message event touched. The event bus runs it before the write returns.
type ThreadCacheInvalidator struct {
	cache mail.ThreadCache
}

// NewThreadCacheInvalidator creates the invalidation handler
func NewThreadCacheInvalidator(cache mail.ThreadCache) *ThreadCacheInvalidator {
	return &ThreadCacheInvalidator{cache: cache}
}

// EventTypes returns the message events that change a thread
func (h *ThreadCacheInvalidator) EventTypes() []string {
	return []string{
		mail.EventTypeMessageCreated,
		mail.EventTypeMessageUpdated,
		mail.EventTypeMessageDeleted,
	}
}

// Handle invalidates the affected documents
func (h *ThreadCacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	refs := mail.AffectedDocuments(event)
	if len(refs) == 0 {
		return nil
	}
	return h.cache.Invalidate(ctx, refs...)
}
