package mail

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/logger"
	"github.com/erp/messaging/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AllowedContentTypes is the whitelist of attachment content types.
// SVG is excluded since it can carry scripts.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"image/webp":         true,
	"image/bmp":          true,
	"image/tiff":         true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.ms-powerpoint":                                             true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"text/plain":               true,
	"text/csv":                 true,
	"message/rfc822":           true,
	"application/zip":          true,
	"application/octet-stream": true,
}

// AttachmentServiceConfig holds configuration for the attachment service
type AttachmentServiceConfig struct {
	// DownloadURLExpiry is the duration for which download URLs are valid
	DownloadURLExpiry time.Duration
	// MaxFileSize is the largest accepted content in bytes
	MaxFileSize int64
}

// DefaultAttachmentServiceConfig returns the default configuration
func DefaultAttachmentServiceConfig() AttachmentServiceConfig {
	return AttachmentServiceConfig{
		DownloadURLExpiry: time.Hour,
		MaxFileSize:       25 << 20,
	}
}

// AttachmentService stores attachment content and enforces who may see it:
// administrators, the uploader, readers of a message the attachment is
// linked to and readers of the document it is bound to.
type AttachmentService struct {
	repo      mail.AttachmentRepository
	messages  mail.MessageRepository
	documents *mail.DocumentRegistry
	policy    *mail.MessageAccessPolicy
	storage   ObjectStorage
	config    AttachmentServiceConfig
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(
	repo mail.AttachmentRepository,
	messages mail.MessageRepository,
	documents *mail.DocumentRegistry,
	policy *mail.MessageAccessPolicy,
	storage ObjectStorage,
) *AttachmentService {
	return &AttachmentService{
		repo:      repo,
		messages:  messages,
		documents: documents,
		policy:    policy,
		storage:   storage,
		config:    DefaultAttachmentServiceConfig(),
	}
}

// SetConfig sets the service configuration
func (s *AttachmentService) SetConfig(config AttachmentServiceConfig) {
	s.config = config
}

// Upload stores the content and creates the attachment record. Binding the
// attachment to a document requires write access to it.
func (s *AttachmentService) Upload(ctx context.Context, p *identity.Principal, req UploadAttachmentRequest) (*AttachmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "attachment", "upload")
	defer span.End()

	attachment, err := s.upload(ctx, p, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToAttachmentResponse(attachment)
	return &resp, nil
}

func (s *AttachmentService) upload(ctx context.Context, p *identity.Principal, req UploadAttachmentRequest) (*mail.Attachment, error) {
	if p.IsPublic() {
		return nil, mail.AccessDenied(mail.OperationCreate, mail.AttachmentModel)
	}
	if int64(len(req.Data)) > s.config.MaxFileSize {
		return nil, shared.NewDomainError("ATTACHMENT_TOO_LARGE",
			fmt.Sprintf("Attachment exceeds the maximum size of %d bytes", s.config.MaxFileSize))
	}
	contentType := normalizeContentType(req.Mimetype)
	if !isAllowedContentType(contentType) {
		return nil, shared.NewDomainError("DISALLOWED_CONTENT_TYPE",
			fmt.Sprintf("Content type '%s' is not allowed", contentType))
	}

	ref := mail.DocumentRef{Model: req.ResModel, ResID: req.ResID}
	if !ref.IsZero() {
		if _, err := s.documents.Document(ctx, ref); err != nil {
			return nil, err
		}
		if !p.IsAdmin() {
			provider, _ := s.documents.Provider(ref.Model)
			ok, err := provider.CanWrite(ctx, p, ref.ResID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, mail.AccessDenied(mail.OperationWrite, ref.Model, ref.ResID)
			}
		}
	}

	attachment, err := mail.NewAttachment(req.Name, contentType, int64(len(req.Data)), p.UserID())
	if err != nil {
		return nil, err
	}
	if !ref.IsZero() {
		attachment.ResModel, attachment.ResID = ref.Model, ref.ResID
	}

	if err := s.storage.Upload(ctx, attachment.StorageKey, req.Data, contentType); err != nil {
		return nil, shared.NewDomainError("UPLOAD_FAILED", "Failed to store attachment content")
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		if derr := s.storage.DeleteObject(ctx, attachment.StorageKey); derr != nil {
			logger.L(ctx).Warn("Failed to clean up orphaned attachment content",
				zap.String("storage_key", attachment.StorageKey),
				zap.Error(derr),
			)
		}
		return nil, err
	}

	logger.L(ctx).Info("Attachment uploaded",
		zap.Int64("attachment_id", attachment.ID),
		zap.Int64("size", attachment.Size),
	)
	return attachment, nil
}

// Get returns the attachment metadata with a download URL
func (s *AttachmentService) Get(ctx context.Context, p *identity.Principal, id int64) (*AttachmentResponse, error) {
	attachment, err := s.readable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	resp := ToAttachmentResponse(attachment)
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, attachment.StorageKey, s.config.DownloadURLExpiry)
	if err != nil {
		logger.L(ctx).Warn("Failed to generate download URL",
			zap.Int64("attachment_id", id),
			zap.Error(err),
		)
		return &resp, nil
	}
	resp.DownloadURL = url
	resp.URLExpires = expiresAt
	return &resp, nil
}

// Content returns the attachment metadata and its content
func (s *AttachmentService) Content(ctx context.Context, p *identity.Principal, id int64) (*AttachmentResponse, []byte, error) {
	attachment, err := s.readable(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.storage.Download(ctx, attachment.StorageKey)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, nil, shared.NewDomainError("CONTENT_NOT_FOUND", "Attachment content is missing")
		}
		return nil, nil, err
	}
	resp := ToAttachmentResponse(attachment)
	return &resp, data, nil
}

// Delete removes an attachment; only its uploader or an administrator may
func (s *AttachmentService) Delete(ctx context.Context, p *identity.Principal, id int64) error {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsAdmin() && attachment.CreateUID != p.UserID() {
		return mail.AccessDenied(mail.OperationUnlink, mail.AttachmentModel, id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.storage.DeleteObject(ctx, attachment.StorageKey); err != nil {
		logger.L(ctx).Warn("Failed to delete attachment content",
			zap.String("storage_key", attachment.StorageKey),
			zap.Error(err),
		)
	}
	return nil
}

func (s *AttachmentService) readable(ctx context.Context, p *identity.Principal, id int64) (*mail.Attachment, error) {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.canRead(ctx, p, attachment)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, mail.AccessDenied(mail.OperationRead, mail.AttachmentModel, id)
	}
	return attachment, nil
}

func (s *AttachmentService) canRead(ctx context.Context, p *identity.Principal, a *mail.Attachment) (bool, error) {
	if p.IsAdmin() || a.CreateUID == p.UserID() {
		return true, nil
	}
	msgs, err := s.messages.FindByAttachmentID(ctx, a.ID)
	if err != nil {
		return false, err
	}
	for _, msg := range msgs {
		ok, err := s.policy.CanRead(ctx, p, msg)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	if a.Document().IsZero() {
		return false, nil
	}
	return s.policy.CanReadDocument(ctx, p, a.Document())
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func isAllowedContentType(contentType string) bool {
	return AllowedContentTypes[contentType]
}
