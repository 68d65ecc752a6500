package persistence

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMessageRepository implements MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormMessageRepository) WithTx(tx *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: tx}
}

// Create inserts the message with its recipients, stars and attachments
func (r *GormMessageRepository) Create(ctx context.Context, msg *mail.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.MessageModelFromDomain(msg)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		msg.ID = model.ID
		if err := saveRecipients(tx, msg); err != nil {
			return err
		}
		if err := saveAttachmentLinks(tx, msg); err != nil {
			return err
		}
		if len(msg.StarredPartnerIDs) > 0 {
			stars := make([]models.MessageStarModel, len(msg.StarredPartnerIDs))
			for i, pid := range msg.StarredPartnerIDs {
				stars[i] = models.MessageStarModel{MailMessageID: msg.ID, ResPartnerID: pid}
			}
			if err := tx.Create(&stars).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Update saves scalar fields and replaces recipients and attachment links.
// Stars are left untouched; they change through SetStarred only.
func (r *GormMessageRepository) Update(ctx context.Context, msg *mail.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.MessageModelFromDomain(msg)
		result := tx.Model(model).Select("*").Omit("id", "created_at").Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if err := saveRecipients(tx, msg); err != nil {
			return err
		}
		return saveAttachmentLinks(tx, msg)
	})
}

// Delete removes the message and its relations
func (r *GormMessageRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("mail_message_id = ?", id).Delete(&models.MessageRecipientModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("mail_message_id = ?", id).Delete(&models.MessageStarModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", id).Delete(&models.MessageAttachmentModel{}).Error; err != nil {
			return err
		}
		// replies lose their parent rather than dangling
		if err := tx.Model(&models.MessageModel{}).Where("parent_id = ?", id).Update("parent_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.MessageModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID loads a message with its relations
func (r *GormMessageRepository) FindByID(ctx context.Context, id int64) (*mail.Message, error) {
	var model models.MessageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	msgs, err := r.toDomain(ctx, []models.MessageModel{model})
	if err != nil {
		return nil, err
	}
	return msgs[0], nil
}

// FindByIDs loads messages ordered by id; missing ids are skipped
func (r *GormMessageRepository) FindByIDs(ctx context.Context, ids []int64) ([]*mail.Message, error) {
	if len(ids) == 0 {
		return []*mail.Message{}, nil
	}
	var messageModels []models.MessageModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&messageModels).Error; err != nil {
		return nil, err
	}
	return r.toDomain(ctx, messageModels)
}

// Search returns one page of matching messages visible within scope, and
// the total number of matches. A nil scope is unrestricted.
func (r *GormMessageRepository) Search(ctx context.Context, filter mail.MessageFilter, scope *mail.VisibilityScope) ([]*mail.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MessageModel{})
	query = r.applyFilter(query, filter)
	query = r.applyScope(query, scope)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(messageOrder(filter.OrderBy, filter.OrderDir))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var messageModels []models.MessageModel
	if err := query.Find(&messageModels).Error; err != nil {
		return nil, 0, err
	}
	msgs, err := r.toDomain(ctx, messageModels)
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// ThreadMessageIDs returns the ids of the document's messages, newest first
func (r *GormMessageRepository) ThreadMessageIDs(ctx context.Context, ref mail.DocumentRef) ([]int64, error) {
	ids := make([]int64, 0)
	if ref.IsZero() {
		return ids, nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.MessageModel{}).
		Where("model = ? AND res_id = ?", ref.Model, ref.ResID).
		Order("id DESC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SetStarred adds or removes one partner's star
func (r *GormMessageRepository) SetStarred(ctx context.Context, messageID, partnerID int64, starred bool) error {
	db := r.db.WithContext(ctx)
	if starred {
		return db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.MessageStarModel{MailMessageID: messageID, ResPartnerID: partnerID}).Error
	}
	return db.Where("mail_message_id = ? AND res_partner_id = ?", messageID, partnerID).
		Delete(&models.MessageStarModel{}).Error
}

// FindByAttachmentID returns the messages an attachment is linked to
func (r *GormMessageRepository) FindByAttachmentID(ctx context.Context, attachmentID int64) ([]*mail.Message, error) {
	linked := r.db.Model(&models.MessageAttachmentModel{}).Select("message_id").Where("attachment_id = ?", attachmentID)
	var messageModels []models.MessageModel
	if err := r.db.WithContext(ctx).Where("id IN (?)", linked).Order("id").Find(&messageModels).Error; err != nil {
		return nil, err
	}
	return r.toDomain(ctx, messageModels)
}

func (r *GormMessageRepository) applyFilter(query *gorm.DB, filter mail.MessageFilter) *gorm.DB {
	if filter.Subject != "" {
		query = query.Where("mail_message.subject LIKE ?", "%"+filter.Subject+"%")
	}
	if filter.Body != "" {
		query = query.Where("LOWER(mail_message.body) LIKE ?", "%"+strings.ToLower(filter.Body)+"%")
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(mail_message.subject) LIKE ? OR LOWER(mail_message.body) LIKE ?", term, term)
	}
	if filter.Model != "" {
		query = query.Where("mail_message.model = ?", filter.Model)
	}
	if filter.ResID > 0 {
		query = query.Where("mail_message.res_id = ?", filter.ResID)
	}
	if filter.AuthorID > 0 {
		query = query.Where("mail_message.author_id = ?", filter.AuthorID)
	}
	if filter.MessageType != "" {
		query = query.Where("mail_message.message_type = ?", string(filter.MessageType))
	}
	if filter.ParentID > 0 {
		query = query.Where("mail_message.parent_id = ?", filter.ParentID)
	}
	if filter.StarredBy > 0 {
		query = query.Where(
			"EXISTS (SELECT 1 FROM mail_message_res_partner_starred_rel s WHERE s.mail_message_id = mail_message.id AND s.res_partner_id = ?)",
			filter.StarredBy)
	}
	return query
}

// applyScope keeps messages authored by the partner, addressed to it, or
// attached to one of the readable documents.
func (r *GormMessageRepository) applyScope(query *gorm.DB, scope *mail.VisibilityScope) *gorm.DB {
	if scope == nil {
		return query
	}
	visible := r.db.Where("mail_message.author_id = ?", scope.PartnerID).
		Or("EXISTS (SELECT 1 FROM mail_message_res_partner_rel p WHERE p.mail_message_id = mail_message.id AND p.res_partner_id = ?)",
			scope.PartnerID)
	for _, model := range sortedKeys(scope.Readable) {
		visible = visible.Or("mail_message.model = ? AND mail_message.res_id IN ?", model, scope.Readable[model])
	}
	query = query.Where(visible)

	if scope.RestrictSubtypes {
		public := r.db.Model(&models.SubtypeModel{}).Select("id").Where("internal = ?", false)
		query = query.Where(
			r.db.Where("mail_message.author_id = ?", scope.PartnerID).
				Or("mail_message.subtype_id IN (?)", public))
	}
	return query
}

// toDomain converts models and batch-loads their relations
func (r *GormMessageRepository) toDomain(ctx context.Context, messageModels []models.MessageModel) ([]*mail.Message, error) {
	msgs := make([]*mail.Message, len(messageModels))
	if len(messageModels) == 0 {
		return msgs, nil
	}
	ids := make([]int64, len(messageModels))
	byID := make(map[int64]*mail.Message, len(messageModels))
	for i := range messageModels {
		msgs[i] = messageModels[i].ToDomain()
		ids[i] = msgs[i].ID
		byID[msgs[i].ID] = msgs[i]
	}

	var recipients []models.MessageRecipientModel
	if err := r.db.WithContext(ctx).Where("mail_message_id IN ?", ids).
		Order("res_partner_id").Find(&recipients).Error; err != nil {
		return nil, err
	}
	for _, rel := range recipients {
		m := byID[rel.MailMessageID]
		m.PartnerIDs = append(m.PartnerIDs, rel.ResPartnerID)
	}

	var stars []models.MessageStarModel
	if err := r.db.WithContext(ctx).Where("mail_message_id IN ?", ids).
		Order("res_partner_id").Find(&stars).Error; err != nil {
		return nil, err
	}
	for _, rel := range stars {
		m := byID[rel.MailMessageID]
		m.StarredPartnerIDs = append(m.StarredPartnerIDs, rel.ResPartnerID)
	}

	var attachments []models.MessageAttachmentModel
	if err := r.db.WithContext(ctx).Where("message_id IN ?", ids).
		Order("attachment_id").Find(&attachments).Error; err != nil {
		return nil, err
	}
	for _, rel := range attachments {
		m := byID[rel.MessageID]
		m.AttachmentIDs = append(m.AttachmentIDs, rel.AttachmentID)
	}
	return msgs, nil
}

func saveRecipients(tx *gorm.DB, msg *mail.Message) error {
	if err := tx.Where("mail_message_id = ?", msg.ID).Delete(&models.MessageRecipientModel{}).Error; err != nil {
		return err
	}
	if len(msg.PartnerIDs) == 0 {
		return nil
	}
	rels := make([]models.MessageRecipientModel, len(msg.PartnerIDs))
	for i, pid := range msg.PartnerIDs {
		rels[i] = models.MessageRecipientModel{MailMessageID: msg.ID, ResPartnerID: pid}
	}
	return tx.Create(&rels).Error
}

func saveAttachmentLinks(tx *gorm.DB, msg *mail.Message) error {
	if err := tx.Where("message_id = ?", msg.ID).Delete(&models.MessageAttachmentModel{}).Error; err != nil {
		return err
	}
	if len(msg.AttachmentIDs) == 0 {
		return nil
	}
	rels := make([]models.MessageAttachmentModel, len(msg.AttachmentIDs))
	for i, aid := range msg.AttachmentIDs {
		rels[i] = models.MessageAttachmentModel{MessageID: msg.ID, AttachmentID: aid}
	}
	return tx.Create(&rels).Error
}

func sortedKeys(m map[string][]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
