package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageFixture struct {
	repo     *GormMessageRepository
	comment  *mail.Subtype
	note     *mail.Subtype
	authored *mail.Message
	received *mail.Message
	onDoc    *mail.Message
	internal *mail.Message
	other    *mail.Message
}

// newMessageFixture seeds messages around partner 1:
// authored by it, addressed to it, on channel 10 and 11, and on channel 20.
func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)
	subtypes := NewGormSubtypeRepository(db)
	f := &messageFixture{repo: NewGormMessageRepository(db)}

	f.comment = mail.NewSubtype(mail.SubtypeComment, "Discussions", false)
	f.note = mail.NewSubtype(mail.SubtypeNote, "Note", true)
	require.NoError(t, subtypes.Create(ctx, f.comment))
	require.NoError(t, subtypes.Create(ctx, f.note))

	create := func(subject, body string, author int64, ref mail.DocumentRef, subtype *mail.Subtype, recipients ...int64) *mail.Message {
		m := mail.NewMessage(subject, body)
		m.MessageType = mail.MessageTypeComment
		m.AuthorID = int64Ptr(author)
		m.AttachTo(ref)
		if subtype != nil {
			m.SubtypeID = int64Ptr(subtype.ID)
		}
		m.AddRecipients(recipients...)
		require.NoError(t, f.repo.Create(ctx, m))
		return m
	}

	f.authored = create("Mine", "Alpha body", 1, mail.DocumentRef{}, nil)
	f.received = create("ToMe", "beta", 2, mail.DocumentRef{}, nil, 1, 3)
	f.onDoc = create("Doc", "gAmma", 2, mail.DocumentRef{Model: mail.ChannelModel, ResID: 10}, f.comment)
	f.internal = create("Internal", "delta", 2, mail.DocumentRef{Model: mail.ChannelModel, ResID: 11}, f.note)
	f.other = create("Other", "epsilon", 2, mail.DocumentRef{Model: mail.ChannelModel, ResID: 20}, f.comment)
	return f
}

func ids(msgs []*mail.Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestGormMessageRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t)

	t.Run("find loads relations", func(t *testing.T) {
		found, err := f.repo.FindByID(ctx, f.received.ID)
		require.NoError(t, err)
		assert.Equal(t, "ToMe", found.Subject)
		assert.Equal(t, []int64{1, 3}, found.PartnerIDs)
		assert.Equal(t, mail.MessageTypeComment, found.MessageType)
		assert.True(t, found.IsPrivate())

		_, err = f.repo.FindByID(ctx, 9999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update replaces recipients and attachments", func(t *testing.T) {
		msg, err := f.repo.FindByID(ctx, f.received.ID)
		require.NoError(t, err)
		msg.SetRecipients([]int64{4})
		msg.AddAttachments(5, 6)
		msg.Body = "changed"
		require.NoError(t, f.repo.Update(ctx, msg))

		found, err := f.repo.FindByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{4}, found.PartnerIDs)
		assert.Equal(t, []int64{5, 6}, found.AttachmentIDs)
		assert.Equal(t, "changed", found.Body)

		linked, err := f.repo.FindByAttachmentID(ctx, 6)
		require.NoError(t, err)
		assert.Equal(t, []int64{msg.ID}, ids(linked))
	})

	t.Run("stars are per partner and idempotent", func(t *testing.T) {
		require.NoError(t, f.repo.SetStarred(ctx, f.onDoc.ID, 1, true))
		require.NoError(t, f.repo.SetStarred(ctx, f.onDoc.ID, 1, true))
		require.NoError(t, f.repo.SetStarred(ctx, f.onDoc.ID, 2, true))
		require.NoError(t, f.repo.SetStarred(ctx, f.onDoc.ID, 2, false))

		found, err := f.repo.FindByID(ctx, f.onDoc.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, found.StarredPartnerIDs)

		filter := mail.MessageFilter{Filter: shared.DefaultFilter(), StarredBy: 1}
		starred, total, err := f.repo.Search(ctx, filter, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []int64{f.onDoc.ID}, ids(starred))
	})

	t.Run("thread ids newest first", func(t *testing.T) {
		second := mail.NewMessage("again", "")
		second.AttachTo(f.onDoc.Document())
		require.NoError(t, f.repo.Create(ctx, second))

		threadIDs, err := f.repo.ThreadMessageIDs(ctx, f.onDoc.Document())
		require.NoError(t, err)
		assert.Equal(t, []int64{second.ID, f.onDoc.ID}, threadIDs)

		empty, err := f.repo.ThreadMessageIDs(ctx, mail.DocumentRef{})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("delete removes message and detaches replies", func(t *testing.T) {
		reply := mail.NewMessage("re", "")
		reply.ParentID = int64Ptr(f.other.ID)
		require.NoError(t, f.repo.Create(ctx, reply))

		require.NoError(t, f.repo.Delete(ctx, f.other.ID))
		_, err := f.repo.FindByID(ctx, f.other.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		found, err := f.repo.FindByID(ctx, reply.ID)
		require.NoError(t, err)
		assert.Nil(t, found.ParentID)

		assert.ErrorIs(t, f.repo.Delete(ctx, f.other.ID), shared.ErrNotFound)
	})
}

func TestGormMessageRepository_Search(t *testing.T) {
	ctx := context.Background()
	f := newMessageFixture(t)
	all := mail.MessageFilter{Filter: shared.DefaultFilter()}

	t.Run("unrestricted search returns everything newest first", func(t *testing.T) {
		msgs, total, err := f.repo.Search(ctx, all, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Equal(t, []int64{f.other.ID, f.internal.ID, f.onDoc.ID, f.received.ID, f.authored.ID}, ids(msgs))
	})

	t.Run("scope keeps authored, received and readable documents", func(t *testing.T) {
		scope := &mail.VisibilityScope{
			PartnerID: 1,
			Readable:  map[string][]int64{mail.ChannelModel: {10, 11}},
		}
		msgs, total, err := f.repo.Search(ctx, all, scope)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Equal(t, []int64{f.internal.ID, f.onDoc.ID, f.received.ID, f.authored.ID}, ids(msgs))
	})

	t.Run("restricted subtypes hide internal and missing subtypes of others", func(t *testing.T) {
		scope := &mail.VisibilityScope{
			PartnerID:        1,
			Readable:         map[string][]int64{mail.ChannelModel: {10, 11}},
			RestrictSubtypes: true,
		}
		msgs, _, err := f.repo.Search(ctx, all, scope)
		require.NoError(t, err)
		assert.Equal(t, []int64{f.onDoc.ID, f.authored.ID}, ids(msgs))
	})

	t.Run("body and subject substring match", func(t *testing.T) {
		filter := all
		filter.Body = "GAMMA"
		msgs, _, err := f.repo.Search(ctx, filter, nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{f.onDoc.ID}, ids(msgs))

		filter = all
		filter.Subject = "Doc"
		msgs, _, err = f.repo.Search(ctx, filter, nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{f.onDoc.ID}, ids(msgs))
	})

	t.Run("document filter and pagination", func(t *testing.T) {
		filter := all
		filter.Model = mail.ChannelModel
		filter.PageSize = 2
		filter.Page = 2
		msgs, total, err := f.repo.Search(ctx, filter, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []int64{f.onDoc.ID}, ids(msgs))
	})
}

func TestGormMessageRepository_ThreadMessageIDsSQL(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormMessageRepository(db.DB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "mail_message" WHERE model = $1 AND res_id = $2 ORDER BY id DESC`)).
		WithArgs(mail.ChannelModel, int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(1))

	got, err := repo.ThreadMessageIDs(context.Background(), mail.DocumentRef{Model: mail.ChannelModel, ResID: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
