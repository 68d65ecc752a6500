package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_ToggleStar(t *testing.T) {
	msg := NewMessage("1", "My Body")
	msg.ID = 10

	t.Run("star is per partner", func(t *testing.T) {
		assert.True(t, msg.ToggleStar(3))
		assert.True(t, msg.ToggleStar(4))

		assert.True(t, msg.IsStarredBy(3))
		assert.True(t, msg.IsStarredBy(4))
	})

	t.Run("unstarring leaves other partners untouched", func(t *testing.T) {
		assert.False(t, msg.ToggleStar(3))

		assert.False(t, msg.IsStarredBy(3))
		assert.True(t, msg.IsStarredBy(4))
	})

	t.Run("each toggle records an event", func(t *testing.T) {
		events := msg.PendingEvents()
		require.Len(t, events, 3)
		last, ok := events[2].(*MessageStarToggledEvent)
		require.True(t, ok)
		assert.Equal(t, int64(3), last.PartnerID)
		assert.False(t, last.Starred)
		assert.Equal(t, int64(10), last.AggregateID())
	})
}

func TestMessage_Recipients(t *testing.T) {
	msg := NewMessage("", "")

	msg.AddRecipients(1, 2, 2, 0)
	assert.Equal(t, []int64{1, 2}, msg.PartnerIDs)

	msg.AddRecipients(3, 1)
	assert.Equal(t, []int64{1, 2, 3}, msg.PartnerIDs)
	assert.True(t, msg.IsRecipient(3))

	msg.SetRecipients([]int64{5})
	assert.Equal(t, []int64{5}, msg.PartnerIDs)
	assert.False(t, msg.IsRecipient(1))
}

func TestMessage_Document(t *testing.T) {
	msg := NewMessage("", "")
	assert.True(t, msg.IsPrivate())

	msg.AttachTo(DocumentRef{Model: ChannelModel, ResID: 4})
	assert.False(t, msg.IsPrivate())
	assert.Equal(t, DocumentRef{Model: ChannelModel, ResID: 4}, msg.Document())

	msg.AttachTo(DocumentRef{Model: ChannelModel})
	assert.True(t, msg.IsPrivate())
	assert.Empty(t, msg.Model)
}

func TestMessage_IsAuthor(t *testing.T) {
	msg := NewMessage("", "")
	assert.False(t, msg.IsAuthor(1))

	author := int64(1)
	msg.AuthorID = &author
	assert.True(t, msg.IsAuthor(1))
	assert.False(t, msg.IsAuthor(2))
}

func TestAffectedDocuments(t *testing.T) {
	msg := NewMessage("", "")
	msg.ID = 1
	msg.AttachTo(DocumentRef{Model: ChannelModel, ResID: 2})

	t.Run("created", func(t *testing.T) {
		refs := AffectedDocuments(NewMessageCreatedEvent(msg))
		assert.Equal(t, []DocumentRef{{Model: ChannelModel, ResID: 2}}, refs)
	})

	t.Run("moved between documents", func(t *testing.T) {
		refs := AffectedDocuments(NewMessageUpdatedEvent(msg, DocumentRef{Model: ChannelModel, ResID: 9}))
		assert.ElementsMatch(t, []DocumentRef{{Model: ChannelModel, ResID: 2}, {Model: ChannelModel, ResID: 9}}, refs)
	})

	t.Run("private message touches nothing", func(t *testing.T) {
		private := NewMessage("", "")
		assert.Empty(t, AffectedDocuments(NewMessageDeletedEvent(private)))
	})

	t.Run("star toggle touches nothing", func(t *testing.T) {
		assert.Empty(t, AffectedDocuments(NewMessageStarToggledEvent(msg, 1, true)))
	})
}
