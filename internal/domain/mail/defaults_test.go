package mail

import (
	"testing"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func employeePrincipal(email string) *identity.Principal {
	user := &identity.User{Groups: []identity.Group{identity.GroupEmployee}}
	user.ID = 2
	partner := &identity.Partner{Name: "Ernest Employee", Email: email}
	partner.ID = 3
	company := &identity.Company{Name: "YourCompany"}
	company.ID = 1
	return identity.NewPrincipal(user, partner, company)
}

func TestDefaultEmailFrom(t *testing.T) {
	t.Run("explicit value wins", func(t *testing.T) {
		from, err := DefaultEmailFrom("test.from@example.com", employeePrincipal("e.e@example.com"))

		require.NoError(t, err)
		assert.Equal(t, "test.from@example.com", from)
	})

	t.Run("falls back to the acting user", func(t *testing.T) {
		from, err := DefaultEmailFrom("", employeePrincipal("e.e@example.com"))

		require.NoError(t, err)
		assert.Equal(t, "Ernest Employee <e.e@example.com>", from)
	})

	t.Run("fails when the acting user has no email", func(t *testing.T) {
		_, err := DefaultEmailFrom("", employeePrincipal(""))

		assert.ErrorIs(t, err, ErrNoSenderEmail)
	})
}

func TestDefaultReplyTo(t *testing.T) {
	const fallback = "Ernest Employee <e.e@example.com>"
	pigs := &Document{Model: ChannelModel, ResID: 5, Name: "Pigs", AliasName: "group+pigs"}
	noAlias := &Document{Model: ChannelModel, ResID: 6, Name: "Birds"}

	tests := []struct {
		name     string
		settings CatchallSettings
		doc      *Document
		expected string
	}{
		{"private without catchall domain", CatchallSettings{}, nil, fallback},
		{"private with domain but no catchall alias", CatchallSettings{Domain: "example.com"}, nil, fallback},
		{"private with catchall alias", CatchallSettings{Domain: "example.com", Alias: "pokemon"}, nil, "YourCompany <pokemon@example.com>"},
		{"document alias ignored without domain", CatchallSettings{Alias: "pokemon"}, pigs, fallback},
		{"document alias with domain", CatchallSettings{Domain: "example.com"}, pigs, "YourCompany Pigs <group+pigs@example.com>"},
		{"document alias beats catchall", CatchallSettings{Domain: "example.com", Alias: "pokemon"}, pigs, "YourCompany Pigs <group+pigs@example.com>"},
		{"document without alias uses catchall", CatchallSettings{Domain: "example.com", Alias: "pokemon"}, noAlias, "YourCompany Birds <pokemon@example.com>"},
		{"document without alias nor catchall", CatchallSettings{Domain: "example.com"}, noAlias, fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultReplyTo(tt.settings, ReplyToContext{
				CompanyName:   "YourCompany",
				Document:      tt.doc,
				FallbackEmail: fallback,
			})
			assert.Equal(t, tt.expected, got)
		})
	}
}
