package mail

import (
	"strings"

	"github.com/erp/messaging/internal/domain/identity"
)

// System parameter keys driving reply address synthesis
const (
	ParamCatchallDomain = "mail.catchall.domain"
	ParamCatchallAlias  = "mail.catchall.alias"
)

// CatchallSettings holds the catch-all configuration; an empty Domain
// disables alias-based reply addresses entirely.
type CatchallSettings struct {
	Domain string
	Alias  string
}

// ReplyToContext is what reply address synthesis needs to know about a
// message being created.
type ReplyToContext struct {
	CompanyName   string
	Document      *Document // nil for private messages
	FallbackEmail string    // the message's email_from
}

// DefaultEmailFrom returns the explicit value when set, otherwise the acting
// principal's "Name <email>" address.
func DefaultEmailFrom(explicit string, principal *identity.Principal) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if principal.Email() == "" {
		return "", ErrNoSenderEmail
	}
	return identity.FormatAddress(principal.Name(), principal.Email()), nil
}

// DefaultReplyTo synthesizes a reply address. With a catch-all domain set
// the document's own alias wins, then the catch-all alias; without either
// the fallback email is used.
func DefaultReplyTo(settings CatchallSettings, rc ReplyToContext) string {
	domain := strings.TrimSpace(settings.Domain)
	if domain == "" {
		return rc.FallbackEmail
	}

	displayName := rc.CompanyName
	if rc.Document != nil && rc.Document.Name != "" {
		displayName = strings.TrimSpace(displayName + " " + rc.Document.Name)
	}

	if rc.Document != nil && rc.Document.AliasName != "" {
		return identity.FormatAddress(displayName, rc.Document.AliasName+"@"+domain)
	}
	if alias := strings.TrimSpace(settings.Alias); alias != "" {
		return identity.FormatAddress(displayName, alias+"@"+domain)
	}
	return rc.FallbackEmail
}
