package cache

import (
	"fmt"

	"github.com/erp/messaging/internal/domain/mail"
)

// DefaultKeyPrefix namespaces thread cache keys
const DefaultKeyPrefix = "mail:thread:"

// threadKey builds the cache key of a document, e.g. "mail:thread:mail.channel:7"
func threadKey(prefix string, ref mail.DocumentRef) string {
	return fmt.Sprintf("%s%s:%d", prefix, ref.Model, ref.ResID)
}
