package mail

import (
	"fmt"
	"strings"

	"github.com/erp/messaging/internal/domain/shared"
)

// Error codes raised by the mail domain
const (
	CodeAccessDenied  = "ACCESS_DENIED"
	CodeNoSenderEmail = "NO_SENDER_EMAIL"
	CodeUnknownModel  = "UNKNOWN_MODEL"
)

var (
	// ErrAccessDenied is returned when the acting identity may not perform an operation
	ErrAccessDenied = shared.NewDomainError(CodeAccessDenied, "Access denied")
	// ErrNoSenderEmail is returned when no sender address can be derived
	ErrNoSenderEmail = shared.NewDomainError(CodeNoSenderEmail, "Unable to send email, please configure the sender's email address")
	// ErrUnknownModel is returned for documents of an unregistered model
	ErrUnknownModel = shared.NewDomainError(CodeUnknownModel, "Unknown document model")
)

// AccessDenied builds an ACCESS_DENIED error naming the operation and the
// records involved.
func AccessDenied(op Operation, model string, ids ...int64) error {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	msg := fmt.Sprintf("The requested operation (%s) cannot be completed due to security restrictions (document type: %s", op, model)
	if len(parts) > 0 {
		msg += ", ids: " + strings.Join(parts, ",")
	}
	msg += ")"
	return shared.NewDomainError(CodeAccessDenied, msg)
}
