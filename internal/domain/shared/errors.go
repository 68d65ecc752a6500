package shared

import "errors"

// DomainError is a business rule violation identified by a stable code.
// The code travels to API clients; the message is for humans.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string { return e.Message }

// Is compares codes only, so a reworded copy still matches its sentinel
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	return errors.As(target, &other) && other.Code == e.Code
}

// NewDomainError returns a DomainError with code and message
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

var (
	ErrNotFound  = NewDomainError("NOT_FOUND", "Resource not found")
	ErrForbidden = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
)

// CodeOf returns the code of the first DomainError in err's chain, or ""
func CodeOf(err error) string {
	if de := (*DomainError)(nil); errors.As(err, &de) {
		return de.Code
	}
	return ""
}
