package dto

import (
	"net/http"
	"strings"
)

// Transport error codes use the ERR_<CATEGORY> form
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"

	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeInvalidState  = "ERR_INVALID_STATE"
)

// Messaging error codes travel verbatim from the domain
const (
	ErrCodeAccessDenied         = "ACCESS_DENIED"
	ErrCodeUnknownModel         = "UNKNOWN_MODEL"
	ErrCodeNoSenderEmail        = "NO_SENDER_EMAIL"
	ErrCodeInvalidCreds         = "INVALID_CREDENTIALS"
	ErrCodeAccountInactive      = "ACCOUNT_INACTIVE"
	ErrCodeLoginExists          = "LOGIN_EXISTS"
	ErrCodeCannotDeactivateSelf = "CANNOT_DEACTIVATE_SELF"
	ErrCodeAttachmentTooBig     = "ATTACHMENT_TOO_LARGE"
	ErrCodeDisallowedContent    = "DISALLOWED_CONTENT_TYPE"
	ErrCodeUploadFailed         = "UPLOAD_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeInvalidState:  http.StatusUnprocessableEntity,

	ErrCodeAccessDenied:         http.StatusForbidden,
	ErrCodeUnknownModel:         http.StatusBadRequest,
	ErrCodeNoSenderEmail:        http.StatusUnprocessableEntity,
	ErrCodeInvalidCreds:         http.StatusUnauthorized,
	ErrCodeAccountInactive:      http.StatusForbidden,
	ErrCodeLoginExists:          http.StatusConflict,
	ErrCodeCannotDeactivateSelf: http.StatusUnprocessableEntity,
	ErrCodeAttachmentTooBig:     http.StatusRequestEntityTooLarge,
	ErrCodeDisallowedContent:    http.StatusUnsupportedMediaType,
	ErrCodeUploadFailed:         http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Codes not in the table are classified by shape: *_NOT_FOUND is 404,
// INVALID_* is 400 and TOKEN_* is 401. Anything else is 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "TOKEN_"):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// genericCodes maps the shared domain sentinels to transport codes
var genericCodes = map[string]string{
	"NOT_FOUND":      ErrCodeNotFound,
	"ALREADY_EXISTS": ErrCodeAlreadyExists,
	"INVALID_INPUT":  ErrCodeInvalidInput,
	"INVALID_STATE":  ErrCodeInvalidState,
	"UNAUTHORIZED":   ErrCodeUnauthorized,
	"FORBIDDEN":      ErrCodeForbidden,
	"INTERNAL_ERROR": ErrCodeInternal,
	"TOKEN_EXPIRED":  ErrCodeTokenExpired,
	"TOKEN_INVALID":  ErrCodeTokenInvalid,
	"TOKEN_REVOKED":  ErrCodeTokenRevoked,
}

// NormalizeErrorCode converts a generic domain code to its ERR_ form.
// Messaging codes and codes already in ERR_ form are returned as-is.
func NormalizeErrorCode(code string) string {
	if c, ok := genericCodes[code]; ok {
		return c
	}
	return code
}
