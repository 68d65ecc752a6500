package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/messaging/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postBody struct {
	Body        string `json:"body" binding:"required"`
	MessageType string `json:"message_type" binding:"omitempty,oneof=email comment notification"`
	EmailFrom   string `json:"email_from" binding:"omitempty,email"`
	Subject     string `json:"subject" binding:"max=5"`
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/", func(c *gin.Context) {
		var req postBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	payload := `{"message_type":"sms","email_from":"nope","subject":"much too long"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, rec.Header().Get(RequestIDKey), resp.Error.RequestID)

	messages := make(map[string]string)
	for _, d := range resp.Error.Details {
		messages[d.Field] = d.Message
	}
	assert.Equal(t, "body is required", messages["body"])
	assert.Equal(t, "message_type must be one of: email comment notification", messages["message_type"])
	assert.Equal(t, "email_from must be an email address", messages["email_from"])
	assert.Equal(t, "subject must have at most 5 characters", messages["subject"])
}

func TestFormatValidationErrors_DecodeErrors(t *testing.T) {
	var req postBody
	err := json.Unmarshal([]byte(`{"body": 42}`), &req)
	require.Error(t, err)
	resp := FormatValidationErrors(err, "req-3")
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "body", resp.Error.Details[0].Field)
	assert.Equal(t, "body must be a string", resp.Error.Details[0].Message)

	err = json.Unmarshal([]byte(`{"body": `), &req)
	require.Error(t, err)
	resp = FormatValidationErrors(err, "req-4")
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
	assert.Equal(t, "req-1", resp.Error.RequestID)
}
