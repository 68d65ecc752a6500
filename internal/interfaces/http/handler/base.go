package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/logger"
	"github.com/erp/messaging/internal/interfaces/http/dto"
	"github.com/erp/messaging/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// BaseHandler is embedded by every handler for the shared response and
// binding helpers.
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDKey)
}

// principal returns the acting identity, answering 401 when there is none
func (h *BaseHandler) principal(c *gin.Context) (*identity.Principal, bool) {
	if p := middleware.GetPrincipal(c); p != nil {
		return p, true
	}
	h.Unauthorized(c, "Authentication required")
	return nil, false
}

// pathID reads a positive integer path parameter, answering 400 otherwise
func (h *BaseHandler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err == nil && id > 0 {
		return id, true
	}
	h.BadRequest(c, "Invalid "+name)
	return 0, false
}

func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	return bind(c, req, binding.JSON)
}

func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	return bind(c, req, binding.Query)
}

func bind(c *gin.Context, req any, b binding.Binding) bool {
	err := c.ShouldBindWith(req, b)
	if err != nil {
		middleware.HandleValidationError(c, err)
	}
	return err == nil
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta answers 200 with data and its paging metadata
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	fail(c, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	fail(c, dto.ErrCodeUnauthorized, message)
}

// HandleError writes err as an error envelope. A DomainError keeps its code
// and message. Any other error is logged and reported as a bare 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var de *shared.DomainError
	switch {
	case err == nil:
	case errors.As(err, &de):
		fail(c, de.Code, de.Message)
	default:
		logger.L(c.Request.Context()).Error("Unhandled request error", zap.String("path", c.FullPath()), zap.Error(err))
		fail(c, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}

// fail answers with the status registered for code
func fail(c *gin.Context, code, message string) {
	code = dto.NormalizeErrorCode(code)
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}
