package handler

import (
	mailapp "github.com/erp/messaging/internal/application/mail"
	"github.com/gin-gonic/gin"
)

// searchPageSize matches the default page of the message repository
const searchPageSize = 80

// ReadMessagesRequest lists the messages to read in one call
type ReadMessagesRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1,max=500"`
}

// MessageHandler handles mail.message HTTP requests
type MessageHandler struct {
	BaseHandler
	messageService *mailapp.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *mailapp.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Create godoc
// @Summary      Create a message
// @Description  Create a message. Attaching it to a document requires write access on that document.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request body mailapp.CreateMessageRequest true "Message"
// @Success      201 {object} APIResponse[mailapp.MessageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /messages [post]
func (h *MessageHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req mailapp.CreateMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	msg, err := h.messageService.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, msg)
}

// Search godoc
// @Summary      Search messages
// @Description  List the messages visible to the caller, newest first
// @Tags         messages
// @Produce      json
// @Param        search query string false "Subject or body contains"
// @Param        model query string false "Document model"
// @Param        res_id query int false "Document id"
// @Param        starred query bool false "Only messages starred by the caller"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(80)
// @Success      200 {object} APIResponse[[]mailapp.MessageResponse]
// @Security     BearerAuth
// @Router       /messages [get]
func (h *MessageHandler) Search(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req mailapp.SearchMessagesRequest
	if !h.bindQuery(c, &req) {
		return
	}

	msgs, total, err := h.messageService.Search(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = searchPageSize
	}
	h.SuccessWithMeta(c, msgs, total, page, pageSize)
}

// Get godoc
// @Summary      Get a message
// @Tags         messages
// @Produce      json
// @Param        id path int true "Message ID"
// @Success      200 {object} APIResponse[mailapp.MessageResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /messages/{id} [get]
func (h *MessageHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	msg, err := h.messageService.Get(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, msg)
}

// Read godoc
// @Summary      Read several messages
// @Description  Read messages by id. The call fails as a whole when one of them is not readable.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request body ReadMessagesRequest true "Message ids"
// @Success      200 {object} APIResponse[[]mailapp.MessageResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /messages/read [post]
func (h *MessageHandler) Read(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req ReadMessagesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	msgs, err := h.messageService.Read(c.Request.Context(), p, req.IDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, msgs)
}

// Update godoc
// @Summary      Update a message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        id path int true "Message ID"
// @Param        request body mailapp.UpdateMessageRequest true "Changes"
// @Success      200 {object} APIResponse[mailapp.MessageResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /messages/{id} [put]
func (h *MessageHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req mailapp.UpdateMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	msg, err := h.messageService.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, msg)
}

// Delete godoc
// @Summary      Delete a message
// @Tags         messages
// @Param        id path int true "Message ID"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /messages/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.messageService.Unlink(c.Request.Context(), p, []int64{id}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ToggleStar godoc
// @Summary      Toggle the starred flag
// @Description  Star or unstar a message for the caller only
// @Tags         messages
// @Produce      json
// @Param        id path int true "Message ID"
// @Success      200 {object} APIResponse[StarredData]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /messages/{id}/star [post]
func (h *MessageHandler) ToggleStar(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	starred, err := h.messageService.ToggleStarred(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, StarredData{ID: id, Starred: starred})
}
