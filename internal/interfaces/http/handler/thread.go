package handler

import (
	mailapp "github.com/erp/messaging/internal/application/mail"
	"github.com/erp/messaging/internal/domain/mail"
	"github.com/gin-gonic/gin"
)

// ThreadHandler handles the message threads of documents
type ThreadHandler struct {
	BaseHandler
	threadService *mailapp.ThreadService
}

// NewThreadHandler creates a new thread handler
func NewThreadHandler(threadService *mailapp.ThreadService) *ThreadHandler {
	return &ThreadHandler{threadService: threadService}
}

func (h *ThreadHandler) documentRef(c *gin.Context) (mail.DocumentRef, bool) {
	resID, ok := h.pathID(c, "res_id")
	if !ok {
		return mail.DocumentRef{}, false
	}
	return mail.DocumentRef{Model: c.Param("model"), ResID: resID}, true
}

// Post godoc
// @Summary      Post on a document thread
// @Description  Post a comment on the document. Requires write access on the document.
// @Tags         threads
// @Accept       json
// @Produce      json
// @Param        model path string true "Document model" example(mail.channel)
// @Param        res_id path int true "Document id"
// @Param        request body mailapp.PostMessageRequest true "Message"
// @Success      201 {object} APIResponse[mailapp.MessageResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /threads/{model}/{res_id}/messages [post]
func (h *ThreadHandler) Post(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	ref, ok := h.documentRef(c)
	if !ok {
		return
	}
	var req mailapp.PostMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	msg, err := h.threadService.MessagePost(c.Request.Context(), p, ref, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, msg)
}

// List godoc
// @Summary      List a document thread
// @Description  Ids of the document's messages visible to the caller, newest first
// @Tags         threads
// @Produce      json
// @Param        model path string true "Document model"
// @Param        res_id path int true "Document id"
// @Success      200 {object} APIResponse[mailapp.ThreadResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /threads/{model}/{res_id}/messages [get]
func (h *ThreadHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	ref, ok := h.documentRef(c)
	if !ok {
		return
	}

	thread, err := h.threadService.MessageIDs(c.Request.Context(), p, ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, thread)
}
