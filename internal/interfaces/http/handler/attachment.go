package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	mailapp "github.com/erp/messaging/internal/application/mail"
	"github.com/gin-gonic/gin"
)

// AttachmentHandler handles ir.attachment uploads and downloads
type AttachmentHandler struct {
	BaseHandler
	attachmentService *mailapp.AttachmentService
}

// NewAttachmentHandler creates a new attachment handler
func NewAttachmentHandler(attachmentService *mailapp.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// Upload godoc
// @Summary      Upload an attachment
// @Description  Store a file, optionally bound to a document the caller can write
// @Tags         attachments
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Content"
// @Param        res_model formData string false "Document model"
// @Param        res_id formData int false "Document id"
// @Success      201 {object} APIResponse[mailapp.AttachmentResponse]
// @Failure      413 {object} ErrorResponse
// @Failure      415 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A file is required")
		return
	}

	var resID int64
	if raw := c.PostForm("res_id"); raw != "" {
		resID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || resID < 0 {
			h.BadRequest(c, "Invalid res_id")
			return
		}
	}

	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read the uploaded file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.BadRequest(c, "Unable to read the uploaded file")
		return
	}

	mimetype := header.Header.Get("Content-Type")
	if mimetype == "" {
		mimetype = mime.TypeByExtension(filepath.Ext(header.Filename))
	}

	attachment, err := h.attachmentService.Upload(c.Request.Context(), p, mailapp.UploadAttachmentRequest{
		Name:     header.Filename,
		Mimetype: mimetype,
		ResModel: c.PostForm("res_model"),
		ResID:    resID,
		Data:     data,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, attachment)
}

// Get godoc
// @Summary      Get attachment metadata
// @Tags         attachments
// @Produce      json
// @Param        id path int true "Attachment ID"
// @Success      200 {object} APIResponse[mailapp.AttachmentResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /attachments/{id} [get]
func (h *AttachmentHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	attachment, err := h.attachmentService.Get(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, attachment)
}

// Content godoc
// @Summary      Download attachment content
// @Tags         attachments
// @Produce      octet-stream
// @Param        id path int true "Attachment ID"
// @Success      200 {file} binary
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /attachments/{id}/content [get]
func (h *AttachmentHandler) Content(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	attachment, data, err := h.attachmentService.Content(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Name}))
	c.Data(http.StatusOK, attachment.Mimetype, data)
}

// Delete godoc
// @Summary      Delete an attachment
// @Tags         attachments
// @Param        id path int true "Attachment ID"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.attachmentService.Delete(c.Request.Context(), p, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
