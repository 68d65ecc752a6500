package handler

import (
	mailapp "github.com/erp/messaging/internal/application/mail"
	"github.com/gin-gonic/gin"
)

// ChannelHandler handles mail.channel HTTP requests
type ChannelHandler struct {
	BaseHandler
	channelService *mailapp.ChannelService
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(channelService *mailapp.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

// Create godoc
// @Summary      Create a channel
// @Description  Create a channel; the creator is subscribed to it
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        request body mailapp.CreateChannelRequest true "Channel"
// @Success      201 {object} APIResponse[mailapp.ChannelResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels [post]
func (h *ChannelHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req mailapp.CreateChannelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	channel, err := h.channelService.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, channel)
}

// Get godoc
// @Summary      Get a channel
// @Tags         channels
// @Produce      json
// @Param        id path int true "Channel ID"
// @Success      200 {object} APIResponse[mailapp.ChannelResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/{id} [get]
func (h *ChannelHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	channel, err := h.channelService.Get(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, channel)
}

// Update godoc
// @Summary      Update a channel
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        id path int true "Channel ID"
// @Param        request body mailapp.UpdateChannelRequest true "Changes"
// @Success      200 {object} APIResponse[mailapp.ChannelResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/{id} [put]
func (h *ChannelHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req mailapp.UpdateChannelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	channel, err := h.channelService.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, channel)
}

// AddMembers godoc
// @Summary      Subscribe partners to a channel
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        id path int true "Channel ID"
// @Param        request body mailapp.AddMembersRequest true "Partners"
// @Success      200 {object} APIResponse[mailapp.ChannelResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/{id}/members [post]
func (h *ChannelHandler) AddMembers(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req mailapp.AddMembersRequest
	if !h.bindJSON(c, &req) {
		return
	}

	channel, err := h.channelService.AddMembers(c.Request.Context(), p, id, req.PartnerIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, channel)
}
