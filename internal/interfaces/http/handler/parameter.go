package handler

import (
	mailapp "github.com/erp/messaging/internal/application/mail"
	"github.com/gin-gonic/gin"
)

// ParameterHandler handles system parameters (ir.config_parameter)
type ParameterHandler struct {
	BaseHandler
	parameterService *mailapp.ParameterService
}

// NewParameterHandler creates a new parameter handler
func NewParameterHandler(parameterService *mailapp.ParameterService) *ParameterHandler {
	return &ParameterHandler{parameterService: parameterService}
}

// List godoc
// @Summary      List system parameters
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[[]mailapp.ParameterResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/parameters [get]
func (h *ParameterHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	params, err := h.parameterService.List(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, params)
}

// Get godoc
// @Summary      Get a system parameter
// @Tags         system
// @Produce      json
// @Param        key path string true "Parameter key" example(mail.catchall.domain)
// @Success      200 {object} APIResponse[mailapp.ParameterResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/parameters/{key} [get]
func (h *ParameterHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	param, err := h.parameterService.Get(c.Request.Context(), p, c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, param)
}

// Set godoc
// @Summary      Set a system parameter
// @Tags         system
// @Accept       json
// @Produce      json
// @Param        key path string true "Parameter key"
// @Param        request body mailapp.SetParameterRequest true "Value"
// @Success      200 {object} APIResponse[mailapp.ParameterResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/parameters/{key} [put]
func (h *ParameterHandler) Set(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req mailapp.SetParameterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	param, err := h.parameterService.Set(c.Request.Context(), p, c.Param("key"), req.Value)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, param)
}

// Delete godoc
// @Summary      Remove a system parameter
// @Tags         system
// @Param        key path string true "Parameter key"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/parameters/{key} [delete]
func (h *ParameterHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	if err := h.parameterService.Unset(c.Request.Context(), p, c.Param("key")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
