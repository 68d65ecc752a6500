package handler

import (
	identityapp "github.com/erp/messaging/internal/application/identity"
	"github.com/erp/messaging/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Credentials is the body of a login
type Credentials struct {
	Login    string `json:"login" binding:"required,min=3,max=100" example:"admin"`
	Password string `json:"password" binding:"required,max=72" example:"admin-password"`
}

// RefreshBody carries the refresh token to exchange
type RefreshBody struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LoggedOut acknowledges a logout
type LoggedOut struct {
	Message string `json:"message" example:"Logged out successfully"`
}

// AuthHandler serves the session endpoints under /auth
type AuthHandler struct {
	BaseHandler
	sessions *identityapp.AuthService
}

func NewAuthHandler(sessions *identityapp.AuthService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Login godoc
// @Summary      Open a session
// @Description  Exchange login and password for an access and refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body Credentials true "Credentials"
// @Success      200 {object} APIResponse[identityapp.LoginResult]
// @Failure      400,401,403 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var body Credentials
	if !h.bindJSON(c, &body) {
		return
	}
	res, err := h.sessions.Login(c.Request.Context(), identityapp.LoginInput{Login: body.Login, Password: body.Password})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// RefreshToken godoc
// @Summary      Rotate tokens
// @Description  Consume a refresh token and issue a new pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body RefreshBody true "Refresh token"
// @Success      200 {object} APIResponse[identityapp.RefreshTokenResult]
// @Failure      400,401 {object} ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var body RefreshBody
	if !h.bindJSON(c, &body) {
		return
	}
	res, err := h.sessions.RefreshToken(c.Request.Context(), identityapp.RefreshTokenInput{RefreshToken: body.RefreshToken})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Logout godoc
// @Summary      Close the session
// @Description  Revoke the presented access token until it would have expired
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[LoggedOut]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	in := identityapp.LogoutInput{UserID: claims.UserID, TokenJTI: claims.ID, TokenTTL: claims.GetRemainingTTL()}
	if err := h.sessions.Logout(c.Request.Context(), in); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, LoggedOut{Message: "Logged out successfully"})
}

// Me godoc
// @Summary      Who am I
// @Description  The authenticated user with its partner and groups
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[identityapp.UserInfo]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	if p, ok := h.principal(c); ok {
		h.Success(c, identityapp.ToUserInfo(p))
	}
}
