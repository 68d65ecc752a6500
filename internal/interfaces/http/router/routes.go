package router

import (
	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/interfaces/http/handler"
	"github.com/erp/messaging/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers of the messaging API
type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Message    *handler.MessageHandler
	Thread     *handler.ThreadHandler
	Channel    *handler.ChannelHandler
	Parameter  *handler.ParameterHandler
	Attachment *handler.AttachmentHandler
	System     *handler.SystemHandler
}

// APIConfig holds the middleware of the API routes
type APIConfig struct {
	JWT middleware.JWTMiddlewareConfig
	// AuthLimiter throttles login and refresh; nil disables it
	AuthLimiter *middleware.RateLimiter
}

// RegisterAPI mounts the messaging routes on the engine. Every /api route
// except login, refresh and the system probes requires a bearer token.
func RegisterAPI(engine *gin.Engine, h Handlers, cfg APIConfig) {
	engine.GET("/health", h.System.Health)

	jwt := cfg.JWT
	jwt.SkipPaths = append(jwt.SkipPaths,
		"/api/v1/auth/login",
		"/api/v1/auth/refresh",
		"/api/v1/system/ping",
		"/api/v1/system/info",
	)

	r := NewRouter(engine, WithAPIVersion("v1")).
		Use(middleware.JWTAuthMiddlewareWithConfig(jwt), middleware.SpanEnricher())

	throttle := func(c *gin.Context) { c.Next() }
	if cfg.AuthLimiter != nil {
		throttle = middleware.RateLimit(cfg.AuthLimiter)
	}

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", throttle, h.Auth.Login)
	authRoutes.POST("/refresh", throttle, h.Auth.RefreshToken)
	authRoutes.POST("/logout", h.Auth.Logout)
	authRoutes.GET("/me", h.Auth.Me)

	userRoutes := NewDomainGroup("users", "/users").Use(middleware.RequireAdmin())
	userRoutes.POST("", h.User.Create)
	userRoutes.POST("/:id/deactivate", h.User.Deactivate)

	messageRoutes := NewDomainGroup("messages", "/messages")
	messageRoutes.POST("", h.Message.Create)
	messageRoutes.GET("", h.Message.Search)
	messageRoutes.POST("/read", h.Message.Read)
	messageRoutes.GET("/:id", h.Message.Get)
	messageRoutes.PUT("/:id", h.Message.Update)
	messageRoutes.DELETE("/:id", h.Message.Delete)
	messageRoutes.POST("/:id/star", h.Message.ToggleStar)

	threadRoutes := NewDomainGroup("threads", "/threads/:model/:res_id")
	threadRoutes.GET("/messages", h.Thread.List)
	threadRoutes.POST("/messages", h.Thread.Post)

	channelRoutes := NewDomainGroup("channels", "/channels")
	channelRoutes.POST("", middleware.RequireAnyGroup(identity.GroupEmployee), h.Channel.Create)
	channelRoutes.GET("/:id", h.Channel.Get)
	channelRoutes.PUT("/:id", h.Channel.Update)
	channelRoutes.POST("/:id/members", h.Channel.AddMembers)

	attachmentRoutes := NewDomainGroup("attachments", "/attachments")
	attachmentRoutes.POST("", h.Attachment.Upload)
	attachmentRoutes.GET("/:id", h.Attachment.Get)
	attachmentRoutes.GET("/:id/content", h.Attachment.Content)
	attachmentRoutes.DELETE("/:id", h.Attachment.Delete)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.System.GetSystemInfo)
	systemRoutes.GET("/ping", h.System.Ping)
	params := systemRoutes.Group("parameters", "/parameters")
	params.GET("", middleware.RequireAdmin(), h.Parameter.List)
	params.GET("/:key", h.Parameter.Get)
	params.PUT("/:key", middleware.RequireAdmin(), h.Parameter.Set)
	params.DELETE("/:key", middleware.RequireAdmin(), h.Parameter.Delete)

	r.Register(authRoutes, userRoutes, messageRoutes, threadRoutes, channelRoutes, attachmentRoutes, systemRoutes)
	r.Setup()
}
