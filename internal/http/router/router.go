package router

import (
	"time"

	"chatassist.app/api/internal/http/handler"
	"chatassist.app/api/internal/http/middleware"
	"chatassist.app/api/internal/service"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	IsProduction bool
	TokenTTL     time.Duration
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth(services.Auth())

	userHandler := handler.NewUserHandler(services.Auth(), cfg.TokenTTL, cfg.IsProduction)
	conversationHandler := handler.NewConversationHandler(services.Conversations())
	messageHandler := handler.NewMessageHandler(services.Relay(), services.Conversations())

	api := router.Group("/api")
	{
		UserRouter(api.Group("/user"), userHandler, requireAuth)
		ConversationRouter(api.Group("/conversation", requireAuth), conversationHandler)
		MessageRouter(api.Group("/message", requireAuth), messageHandler)
	}

	ResourceRouter(router.Group("/conversations", requireAuth), messageHandler)
}
