package router

import (
	"chatassist.app/api/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func MessageRouter(rg *gin.RouterGroup, h *handler.MessageHandler) {
	rg.GET("", h.List)
	rg.POST("/ask", h.Ask)
	rg.POST("/ask/sync", h.AskSync)
}

// ResourceRouter exposes turns and transcripts under /conversations.
func ResourceRouter(rg *gin.RouterGroup, h *handler.MessageHandler) {
	rg.POST("/messages", h.Send)
	rg.POST("/:id/messages", h.Send)
	rg.GET("/:id/messages", h.ListByConversation)
}
