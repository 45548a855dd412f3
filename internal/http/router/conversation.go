package router

import (
	"chatassist.app/api/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func ConversationRouter(rg *gin.RouterGroup, h *handler.ConversationHandler) {
	rg.GET("", h.List)
	rg.DELETE("/:id", h.Delete)
}
