package router

import (
	"chatassist.app/api/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func UserRouter(rg *gin.RouterGroup, h *handler.UserHandler, requireAuth gin.HandlerFunc) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.POST("/logout", requireAuth, h.Logout)
	rg.GET("/profile", requireAuth, h.Profile)
}
