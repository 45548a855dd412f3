package handler

import (
	"net/http"

	"chatassist.app/api/common/id"
	"chatassist.app/api/internal/http/dto"
	"chatassist.app/api/internal/http/middleware"
	"chatassist.app/api/internal/model"
	"github.com/gin-gonic/gin"
)

const (
	msgInternal             = "Internal server error"
	msgUnauthorized         = "Unauthorized"
	msgConversationNotFound = "Conversation not found"
)

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func failValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Validation failed",
		"errors":  dto.ValidationErrors(err),
	})
}

// currentUser returns the authenticated user or writes a 401.
func currentUser(c *gin.Context) (*model.User, bool) {
	user := middleware.GetUser(c.Request.Context())
	if user == nil {
		fail(c, http.StatusUnauthorized, msgUnauthorized)
		return nil, false
	}
	return user, true
}

// parseConversationID treats anything unparseable as a conversation that
// does not exist.
func parseConversationID(c *gin.Context, raw string) (int64, bool) {
	convID, err := id.Parse(raw)
	if err != nil {
		fail(c, http.StatusNotFound, msgConversationNotFound)
		return 0, false
	}
	return convID, true
}
