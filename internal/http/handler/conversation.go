package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"chatassist.app/api/internal/http/dto"
	"chatassist.app/api/internal/service"
	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	conversationService service.ConversationService
}

func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

func (h *ConversationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	convs, err := h.conversationService.List(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list conversations", "error", err)
		fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "conversation fetch successfully",
		"conversations": dto.ToConversationResponses(convs),
	})
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := parseConversationID(c, c.Param("id"))
	if !ok {
		return
	}

	if err := h.conversationService.Delete(ctx, user.ID, convID); err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, msgConversationNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to delete conversation", "error", err, "conversation_id", convID)
		fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "conversation deleted successfully",
	})
}
