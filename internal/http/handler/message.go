package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"chatassist.app/api/common/id"
	"chatassist.app/api/internal/chat"
	"chatassist.app/api/internal/http/dto"
	"chatassist.app/api/internal/http/sse"
	"chatassist.app/api/internal/model"
	"chatassist.app/api/internal/service"
	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	relay               chat.Relay
	conversationService service.ConversationService
}

func NewMessageHandler(relay chat.Relay, conversationService service.ConversationService) *MessageHandler {
	return &MessageHandler{
		relay:               relay,
		conversationService: conversationService,
	}
}

// Ask answers one turn over an event stream.
func (h *MessageHandler) Ask(c *gin.Context) {
	h.answer(c, true)
}

// AskSync answers one turn with a single JSON response.
func (h *MessageHandler) AskSync(c *gin.Context) {
	h.answer(c, false)
}

// Send is the resource-style binding. The conversation comes from the path
// when present, and ?stream=false selects the JSON response.
func (h *MessageHandler) Send(c *gin.Context) {
	h.answer(c, c.Query("stream") != "false")
}

// List returns a transcript addressed by ?conversationId=.
func (h *MessageHandler) List(c *gin.Context) {
	raw := c.Query("conversationId")
	if raw == "" {
		fail(c, http.StatusBadRequest, "conversationId required")
		return
	}
	h.list(c, raw)
}

// ListByConversation returns a transcript addressed by path.
func (h *MessageHandler) ListByConversation(c *gin.Context) {
	h.list(c, c.Param("id"))
}

func (h *MessageHandler) list(c *gin.Context, raw string) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := parseConversationID(c, raw)
	if !ok {
		return
	}

	msgs, err := h.conversationService.Messages(ctx, user.ID, convID)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, msgConversationNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to list messages", "error", err, "conversation_id", convID)
		fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Fetched messages successfully",
		"messages": dto.ToMessageResponses(msgs),
	})
}

func (h *MessageHandler) answer(c *gin.Context, streaming bool) {
	ctx := c.Request.Context()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	var body dto.AskRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		failValidation(c, err)
		return
	}

	req, convErr := buildRequest(c, user, body)

	if !streaming {
		if convErr != nil {
			h.writeJSONError(c, convErr)
			return
		}
		result, err := h.relay.Answer(ctx, req, nil)
		if err != nil {
			h.writeJSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.AskResponse{
			Success:        true,
			ConversationID: result.ConversationID,
			Message:        result.Reply,
		})
		return
	}

	stream, err := sse.NewWriter(c.Writer)
	if err != nil {
		slog.ErrorContext(ctx, "response writer cannot stream", "error", err)
		fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	if convErr != nil {
		h.writeStreamError(c, stream, convErr)
		return
	}

	if _, err := h.relay.Answer(ctx, req, stream); err != nil {
		h.writeStreamError(c, stream, err)
		return
	}

	if err := stream.Done(); err != nil {
		slog.DebugContext(ctx, "client went away before end of stream", "error", err)
	}
}

// buildRequest resolves the conversation reference from the path or the
// body. A reference that cannot be parsed is reported as not found.
func buildRequest(c *gin.Context, user *model.User, body dto.AskRequest) (chat.Request, error) {
	req := chat.Request{
		Caller:  &chat.Identity{UserID: user.ID, Name: user.Name, Email: user.Email},
		Message: body.Message,
	}

	raw := c.Param("id")
	if raw == "" && body.ConversationID != nil {
		raw = *body.ConversationID
	}
	if raw == "" {
		return req, nil
	}

	convID, err := id.Parse(raw)
	if err != nil {
		return req, chat.ErrConversationNotFound
	}
	req.ConversationID = &convID
	return req, nil
}

func (h *MessageHandler) writeJSONError(c *gin.Context, err error) {
	status, message := relayError(err)
	logRelayError(c, status, err)
	fail(c, status, message)
}

func (h *MessageHandler) writeStreamError(c *gin.Context, stream *sse.Writer, err error) {
	ctx := c.Request.Context()
	if errors.Is(err, chat.ErrAborted) {
		slog.InfoContext(ctx, "client disconnected mid-turn", "error", err)
		return
	}

	status, message := relayError(err)
	logRelayError(c, status, err)
	if werr := stream.Error(message); werr != nil {
		slog.DebugContext(ctx, "failed to deliver error frame", "error", werr)
	}
}

// relayError maps relay failures onto a status code and a client message.
func relayError(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrUnauthenticated):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, chat.ErrInvalidInput):
		return http.StatusBadRequest, "Message is required"
	case errors.Is(err, chat.ErrConversationNotFound):
		return http.StatusNotFound, msgConversationNotFound
	case errors.Is(err, chat.ErrConversationBusy):
		return http.StatusConflict, "Conversation is busy, wait for the current reply to finish"
	case errors.Is(err, chat.ErrProviderFailure):
		return http.StatusBadGateway, "Failed to generate response"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func logRelayError(c *gin.Context, status int, err error) {
	ctx := c.Request.Context()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "failed to answer message", "error", err, "status", status)
		return
	}
	slog.InfoContext(ctx, "message rejected", "error", err, "status", status)
}
