package dto

import (
	"time"

	"chatassist.app/api/internal/model"
)

// AskRequest is left unvalidated by binding tags; empty messages are
// rejected by the relay so both transports report them the same way.
type AskRequest struct {
	Message        string  `json:"message"`
	ConversationID *string `json:"conversationId,omitempty"`
}

type AskResponse struct {
	Success        bool   `json:"success"`
	ConversationID int64  `json:"conversationId,string"`
	Message        string `json:"message"`
}

type MessageResponse struct {
	ID             int64      `json:"id,string"`
	ConversationID int64      `json:"conversationId,string"`
	Role           model.Role `json:"role"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func ToMessageResponses(msgs []model.Message) []MessageResponse {
	out := make([]MessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = MessageResponse{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			Role:           m.Role,
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
		}
	}
	return out
}
