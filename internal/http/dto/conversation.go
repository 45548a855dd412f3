package dto

import (
	"time"

	"chatassist.app/api/internal/model"
)

type ConversationResponse struct {
	ID        int64     `json:"id,string"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToConversationResponses(convs []model.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, len(convs))
	for i, c := range convs {
		out[i] = ConversationResponse{
			ID:        c.ID,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
	}
	return out
}
