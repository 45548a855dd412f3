package model

import "time"

// DefaultConversationTitle is used when a title cannot be derived.
const DefaultConversationTitle = "New Chat"

// Conversation is a titled thread owned by exactly one user.
type Conversation struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether userID owns the conversation.
func (c *Conversation) OwnedBy(userID int64) bool {
	return c != nil && c.OwnerID == userID
}
