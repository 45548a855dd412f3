package arangodb

// Snowflake ids exceed the 2^53 range of ArangoDB numbers, so ids are stored
// as decimal strings. Timestamps are unix microseconds.

type ConversationDoc struct {
	Key       string `json:"_key"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type MessageDoc struct {
	Key            string `json:"_key"`
	ConversationID string `json:"conversation_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	CreatedAt      int64  `json:"created_at"`
}
