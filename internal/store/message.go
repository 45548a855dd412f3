package store

import (
	"context"
	"math"
	"time"

	"chatassist.app/api/core/db/sqlc"
	"chatassist.app/api/internal/model"
)

type messageStore struct {
	queries *sqlc.Queries
}

func newMessageStore(queries *sqlc.Queries) MessageStore {
	return &messageStore{queries: queries}
}

func (s *messageStore) Create(ctx context.Context, msg *model.Message) error {
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row, err := s.queries.CreateMessage(ctx, sqlc.CreateMessageParams{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Role:           string(msg.Role),
		Content:        msg.Content,
		CreatedAt:      timestamptz(createdAt),
	})
	if err != nil {
		return mapErr(err)
	}
	*msg = toMessageModel(row)
	return nil
}

func (s *messageStore) ListByConversation(ctx context.Context, conversationID int64) ([]model.Message, error) {
	rows, err := s.queries.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	msgs := make([]model.Message, len(rows))
	for i, row := range rows {
		msgs[i] = toMessageModel(row)
	}
	return msgs, nil
}

func (s *messageStore) ListRecent(ctx context.Context, conversationID int64, n int) ([]model.Message, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}

	rows, err := s.queries.ListRecentMessages(ctx, sqlc.ListRecentMessagesParams{
		ConversationID: conversationID,
		Limit:          int32(n),
	})
	if err != nil {
		return nil, err
	}

	msgs := make([]model.Message, len(rows))
	for i, row := range rows {
		msgs[i] = toMessageModel(sqlc.Message(row))
	}
	return msgs, nil
}

func toMessageModel(row sqlc.Message) model.Message {
	return model.Message{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		Role:           model.Role(row.Role),
		Content:        row.Content,
		CreatedAt:      row.CreatedAt.Time,
	}
}
