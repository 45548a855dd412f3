package store

import (
	"context"
	"time"

	"chatassist.app/api/core/db/sqlc"
	"chatassist.app/api/internal/model"
)

type conversationStore struct {
	queries *sqlc.Queries
}

func newConversationStore(queries *sqlc.Queries) ConversationStore {
	return &conversationStore{queries: queries}
}

func (s *conversationStore) Create(ctx context.Context, conv *model.Conversation) error {
	createdAt := conv.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row, err := s.queries.CreateConversation(ctx, sqlc.CreateConversationParams{
		ID:        conv.ID,
		OwnerID:   conv.OwnerID,
		Title:     conv.Title,
		CreatedAt: timestamptz(createdAt),
	})
	if err != nil {
		return mapErr(err)
	}
	*conv = toConversationModel(row)
	return nil
}

func (s *conversationStore) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	row, err := s.queries.GetConversation(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	conv := toConversationModel(row)
	return &conv, nil
}

func (s *conversationStore) ListByOwner(ctx context.Context, ownerID int64) ([]model.Conversation, error) {
	rows, err := s.queries.ListConversationsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	convs := make([]model.Conversation, len(rows))
	for i, row := range rows {
		convs[i] = toConversationModel(row)
	}
	return convs, nil
}

func (s *conversationStore) Touch(ctx context.Context, id int64, at time.Time) error {
	return s.queries.TouchConversation(ctx, sqlc.TouchConversationParams{
		ID:        id,
		UpdatedAt: timestamptz(at),
	})
}

// Delete relies on the messages foreign key cascading.
func (s *conversationStore) Delete(ctx context.Context, id, ownerID int64) error {
	n, err := s.queries.DeleteConversation(ctx, sqlc.DeleteConversationParams{
		ID:      id,
		OwnerID: ownerID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toConversationModel(row sqlc.Conversation) model.Conversation {
	return model.Conversation{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Title:     row.Title,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
