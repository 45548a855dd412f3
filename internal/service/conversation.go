package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chatassist.app/api/internal/model"
	"chatassist.app/api/internal/store"
)

var ErrConversationNotFound = errors.New("conversation not found")

type ConversationService interface {
	List(ctx context.Context, ownerID int64) ([]model.Conversation, error)
	Delete(ctx context.Context, ownerID, conversationID int64) error
	// Messages returns the full transcript, oldest first.
	Messages(ctx context.Context, ownerID, conversationID int64) ([]model.Message, error)
}

type conversationService struct {
	stores store.StoreProvider
}

func NewConversationService(stores store.StoreProvider) ConversationService {
	return &conversationService{stores: stores}
}

func (s *conversationService) List(ctx context.Context, ownerID int64) ([]model.Conversation, error) {
	convs, err := s.stores.Conversations().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	if convs == nil {
		convs = []model.Conversation{}
	}
	return convs, nil
}

func (s *conversationService) Delete(ctx context.Context, ownerID, conversationID int64) error {
	if err := s.stores.Conversations().Delete(ctx, conversationID, ownerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("deleting conversation: %w", err)
	}

	slog.InfoContext(ctx, "conversation deleted", "conversation_id", conversationID)
	return nil
}

func (s *conversationService) Messages(ctx context.Context, ownerID, conversationID int64) ([]model.Message, error) {
	conv, err := s.stores.Conversations().GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	if !conv.OwnedBy(ownerID) {
		return nil, ErrConversationNotFound
	}

	msgs, err := s.stores.Messages().ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}
