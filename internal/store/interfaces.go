package store

import (
	"context"
	"errors"
	"time"

	"chatassist.app/api/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint rejects a write
var ErrConflict = errors.New("conflict")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

// ConversationStore defines the contract for conversation data access
type ConversationStore interface {
	Create(ctx context.Context, conv *model.Conversation) error
	GetByID(ctx context.Context, id int64) (*model.Conversation, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Conversation, error)
	Touch(ctx context.Context, id int64, at time.Time) error
	// Delete removes the conversation and its messages. Returns ErrNotFound
	// when no conversation with that id belongs to ownerID.
	Delete(ctx context.Context, id, ownerID int64) error
}

// MessageStore defines the contract for message data access.
// Listings are ordered by created_at ascending, ties broken by id.
type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	ListByConversation(ctx context.Context, conversationID int64) ([]model.Message, error)
	// ListRecent returns the n most recent messages, oldest first.
	ListRecent(ctx context.Context, conversationID int64, n int) ([]model.Message, error)
}

// StoreProvider exposes the chat stores bound to one unit of work.
type StoreProvider interface {
	Conversations() ConversationStore
	Messages() MessageStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}
