package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"chatassist.app/api/common/arangodb"
	"chatassist.app/api/internal/model"
)

// ArangoStores keeps conversations and messages in ArangoDB. Users stay in
// Postgres regardless of the chat backend.
type ArangoStores struct {
	client arangodb.Client
}

func NewArangoStores(client arangodb.Client) *ArangoStores {
	return &ArangoStores{client: client}
}

func (s *ArangoStores) Conversations() ConversationStore {
	return &arangoConversationStore{client: s.client}
}

func (s *ArangoStores) Messages() MessageStore {
	return &arangoMessageStore{client: s.client}
}

// WithTx buffers message inserts and the conversation touch made by fn and
// commits them with a single AQL query. Reads pass straight through.
// A unit of work may only write to one conversation.
func (s *ArangoStores) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	uow := &arangoUnitOfWork{client: s.client}
	if err := fn(uow); err != nil {
		return err
	}
	return uow.commit(ctx)
}

type arangoConversationStore struct {
	client arangodb.Client
}

func (s *arangoConversationStore) Create(ctx context.Context, conv *model.Conversation) error {
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}
	conv.UpdatedAt = conv.CreatedAt

	return s.client.CreateConversation(ctx, arangodb.ConversationDoc{
		Key:       formatKey(conv.ID),
		OwnerID:   formatKey(conv.OwnerID),
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt.UnixMicro(),
		UpdatedAt: conv.UpdatedAt.UnixMicro(),
	})
}

func (s *arangoConversationStore) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	doc, err := s.client.GetConversation(ctx, formatKey(id))
	if err != nil {
		if errors.Is(err, arangodb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	conv, err := fromConversationDoc(doc)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *arangoConversationStore) ListByOwner(ctx context.Context, ownerID int64) ([]model.Conversation, error) {
	docs, err := s.client.ListConversations(ctx, formatKey(ownerID))
	if err != nil {
		return nil, err
	}

	convs := make([]model.Conversation, 0, len(docs))
	for _, doc := range docs {
		conv, err := fromConversationDoc(doc)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

func (s *arangoConversationStore) Touch(ctx context.Context, id int64, at time.Time) error {
	return s.client.AppendMessages(ctx, formatKey(id), at.UnixMicro(), nil)
}

func (s *arangoConversationStore) Delete(ctx context.Context, id, ownerID int64) error {
	deleted, err := s.client.DeleteConversation(ctx, formatKey(id), formatKey(ownerID))
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

type arangoMessageStore struct {
	client arangodb.Client
}

func (s *arangoMessageStore) Create(ctx context.Context, msg *model.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return s.client.AppendMessages(ctx, formatKey(msg.ConversationID), msg.CreatedAt.UnixMicro(), []arangodb.MessageDoc{toMessageDoc(*msg)})
}

func (s *arangoMessageStore) ListByConversation(ctx context.Context, conversationID int64) ([]model.Message, error) {
	docs, err := s.client.ListMessages(ctx, formatKey(conversationID))
	if err != nil {
		return nil, err
	}
	return fromMessageDocs(docs)
}

func (s *arangoMessageStore) ListRecent(ctx context.Context, conversationID int64, n int) ([]model.Message, error) {
	if n <= 0 {
		return nil, nil
	}
	docs, err := s.client.ListRecentMessages(ctx, formatKey(conversationID), n)
	if err != nil {
		return nil, err
	}
	return fromMessageDocs(docs)
}

type arangoUnitOfWork struct {
	client         arangodb.Client
	conversationID int64
	messages       []arangodb.MessageDoc
	touchedAt      time.Time
	err            error
}

func (u *arangoUnitOfWork) Conversations() ConversationStore {
	return &uowConversationStore{arangoConversationStore{client: u.client}, u}
}

func (u *arangoUnitOfWork) Messages() MessageStore {
	return &uowMessageStore{arangoMessageStore{client: u.client}, u}
}

func (u *arangoUnitOfWork) bind(conversationID int64) error {
	if u.conversationID == 0 {
		u.conversationID = conversationID
		return nil
	}
	if u.conversationID != conversationID {
		u.err = fmt.Errorf("unit of work spans conversations %d and %d", u.conversationID, conversationID)
		return u.err
	}
	return nil
}

func (u *arangoUnitOfWork) commit(ctx context.Context) error {
	if u.err != nil {
		return u.err
	}
	if u.conversationID == 0 {
		return nil
	}

	touchedAt := u.touchedAt
	if touchedAt.IsZero() {
		touchedAt = time.Now()
	}
	return u.client.AppendMessages(ctx, formatKey(u.conversationID), touchedAt.UnixMicro(), u.messages)
}

type uowConversationStore struct {
	arangoConversationStore
	uow *arangoUnitOfWork
}

func (s *uowConversationStore) Touch(_ context.Context, id int64, at time.Time) error {
	if err := s.uow.bind(id); err != nil {
		return err
	}
	if at.After(s.uow.touchedAt) {
		s.uow.touchedAt = at
	}
	return nil
}

type uowMessageStore struct {
	arangoMessageStore
	uow *arangoUnitOfWork
}

func (s *uowMessageStore) Create(_ context.Context, msg *model.Message) error {
	if err := s.uow.bind(msg.ConversationID); err != nil {
		return err
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.uow.messages = append(s.uow.messages, toMessageDoc(*msg))
	return nil
}

func formatKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseKey(key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse document key %q: %w", key, err)
	}
	return id, nil
}

func toMessageDoc(msg model.Message) arangodb.MessageDoc {
	return arangodb.MessageDoc{
		Key:            formatKey(msg.ID),
		ConversationID: formatKey(msg.ConversationID),
		Role:           string(msg.Role),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt.UnixMicro(),
	}
}

func fromConversationDoc(doc arangodb.ConversationDoc) (model.Conversation, error) {
	id, err := parseKey(doc.Key)
	if err != nil {
		return model.Conversation{}, err
	}
	ownerID, err := parseKey(doc.OwnerID)
	if err != nil {
		return model.Conversation{}, err
	}
	return model.Conversation{
		ID:        id,
		OwnerID:   ownerID,
		Title:     doc.Title,
		CreatedAt: time.UnixMicro(doc.CreatedAt),
		UpdatedAt: time.UnixMicro(doc.UpdatedAt),
	}, nil
}

func fromMessageDocs(docs []arangodb.MessageDoc) ([]model.Message, error) {
	msgs := make([]model.Message, 0, len(docs))
	for _, doc := range docs {
		id, err := parseKey(doc.Key)
		if err != nil {
			return nil, err
		}
		convID, err := parseKey(doc.ConversationID)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, model.Message{
			ID:             id,
			ConversationID: convID,
			Role:           model.Role(doc.Role),
			Content:        doc.Content,
			CreatedAt:      time.UnixMicro(doc.CreatedAt),
		})
	}
	return msgs, nil
}
