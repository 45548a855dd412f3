package arangodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
)

var ErrNotFound = errors.New("document not found")

const (
	ConversationsCollection = "conversations"
	MessagesCollection      = "messages"
)

type Client interface {
	// Setup operations
	EnsureDatabase(ctx context.Context) error
	EnsureCollections(ctx context.Context) error

	// Conversations
	CreateConversation(ctx context.Context, doc ConversationDoc) error
	GetConversation(ctx context.Context, key string) (ConversationDoc, error)
	ListConversations(ctx context.Context, ownerID string) ([]ConversationDoc, error)
	DeleteConversation(ctx context.Context, key, ownerID string) (bool, error)

	// Messages
	AppendMessages(ctx context.Context, conversationKey string, updatedAt int64, msgs []MessageDoc) error
	ListMessages(ctx context.Context, conversationKey string) ([]MessageDoc, error)
	ListRecentMessages(ctx context.Context, conversationKey string, limit int) ([]MessageDoc, error)

	// Utility
	Close() error
}

type Config struct {
	URL      string
	Username string
	Password string
	Database string
}

func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("arangodb URL is required")
	}
	if c.Username == "" {
		return fmt.Errorf("arangodb username is required")
	}
	if c.Database == "" {
		return fmt.Errorf("arangodb database name is required")
	}
	return nil
}

type client struct {
	conn         connection.Connection
	arangoClient arangodb.Client
	db           arangodb.Database
	cfg          Config
}

func New(ctx context.Context, cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arangodb config: %w", err)
	}

	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	conn := connection.NewHttp2Connection(connection.DefaultHTTP2ConfigurationWrapper(endpoint, true))

	auth := connection.NewBasicAuth(cfg.Username, cfg.Password)
	if err := conn.SetAuthentication(auth); err != nil {
		return nil, fmt.Errorf("arangodb auth: %w", err)
	}

	return &client{
		conn:         conn,
		arangoClient: arangodb.NewClient(conn),
		cfg:          cfg,
	}, nil
}

func (c *client) Close() error {
	return nil
}

func (c *client) EnsureDatabase(ctx context.Context) error {
	start := time.Now()

	exists, err := c.arangoClient.DatabaseExists(ctx, c.cfg.Database)
	if err != nil {
		return fmt.Errorf("check database exists: %w", err)
	}

	if !exists {
		if _, err := c.arangoClient.CreateDatabase(ctx, c.cfg.Database, nil); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		slog.InfoContext(ctx, "arangodb database created",
			"database", c.cfg.Database,
			"duration_ms", time.Since(start).Milliseconds())
	}

	db, err := c.arangoClient.GetDatabase(ctx, c.cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("get database: %w", err)
	}
	c.db = db

	return nil
}

func (c *client) EnsureCollections(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized, call EnsureDatabase first")
	}

	indexes := map[string][]string{
		ConversationsCollection: {"owner_id", "updated_at"},
		MessagesCollection:      {"conversation_id", "created_at"},
	}

	for name, fields := range indexes {
		col, err := c.ensureCollection(ctx, name)
		if err != nil {
			return err
		}
		if _, created, err := col.EnsurePersistentIndex(ctx, fields, nil); err != nil {
			return fmt.Errorf("ensure index on %s: %w", name, err)
		} else if created {
			slog.InfoContext(ctx, "arangodb index created", "collection", name, "fields", fields)
		}
	}

	return nil
}

func (c *client) ensureCollection(ctx context.Context, name string) (arangodb.Collection, error) {
	exists, err := c.db.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check collection %s exists: %w", name, err)
	}

	if !exists {
		colType := arangodb.CollectionTypeDocument
		col, err := c.db.CreateCollectionV2(ctx, name, &arangodb.CreateCollectionPropertiesV2{Type: &colType})
		if err != nil {
			return nil, fmt.Errorf("create collection %s: %w", name, err)
		}
		slog.InfoContext(ctx, "arangodb collection created", "collection", name)
		return col, nil
	}

	col, err := c.db.GetCollection(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", name, err)
	}
	return col, nil
}

func (c *client) CreateConversation(ctx context.Context, doc ConversationDoc) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}

	col, err := c.db.GetCollection(ctx, ConversationsCollection, nil)
	if err != nil {
		return fmt.Errorf("get collection %s: %w", ConversationsCollection, err)
	}

	if _, err := col.CreateDocument(ctx, doc); err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (c *client) GetConversation(ctx context.Context, key string) (ConversationDoc, error) {
	const query = `
		FOR c IN conversations
			FILTER c._key == @key
			LIMIT 1
			RETURN c`

	docs, err := queryAll[ConversationDoc](ctx, c, query, map[string]any{"key": key})
	if err != nil {
		return ConversationDoc{}, err
	}
	if len(docs) == 0 {
		return ConversationDoc{}, ErrNotFound
	}
	return docs[0], nil
}

func (c *client) ListConversations(ctx context.Context, ownerID string) ([]ConversationDoc, error) {
	return queryAll[ConversationDoc](ctx, c, listConversationsQuery, map[string]any{"owner": ownerID})
}

// DeleteConversation removes the conversation and its messages in one query,
// so the pair either disappears together or not at all.
func (c *client) DeleteConversation(ctx context.Context, key, ownerID string) (bool, error) {
	const query = `
		LET conv = FIRST(
			FOR c IN conversations
				FILTER c._key == @key AND c.owner_id == @owner
				RETURN c._key
		)
		LET removed = (
			FOR m IN messages
				FILTER conv != null AND m.conversation_id == conv
				REMOVE m IN messages
				RETURN 1
		)
		FOR c IN conversations
			FILTER c._key == conv
			REMOVE c IN conversations
			RETURN OLD._key`

	keys, err := queryAll[string](ctx, c, query, map[string]any{"key": key, "owner": ownerID})
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}

// AppendMessages inserts msgs and bumps the conversation's updated_at in a
// single AQL query, which ArangoDB executes as one transaction. An empty msgs
// only bumps updated_at.
func (c *client) AppendMessages(ctx context.Context, conversationKey string, updatedAt int64, msgs []MessageDoc) error {
	if msgs == nil {
		msgs = []MessageDoc{}
	}

	start := time.Now()
	const query = `
		LET inserted = (
			FOR m IN @messages
				INSERT m INTO messages
				RETURN NEW._key
		)
		UPDATE { _key: @key } WITH { updated_at: @updated_at } IN conversations
		RETURN LENGTH(inserted)`

	if _, err := queryAll[int](ctx, c, query, map[string]any{
		"messages":   msgs,
		"key":        conversationKey,
		"updated_at": updatedAt,
	}); err != nil {
		return fmt.Errorf("append messages: %w", err)
	}

	slog.DebugContext(ctx, "arangodb messages appended",
		"conversation", conversationKey,
		"count", len(msgs),
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

func (c *client) ListMessages(ctx context.Context, conversationKey string) ([]MessageDoc, error) {
	return queryAll[MessageDoc](ctx, c, listMessagesQuery, map[string]any{"conv": conversationKey})
}

// ListRecentMessages returns the newest limit messages, oldest first.
func (c *client) ListRecentMessages(ctx context.Context, conversationKey string, limit int) ([]MessageDoc, error) {
	if limit <= 0 {
		return nil, nil
	}

	return queryAll[MessageDoc](ctx, c, listRecentMessagesQuery, map[string]any{"conv": conversationKey, "limit": limit})
}

// Keys are unpadded decimal snowflake ids. Comparing LENGTH first and then the
// string gives numeric order without converting to a double, which cannot hold
// 64-bit ids exactly.
const (
	listConversationsQuery = `
		FOR c IN conversations
			FILTER c.owner_id == @owner
			SORT c.updated_at DESC, LENGTH(c._key) DESC, c._key DESC
			RETURN c`

	listMessagesQuery = `
		FOR m IN messages
			FILTER m.conversation_id == @conv
			SORT m.created_at ASC, LENGTH(m._key) ASC, m._key ASC
			RETURN m`

	listRecentMessagesQuery = `
		FOR m IN (
			FOR r IN messages
				FILTER r.conversation_id == @conv
				SORT r.created_at DESC, LENGTH(r._key) DESC, r._key DESC
				LIMIT @limit
				RETURN r
		)
			SORT m.created_at ASC, LENGTH(m._key) ASC, m._key ASC
			RETURN m`
)

func queryAll[T any](ctx context.Context, c *client, query string, bindVars map[string]any) ([]T, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	cursor, err := c.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: bindVars,
	})
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer cursor.Close()

	var results []T
	for cursor.HasMore() {
		var doc T
		if _, err := cursor.ReadDocument(ctx, &doc); err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		results = append(results, doc)
	}
	return results, nil
}
