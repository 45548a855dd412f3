package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chatassist.app/api/common/id"
	"chatassist.app/api/common/llm"
	"chatassist.app/api/common/logger"
	"chatassist.app/api/internal/lock"
	"chatassist.app/api/internal/model"
	"chatassist.app/api/internal/store"
	"go.opentelemetry.io/otel/attribute"
)

// Request is one user turn.
type Request struct {
	Caller         *Identity
	ConversationID *int64 // nil starts a new conversation
	Message        string
}

// Result describes a completed, persisted turn.
type Result struct {
	ConversationID int64
	Reply          string
	Created        bool
}

// Sink receives streamed output as it is produced. A returned error means
// the caller is gone and the turn is abandoned.
type Sink interface {
	ConversationCreated(conversationID int64) error
	Text(fragment string) error
}

// Relay answers exactly one user turn per call.
type Relay interface {
	// Answer streams through sink when it is non-nil and otherwise waits for
	// the complete reply. The turn is persisted before Answer returns, so a
	// nil error means the user and assistant messages are stored.
	Answer(ctx context.Context, req Request, sink Sink) (*Result, error)
}

type Config struct {
	WindowSize int
}

type relay struct {
	stores   store.StoreProvider
	tx       store.TxRunner
	provider llm.Provider
	locker   lock.Locker
	window   int
	now      func() time.Time
}

func NewRelay(stores store.StoreProvider, tx store.TxRunner, provider llm.Provider, locker lock.Locker, cfg Config) Relay {
	window := cfg.WindowSize
	if window == 0 {
		window = DefaultWindowSize
	}
	return &relay{
		stores:   stores,
		tx:       tx,
		provider: provider,
		locker:   locker,
		window:   window,
		now:      time.Now,
	}
}

func (r *relay) Answer(ctx context.Context, req Request, sink Sink) (*Result, error) {
	if req.Caller == nil {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrInvalidInput
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:    logger.Ptr(req.Caller.UserID),
		Component: "chat.relay",
	})
	sc := logger.StartSpan(ctx, "chat.answer")
	defer sc.End()
	ctx = sc.Context()

	result, err := r.answer(ctx, req, sink)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	sc.Span().SetAttributes(
		attribute.Int64("conversation_id", result.ConversationID),
		attribute.Bool("conversation_created", result.Created),
		attribute.Int("reply_chars", len(result.Reply)),
	)
	return result, nil
}

func (r *relay) answer(ctx context.Context, req Request, sink Sink) (*Result, error) {
	conv, created, err := r.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{ConversationID: logger.Ptr(conv.ID)})

	release, err := r.locker.Acquire(ctx, conv.ID)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			slog.InfoContext(ctx, "conversation busy, rejecting turn")
			return nil, ErrConversationBusy
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	defer release()

	if created && sink != nil {
		if err := sink.ConversationCreated(conv.ID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAborted, err)
		}
	}

	var history []llm.Message
	if !created {
		recent, err := r.stores.Messages().ListRecent(ctx, conv.ID, r.window)
		if err != nil {
			slog.ErrorContext(ctx, "failed to load conversation history", "error", err)
			return nil, fmt.Errorf("%w: loading history: %w", ErrStoreFailure, err)
		}
		history = Window(recent, r.window)
	}

	prompt := BuildPrompt(*req.Caller, history, req.Message)

	start := time.Now()
	var reply string
	if sink != nil {
		reply, err = r.stream(ctx, prompt, sink)
	} else {
		reply, err = r.complete(ctx, prompt)
	}
	if err != nil {
		slog.WarnContext(ctx, "turn failed before persistence, nothing stored",
			"error", err,
			"conversation_created", created)
		return nil, err
	}

	slog.DebugContext(ctx, "completion finished",
		"history_turns", len(history),
		"reply_chars", len(reply),
		"duration_ms", time.Since(start).Milliseconds())

	if err := r.persist(ctx, conv.ID, req.Message, reply); err != nil {
		slog.ErrorContext(ctx, "failed to persist turn", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	slog.InfoContext(ctx, "turn answered", "conversation_created", created)

	return &Result{
		ConversationID: conv.ID,
		Reply:          reply,
		Created:        created,
	}, nil
}

// resolveConversation loads the referenced conversation, or creates one when
// none is referenced. Conversations owned by someone else are reported as
// missing so their existence does not leak.
func (r *relay) resolveConversation(ctx context.Context, req Request) (*model.Conversation, bool, error) {
	if req.ConversationID != nil {
		conv, err := r.stores.Conversations().GetByID(ctx, *req.ConversationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, false, ErrConversationNotFound
			}
			return nil, false, fmt.Errorf("%w: loading conversation: %w", ErrStoreFailure, err)
		}
		if !conv.OwnedBy(req.Caller.UserID) {
			slog.WarnContext(ctx, "conversation owned by another user",
				"conversation_id", conv.ID)
			return nil, false, ErrConversationNotFound
		}
		return conv, false, nil
	}

	conv := &model.Conversation{
		ID:        id.New(),
		OwnerID:   req.Caller.UserID,
		Title:     DeriveTitle(req.Message),
		CreatedAt: r.now(),
	}
	if err := r.stores.Conversations().Create(ctx, conv); err != nil {
		return nil, false, fmt.Errorf("%w: creating conversation: %w", ErrStoreFailure, err)
	}

	slog.InfoContext(ctx, "conversation created", "conversation_id", conv.ID)
	return conv, true, nil
}

func (r *relay) complete(ctx context.Context, prompt llm.Request) (string, error) {
	reply, err := r.provider.Complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
		}
		return "", fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	if reply == "" {
		return "", fmt.Errorf("%w: %w", ErrProviderFailure, llm.ErrEmptyResponse)
	}
	return reply, nil
}

// stream forwards each fragment to sink as soon as it arrives and returns the
// concatenation.
func (r *relay) stream(ctx context.Context, prompt llm.Request, sink Sink) (string, error) {
	s, err := r.provider.Stream(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
		}
		return "", fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	defer s.Close()

	var sb strings.Builder
	for s.Next() {
		fragment := s.Current()
		sb.WriteString(fragment)
		if err := sink.Text(fragment); err != nil {
			return "", fmt.Errorf("%w: %w", ErrAborted, err)
		}
	}

	if err := s.Err(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
		}
		return "", fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: %w", ErrProviderFailure, llm.ErrEmptyResponse)
	}
	return sb.String(), nil
}

// persist appends the user and assistant messages and bumps updated_at in
// one transaction. Both share a timestamp; ids keep the user turn first.
func (r *relay) persist(ctx context.Context, conversationID int64, message, reply string) error {
	now := r.now()
	return r.tx.WithTx(ctx, func(stores store.StoreProvider) error {
		userMsg := &model.Message{
			ID:             id.New(),
			ConversationID: conversationID,
			Role:           model.RoleUser,
			Content:        message,
			CreatedAt:      now,
		}
		if err := stores.Messages().Create(ctx, userMsg); err != nil {
			return fmt.Errorf("saving user message: %w", err)
		}

		assistantMsg := &model.Message{
			ID:             id.New(),
			ConversationID: conversationID,
			Role:           model.RoleAssistant,
			Content:        reply,
			CreatedAt:      now,
		}
		if err := stores.Messages().Create(ctx, assistantMsg); err != nil {
			return fmt.Errorf("saving assistant message: %w", err)
		}

		return stores.Conversations().Touch(ctx, conversationID, now)
	})
}
