package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider constants for LLM provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Roles used in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse is returned when the provider answers with no text at all.
var ErrEmptyResponse = errors.New("empty completion")

// Config holds completion client configuration.
type Config struct {
	Provider  string // "openai" or "anthropic"
	APIKey    string
	BaseURL   string // Optional: custom API endpoint
	Model     string
	MaxTokens int
}

// Message is one prior turn replayed to the model.
type Message struct {
	Role    string
	Content string
}

// Request is a single completion: system instruction, bounded history, new user turn.
type Request struct {
	System  string
	History []Message
	Input   string
}

// Messages flattens the request into the order the model sees it.
func (r Request) Messages() []Message {
	out := make([]Message, 0, len(r.History)+2)
	if r.System != "" {
		out = append(out, Message{Role: RoleSystem, Content: r.System})
	}
	out = append(out, r.History...)
	out = append(out, Message{Role: RoleUser, Content: r.Input})
	return out
}

// Provider is the completion backend shared by all request handlers.
// Implementations hold no per-call state and are safe for concurrent use.
type Provider interface {
	// Complete blocks until the full response is available.
	Complete(ctx context.Context, req Request) (string, error)
	// Stream starts a completion and yields text fragments as they arrive.
	Stream(ctx context.Context, req Request) (Stream, error)
	Model() string
}

// Stream is a finite, non-restartable sequence of text fragments.
//
//	for s.Next() {
//	    emit(s.Current())
//	}
//	if err := s.Err(); err != nil { ... }
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// New creates a Provider for cfg.Provider.
func New(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	switch cfg.Provider {
	case ProviderOpenAI, "":
		return newOpenAIClient(cfg), nil
	case ProviderAnthropic:
		return newAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
