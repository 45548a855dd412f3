package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

type anthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

func newAnthropicClient(cfg Config) *anthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	return &anthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *anthropicClient) Model() string {
	return c.model
}

func (c *anthropicClient) params(req Request) anthropic.MessageNewParams {
	system, messages := convertAnthropicMessages(req.Messages())

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}
	return params
}

func (c *anthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	resp, err := c.client.Messages.New(ctx, c.params(req))
	if err != nil {
		return "", fmt.Errorf("anthropic chat: %w", err)
	}

	slog.DebugContext(ctx, "llm completion finished",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason)

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic chat: %w", ErrEmptyResponse)
	}
	return sb.String(), nil
}

func (c *anthropicClient) Stream(ctx context.Context, req Request) (Stream, error) {
	s := c.client.Messages.NewStreaming(ctx, c.params(req))
	if err := s.Err(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("anthropic stream: %w", err)
	}
	return &anthropicStream{stream: s}, nil
}

type anthropicStream struct {
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	current string
}

func (s *anthropicStream) Next() bool {
	for s.stream.Next() {
		event := s.stream.Current()
		delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
		if !ok || text.Text == "" {
			continue
		}
		s.current = text.Text
		return true
	}
	return false
}

func (s *anthropicStream) Current() string {
	return s.current
}

func (s *anthropicStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return fmt.Errorf("anthropic stream: %w", err)
	}
	return nil
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}

// convertAnthropicMessages splits out system content and normalizes turns:
// the conversation must open with a user turn and roles must alternate.
func convertAnthropicMessages(msgs []Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	turns := NormalizeTurns(msgs)

	for _, msg := range msgs {
		if msg.Role == RoleSystem {
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		}
	}

	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := anthropic.NewTextBlock(t.Content)
		if t.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	return system, messages
}

// ContinuationTurn opens a conversation whose retained history starts with an
// assistant turn, so that turn is still sent.
const ContinuationTurn = "(continuing an earlier conversation)"

// NormalizeTurns drops system messages and joins adjacent turns that share a
// role. History that opens with an assistant turn is preceded by a
// ContinuationTurn user message.
func NormalizeTurns(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs)+1)
	for _, msg := range msgs {
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			continue
		}
		if len(out) == 0 && msg.Role == RoleAssistant {
			out = append(out, Message{Role: RoleUser, Content: ContinuationTurn})
		}
		if n := len(out); n > 0 && out[n-1].Role == msg.Role {
			out[n-1].Content += "\n\n" + msg.Content
			continue
		}
		out = append(out, msg)
	}
	return out
}
