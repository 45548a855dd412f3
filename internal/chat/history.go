package chat

import (
	"fmt"

	"chatassist.app/api/common/llm"
	"chatassist.app/api/internal/model"
)

// DefaultWindowSize is how many prior messages are replayed when unset.
const DefaultWindowSize = 20

const systemPreamble = "You are a helpful AI assistant. The user's name is %s and their email is %s.\n" +
	"Use this information naturally when relevant. Always maintain context from previous messages in the conversation."

// Identity is the authenticated caller as resolved by the auth gate.
type Identity struct {
	UserID int64
	Name   string
	Email  string
}

// Window keeps the last min(len(msgs), n) of msgs, which must already be
// ordered oldest-first, and maps them to provider turns. n <= 0 yields none.
func Window(msgs []model.Message, n int) []llm.Message {
	if n <= 0 || len(msgs) == 0 {
		return []llm.Message{}
	}
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}

	turns := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, llm.Message{Role: providerRole(m.Role), Content: m.Content})
	}
	return turns
}

func providerRole(r model.Role) string {
	switch r {
	case model.RoleUser:
		return llm.RoleUser
	case model.RoleSystem:
		return llm.RoleSystem
	default:
		return llm.RoleAssistant
	}
}

// SystemPrompt personalizes the fixed preamble for caller.
func SystemPrompt(caller Identity) string {
	return fmt.Sprintf(systemPreamble, caller.Name, caller.Email)
}

// BuildPrompt assembles system instruction, history, then the new user turn.
func BuildPrompt(caller Identity, history []llm.Message, message string) llm.Request {
	return llm.Request{
		System:  SystemPrompt(caller),
		History: history,
		Input:   message,
	}
}
