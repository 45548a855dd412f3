package chat

import "chatassist.app/api/internal/model"

const (
	titleMaxRunes = 30
	titleEllipsis = "..."
)

// DeriveTitle returns the first 30 characters of message, with an ellipsis
// when it was cut. Characters are counted as runes.
func DeriveTitle(message string) string {
	r := []rune(message)
	if len(r) == 0 {
		return model.DefaultConversationTitle
	}
	if len(r) <= titleMaxRunes {
		return message
	}
	return string(r[:titleMaxRunes]) + titleEllipsis
}
