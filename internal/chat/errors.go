package chat

import "errors"

var (
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrInvalidInput         = errors.New("message is required")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationBusy     = errors.New("conversation is busy")
	ErrProviderFailure      = errors.New("completion provider failed")
	ErrStoreFailure         = errors.New("store failure")
	// ErrAborted means the caller went away before the turn finished.
	ErrAborted = errors.New("caller aborted")
)
