// Package sse writes chat output as server-sent event frames. Every frame is
// a single data line followed by a blank line and is flushed immediately.
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"chatassist.app/api/common/id"
)

// DoneMarker terminates a successful stream.
const DoneMarker = "[DONE]"

var ErrStreamingUnsupported = errors.New("streaming unsupported")

// Writer frames relay output onto an HTTP response. It satisfies chat.Sink.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter sets the event-stream headers and commits the response status.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	SetHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, flusher: flusher}, nil
}

func SetHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}

type conversationFrame struct {
	ConversationID string `json:"conversationId"`
}

type textFrame struct {
	Text string `json:"text"`
}

type errorFrame struct {
	Error string `json:"error"`
}

func (s *Writer) ConversationCreated(conversationID int64) error {
	return s.writeJSON(conversationFrame{ConversationID: id.Format(conversationID)})
}

func (s *Writer) Text(fragment string) error {
	return s.writeJSON(textFrame{Text: fragment})
}

func (s *Writer) Error(message string) error {
	return s.writeJSON(errorFrame{Error: message})
}

func (s *Writer) Done() error {
	return s.write(DoneMarker)
}

func (s *Writer) writeJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	return s.write(string(payload))
}

func (s *Writer) write(payload string) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	s.flusher.Flush()
	return nil
}
