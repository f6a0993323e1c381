package types

import (
	"fmt"
	"strings"

	"grokgate/pkg/providers"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	// Messages is the conversation so far, oldest first.
	Messages []Message `json:"messages"`

	// SessionID lets clients correlate requests. It is passed through to logs
	// and evidence only.
	SessionID string `json:"sessionId,omitempty"`
}

// Message is a single conversation turn.
type Message struct {
	// Role is the author, e.g. "user", "assistant" or "system".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// ValidationError describes the first invalid field of a request.
type ValidationError struct {
	Field   string
	Message string
	Code    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Validate checks the request shape. An empty message list is accepted; a
// missing one is not.
func (r *ChatRequest) Validate() error {
	if r.Messages == nil {
		return &ValidationError{Field: "messages", Message: "field required", Code: CodeMissingField}
	}
	for i, m := range r.Messages {
		if strings.TrimSpace(m.Role) == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: "role must be a non-empty string",
				Code:    CodeMissingField,
			}
		}
		if m.Content == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].content", i),
				Message: "content must be a non-empty string",
				Code:    CodeMissingField,
			}
		}
	}
	return nil
}

// Conversation converts the request messages for a CompletionSource.
func (r *ChatRequest) Conversation() providers.Conversation {
	conv := make(providers.Conversation, len(r.Messages))
	for i, m := range r.Messages {
		conv[i] = providers.Message{Role: m.Role, Content: m.Content}
	}
	return conv
}
