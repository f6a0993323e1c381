package providers

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message. Role is a free-form tag; the usual values
// are the Role constants above.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered list of messages. Order is significant and is
// preserved all the way to the upstream request.
type Conversation []Message

// WithSystemPrompt returns the conversation as it is sent upstream: a leading
// system message carrying prompt, followed by the original messages. The
// receiver is never modified. An empty prompt returns a copy unchanged.
func (c Conversation) WithSystemPrompt(prompt string) Conversation {
	out := make(Conversation, 0, len(c)+1)
	if prompt != "" {
		out = append(out, Message{Role: RoleSystem, Content: prompt})
	}
	return append(out, c...)
}

// Token is an opaque fragment of model output. It is relayed verbatim.
type Token string
