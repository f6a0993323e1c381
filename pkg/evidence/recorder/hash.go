package recorder

import (
	"crypto/sha256"
	"encoding/hex"

	"grokgate/pkg/providers"
)

// HashConversation returns the hex SHA-256 of the conversation's roles and
// contents. Records keep this hash instead of the messages themselves, so two
// identical conversations can be correlated without storing what was said.
//
// Returns an empty string for an empty conversation.
func HashConversation(conv providers.Conversation) string {
	if len(conv) == 0 {
		return ""
	}

	h := sha256.New()
	for _, msg := range conv {
		// NUL separators keep ("ab","c") and ("a","bc") apart.
		h.Write([]byte(msg.Role))
		h.Write([]byte{0})
		h.Write([]byte(msg.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
