package models

// MessageType tags a chat history row with who produced it.
type MessageType string

const (
	MessageTypeUser MessageType = "user"
	MessageTypeAI   MessageType = "ai"
	// MessageTypeError records a failed generation attempt. Error rows are
	// never replayed into session memory.
	MessageTypeError MessageType = "error"
)

func (m MessageType) Valid() bool {
	switch m {
	case MessageTypeUser, MessageTypeAI, MessageTypeError:
		return true
	}
	return false
}
