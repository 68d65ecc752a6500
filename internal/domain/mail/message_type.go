package mail

// MessageType classifies how a message was produced
type MessageType string

const (
	MessageTypeEmail        MessageType = "email"
	MessageTypeComment      MessageType = "comment"
	MessageTypeNotification MessageType = "notification"
)

// IsValid reports whether t is a known message type
func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeEmail, MessageTypeComment, MessageTypeNotification:
		return true
	}
	return false
}
