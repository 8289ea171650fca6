package bus

import "fmt"

// SourceInternal marks messages synthesized by the scheduler or engine
// rather than received from a chat transport.
const SourceInternal = "internal"

// InboundMessage represents a message received from any channel.
type InboundMessage struct {
	Channel  string            // source channel name (e.g. "telegram", "internal")
	SenderID string            // sender identifier
	ChatID   string            // chat/conversation identifier
	Content  string            // text content
	Metadata map[string]string // arbitrary metadata
}

// SessionKey returns the routing key for conversation history.
func (m InboundMessage) SessionKey() string {
	return fmt.Sprintf("%s:%s", m.Channel, m.ChatID)
}

// Attachment is a file delivered alongside an outbound message, e.g. an
// extracted code block too long to send inline.
type Attachment struct {
	Name string
	Data []byte
}

// OutboundMessage represents a message to be sent to a channel.
type OutboundMessage struct {
	Channel     string       // target channel
	ChatID      string       // target chat
	Content     string       // text content
	Attachments []Attachment // files to deliver separately from the text
	Type        string       // "text" or "error"
}
