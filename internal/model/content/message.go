package content

import "github.com/cloudwego/eino/schema"

// Sender identifies who speaks a scripted line.
type Sender string

const (
	SenderSystem Sender = "system"
	SenderUser   Sender = "user"
)

// Message is one scripted chat bubble as exposed to clients.
type Message struct {
	Sender Sender `json:"sender" yaml:"sender"`
	Text   string `json:"text" yaml:"text"`
}

// FromSchema converts a chat transcript entry into a client message.
func FromSchema(msg *schema.Message) Message {
	sender := SenderSystem
	if msg.Role == schema.User {
		sender = SenderUser
	}
	return Message{Sender: sender, Text: msg.Content}
}

// FromSchemaList converts a transcript for the wire. The result is never nil.
func FromSchemaList(msgs []*schema.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, FromSchema(msg))
	}
	return out
}

// CloneList copies every message so callers cannot reach shared table entries.
func CloneList(msgs []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, msg := range msgs {
		copied := *msg
		out = append(out, &copied)
	}
	return out
}

func system(text string) *schema.Message { return schema.SystemMessage(text) }

func user(text string) *schema.Message { return schema.UserMessage(text) }
