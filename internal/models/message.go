package models

// Sender identifies who authored a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry in a conversation transcript. Messages are append-only
// and rendered in insertion order.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}
