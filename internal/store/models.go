package store

import "time"

// Message types as persisted and shown in the chat panel.
const (
	MessageSummary = "summary"
	MessageUser    = "user"
	MessageAI      = "ai"
)

type Meeting struct {
	ID        string     `json:"id"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

// StoredLine is one persisted transcript line. Ordering on reload is by
// CreatedAt, then ID, which reconstructs append order.
type StoredLine struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meetingId"`
	Speaker   int       `json:"speaker"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage is the write shape for a chat panel message.
type NewMessage struct {
	Type          string
	Content       string
	Title         string
	QuotedMessage string
}

type StoredMessage struct {
	ID            string    `json:"id"`
	MeetingID     string    `json:"meetingId"`
	Type          string    `json:"type"`
	Content       string    `json:"content"`
	Title         string    `json:"title,omitempty"`
	QuotedMessage string    `json:"quotedMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
