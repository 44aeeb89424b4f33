package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a document in the chat_history collection. Messages are
// written in user/assistant pairs and never updated; a chat_id is only
// meaningful together with its owning user_id.
type ChatMessage struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	ChatID    string    `bson:"chat_id" json:"chat_id"`
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// HistoryEntry is the projection returned to clients, without owner or
// timing information.
type HistoryEntry struct {
	Role    string `bson:"role" json:"role"`
	Content string `bson:"content" json:"content"`
}
