package models

import "time"

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// SealedMessage is the at-rest representation of one encrypted message:
// a hex-encoded 12-byte IV, the hex ciphertext, and a hex 16-byte GCM tag.
// The three fields are always written and read together.
type SealedMessage struct {
	IV      string `json:"iv"`
	Content string `json:"content"`
	Tag     string `json:"tag"`
}

// DirectMessage is a raw user-to-user message row. The canonical schema has
// no id and no timestamp column; retrieval order is insertion order only as
// far as the database happens to preserve it.
type DirectMessage struct {
	SenderID     int
	ReceiverID   int
	SenderName   string
	ReceiverName string
	Sealed       SealedMessage
}

type Group struct {
	ID        int       `json:"id"`
	Name      string    `json:"groupname"`
	CreatedBy int       `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupMessage struct {
	ID         int
	SenderID   int
	GroupID    int
	SenderName string
	Sealed     SealedMessage
	SentAt     time.Time
}

// Message is the delivered-message shape handed to clients. For direct
// messages SentAt is null and ID is an ordinal within the fetched
// conversation, since the underlying rows carry neither.
type Message struct {
	ID      int        `json:"id"`
	FromMe  bool       `json:"fromMe"`
	Sender  string     `json:"sender,omitempty"`
	Content string     `json:"content"`
	SentAt  *time.Time `json:"sentAt"`
}

// Conversation is one chat-list entry: either a direct counterparty or a
// group, tagged by IsGroup.
type Conversation struct {
	IsGroup     bool       `json:"isGroup"`
	UserID      int        `json:"userid,omitempty"`
	GroupID     int        `json:"groupid,omitempty"`
	Name        string     `json:"name"`
	LastMessage string     `json:"lastMessage"`
	SentAt      *time.Time `json:"sentAt"`
}
