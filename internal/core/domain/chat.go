package domain

import "time"

// Chat is a conversation between matched users or a group's members
type Chat struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	GroupID      string    `json:"groupId,omitempty"`
	IsGroupChat  bool      `json:"isGroupChat"`
	LastMessage  Message   `json:"lastMessage"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Message is a single chat message
type Message struct {
	Text   string    `json:"text"`
	SentBy string    `json:"sentBy"`
	SentAt time.Time `json:"sentAt"`
}

// SystemSender marks messages generated by the service.
const SystemSender = "system"
