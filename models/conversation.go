package models

import "time"

// MaxMessageLength bounds a chat message body, in characters.
const MaxMessageLength = 2000

// Conversation is the single thread between two users. User1ID is always the smaller id.
type Conversation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	User1ID         uint      `gorm:"not null;uniqueIndex:uq_conversations_pair" json:"user1_id"`
	User2ID         uint      `gorm:"not null;uniqueIndex:uq_conversations_pair" json:"user2_id"`
	LastMessageTime time.Time `json:"last_message_time"`
	CreatedAt       time.Time `json:"created_at"`
}

// Message is one chat entry. ReadAt stays null until the receiver marks it read.
type Message struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ConversationID uint       `gorm:"index;not null" json:"conversation_id"`
	SenderID       uint       `gorm:"not null" json:"sender_id"`
	ReceiverID     uint       `gorm:"index;not null" json:"receiver_id"`
	MessageText    string     `gorm:"type:text;not null" json:"message_text"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at"`
}

// OrderedPair returns the two user ids in storage order.
func OrderedPair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}
