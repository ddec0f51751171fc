package models

import "time"

type MessageKind string

const (
	MessageText           MessageKind = "text"
	MessageCallInvitation MessageKind = "call_invitation"
	MessageDocument       MessageKind = "document"
)

// Message is one entry of a two-party conversation.
type Message struct {
	ID          string      `bson:"id" json:"id"`
	SenderID    string      `bson:"senderId" json:"senderId"`
	RecipientID string      `bson:"recipientId" json:"recipientId"`
	Kind        MessageKind `bson:"kind" json:"kind"`
	Content     string      `bson:"content" json:"content"`
	RoomID      string      `bson:"roomId,omitempty" json:"roomId,omitempty"`
	DocumentID  string      `bson:"documentId,omitempty" json:"documentId,omitempty"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt"`
}

type SendMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Content     string `json:"content" binding:"required,max=4000"`
}

type StartCallRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
}
