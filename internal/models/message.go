package models

import "time"

type MessageType string

const (
	MessageText         MessageType = "text"
	MessageContactShare MessageType = "contact_share"
	MessageOffer        MessageType = "offer"
)

// Message is one entry in a conversation's append-only history. Rows are
// immutable once stored; the only column that ever changes afterwards is
// DeliveredAt. Corrections are new messages, never edits.
type Message struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	ConversationID string       `gorm:"uniqueIndex:idx_message_conversation_seq;not null" json:"conversationId"`
	Conversation   Conversation `gorm:"foreignKey:ConversationID" json:"-"`

	// Seq is assigned at append time from the conversation's LastSeq counter
	// and is the sole ordering authority, gapless per conversation.
	Seq int64 `gorm:"uniqueIndex:idx_message_conversation_seq;not null" json:"seq"`

	SenderID string `gorm:"index;not null" json:"senderId"`
	Sender   User   `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	Type MessageType `gorm:"type:text;not null" json:"type"`

	// Body is required for text messages, optional for the rest.
	Body string `json:"body"`

	// OfferAmount is set iff Type == offer, always > 0.
	OfferAmount *float64 `json:"offerAmount,omitempty"`

	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
}
