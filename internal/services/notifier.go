package services

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/VarunVijay1912/inventory-exchange-backend/internal/database"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/models"
	apperrors "github.com/VarunVijay1912/inventory-exchange-backend/pkg/errors"
	"github.com/VarunVijay1912/inventory-exchange-backend/pkg/logger"
)

// MessageEvent is what recipients get when a message lands. Delivery is
// at-least-once; clients dedupe on (conversationId, seq).
type MessageEvent struct {
	ConversationID string             `json:"conversationId"`
	MessageID      string             `json:"messageId"`
	Seq            int64              `json:"seq"`
	Type           models.MessageType `json:"type"`
	SenderID       string             `json:"senderId"`
	RecipientID    string             `json:"recipientId"`
}

// NotifierSink is one delivery transport. The socket hub registers itself
// at startup; tests register capture sinks.
type NotifierSink interface {
	Deliver(event MessageEvent)
}

var (
	sinksMu sync.RWMutex
	sinks   []NotifierSink
)

func RegisterNotifierSink(s NotifierSink) {
	sinksMu.Lock()
	defer sinksMu.Unlock()
	sinks = append(sinks, s)
}

// ResetNotifierSinks drops all registered sinks. Test helper.
func ResetNotifierSinks() {
	sinksMu.Lock()
	defer sinksMu.Unlock()
	sinks = nil
}

// NotifyAppended fans a freshly committed message out to the recipient.
// AppendMessage calls it strictly after the transaction commits, so an
// event never references an unstored message.
func NotifyAppended(conv *models.Conversation, msg *models.Message) {
	event := MessageEvent{
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		Seq:            msg.Seq,
		Type:           msg.Type,
		SenderID:       msg.SenderID,
		RecipientID:    conv.OtherParticipant(msg.SenderID),
	}

	sinksMu.RLock()
	registered := make([]NotifierSink, len(sinks))
	copy(registered, sinks)
	sinksMu.RUnlock()

	for _, s := range registered {
		s.Deliver(event)
	}

	subject := fmt.Sprintf("conversations.%s.messages", conv.ID)
	if err := database.PublishEvent(subject, event); err != nil {
		// The message is already durable; a lost bus event only delays the
		// recipient until their next sync.
		logger.Warn().Err(err).Str("subject", subject).Msg("Failed to publish message event")
	}
}

// MarkRead moves the caller's read marker up to uptoSeq. An overshoot past
// the conversation's current last_seq is clamped, not rejected: racing a
// concurrent send there is benign. Markers never move backwards. Returns
// the effective marker.
func MarkRead(conversationID, userID string, uptoSeq int64) (int64, error) {
	conv, err := GetConversation(conversationID, userID)
	if err != nil {
		return 0, err
	}

	if uptoSeq > conv.LastSeq {
		uptoSeq = conv.LastSeq
	}

	current := conv.ReadSeqFor(userID)
	if uptoSeq <= current {
		return current, nil
	}

	column := "buyer_read_seq"
	if userID == conv.SellerID {
		column = "seller_read_seq"
	}
	if err := database.DB.Model(&models.Conversation{}).
		Where("id = ?", conv.ID).
		UpdateColumn(column, uptoSeq).Error; err != nil {
		return 0, apperrors.Internal("Failed to record read marker")
	}
	return uptoSeq, nil
}

// MarkDelivered stamps a message's delivered_at on the first client ack.
// Idempotent: later acks for the same message are no-ops.
func MarkDelivered(messageID string) {
	now := time.Now()
	database.DB.Model(&models.Message{}).
		Where("id = ? AND delivered_at IS NULL", messageID).
		UpdateColumn("delivered_at", &now)
}

// AggregateUnreadCount sums unread messages across all of a user's
// conversations, for the inbox badge.
func AggregateUnreadCount(userID string) (int64, error) {
	var total sql.NullInt64
	err := database.DB.Model(&models.Conversation{}).
		Select("SUM(CASE WHEN buyer_id = ? THEN last_seq - buyer_read_seq ELSE last_seq - seller_read_seq END)", userID).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Scan(&total).Error
	if err != nil {
		return 0, apperrors.Internal("Failed to count unread messages")
	}
	if !total.Valid {
		return 0, nil
	}
	return total.Int64, nil
}
