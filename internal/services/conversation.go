package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/VarunVijay1912/inventory-exchange-backend/internal/database"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/models"
	apperrors "github.com/VarunVijay1912/inventory-exchange-backend/pkg/errors"
	"github.com/VarunVijay1912/inventory-exchange-backend/pkg/logger"
	"github.com/VarunVijay1912/inventory-exchange-backend/pkg/utils"
	"gorm.io/gorm"
)

// keyedMutex serializes work per string key. Appends to the same
// conversation (and creates for the same product+buyer pair) serialize on
// it; different keys proceed in parallel. The database unique indexes and
// the atomic last_seq increment remain the cross-instance guard.
//
// Entries are refcounted and dropped as soon as the last holder releases
// them, so the map only holds keys with in-flight work.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedMutexEntry
}

type keyedMutexEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[string]*keyedMutexEntry)
	}
	e, ok := k.entries[key]
	if !ok {
		e = &keyedMutexEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *keyedMutex) unlock(key string) {
	k.mu.Lock()
	e := k.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

var (
	appendLocks keyedMutex
	createLocks keyedMutex
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 200
)

// GetOrCreateConversation finds the thread for (productID, buyerID) or
// creates it after confirming the product exists and the buyer is not its
// seller. Concurrent calls for the same pair never produce duplicates: the
// loser of a create race returns the winner's row.
func GetOrCreateConversation(ctx context.Context, productID, buyerID string) (*models.Conversation, error) {
	// Fast path outside the lock: the thread usually already exists.
	var conv models.Conversation
	err := database.DB.Where("product_id = ? AND buyer_id = ?", productID, buyerID).First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal("Failed to look up conversation")
	}

	createKey := productID + "|" + buyerID
	createLocks.lock(createKey)
	defer createLocks.unlock(createKey)

	// Re-check under the lock.
	err = database.DB.Where("product_id = ? AND buyer_id = ?", productID, buyerID).First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal("Failed to look up conversation")
	}

	// One-time listing lookup, bounded so a slow registry cannot hang the
	// request.
	lctx, cancel := context.WithTimeout(ctx, listingTimeout())
	defer cancel()

	sellerID, err := ResolveProductSeller(lctx, productID)
	if err != nil {
		return nil, err
	}
	if sellerID == buyerID {
		return nil, apperrors.ErrForbidden
	}

	now := time.Now()
	conv = models.Conversation{
		ID:            utils.GenerateID(),
		ProductID:     productID,
		BuyerID:       buyerID,
		SellerID:      sellerID,
		CreatedAt:     now,
		LastMessageAt: now,
	}

	if err := database.DB.Create(&conv).Error; err != nil {
		// Another instance won the insert race on the unique index; return
		// the winner's record.
		var winner models.Conversation
		if ferr := database.DB.Where("product_id = ? AND buyer_id = ?", productID, buyerID).First(&winner).Error; ferr == nil {
			return &winner, nil
		}
		logger.Error().Err(err).Str("product_id", productID).Msg("Failed to create conversation")
		return nil, apperrors.Internal("Failed to create conversation")
	}

	logger.Info().
		Str("conversation_id", conv.ID).
		Str("product_id", productID).
		Str("buyer_id", buyerID).
		Msg("Conversation created")

	return &conv, nil
}

// GetConversation loads a conversation and authorizes the caller for reads.
func GetConversation(conversationID, callerID string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := database.DB.Where("id = ?", conversationID).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, apperrors.Internal("Failed to load conversation")
	}
	if err := Authorize(callerID, &conv, ActionRead); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ConversationSummary is one row of a user's inbox.
type ConversationSummary struct {
	Conversation models.Conversation `json:"conversation"`
	LastMessage  *models.Message     `json:"lastMessage,omitempty"`
	UnreadCount  int64               `json:"unreadCount"`
	State        NegotiationState    `json:"state"`
}

// ListConversationsForUser returns the caller's threads, most recent
// activity first. Threads the caller archived are skipped unless
// includeArchived is set; the other side's archive flag has no effect.
func ListConversationsForUser(userID string, includeArchived bool) ([]ConversationSummary, error) {
	var convs []models.Conversation
	q := database.DB.
		Preload("Product").
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("last_message_at desc")
	if err := q.Find(&convs).Error; err != nil {
		return nil, apperrors.Internal("Failed to list conversations")
	}

	summaries := make([]ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		archived := conv.BuyerArchived
		if userID == conv.SellerID {
			archived = conv.SellerArchived
		}
		if archived && !includeArchived {
			continue
		}

		var last models.Message
		var lastPtr *models.Message
		if conv.LastSeq > 0 {
			if err := database.DB.Where("conversation_id = ? AND seq = ?", conv.ID, conv.LastSeq).First(&last).Error; err == nil {
				lastPtr = &last
			}
		}

		state, err := DeriveNegotiationState(conv.ID)
		if err != nil {
			return nil, apperrors.Internal("Failed to derive negotiation state")
		}

		summaries = append(summaries, ConversationSummary{
			Conversation: conv,
			LastMessage:  lastPtr,
			UnreadCount:  conv.UnreadCountFor(userID),
			State:        state,
		})
	}
	return summaries, nil
}

// AppendMessage validates and stores one message, assigning the next
// sequence number atomically. Everything happens in a single transaction:
// a failed validation rolls the claimed sequence back, so stored messages
// are always exactly 1..last_seq with no gaps. Notification and cache
// invalidation run only after the commit.
func AppendMessage(conversationID, senderID string, msgType models.MessageType, body string, offerAmount *float64) (*models.Message, error) {
	appendLocks.lock(conversationID)
	defer appendLocks.unlock(conversationID)

	var msg models.Message
	var conv models.Conversation

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Claim the next sequence number. The UPDATE takes the row lock
		// that serializes appends across instances.
		res := tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			UpdateColumn("last_seq", gorm.Expr("last_seq + 1"))
		if res.Error != nil {
			return apperrors.Internal("Failed to claim sequence number")
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConversationNotFound
		}

		if err := tx.Where("id = ?", conversationID).First(&conv).Error; err != nil {
			return apperrors.Internal("Failed to load conversation")
		}

		if err := Authorize(senderID, &conv, ActionWrite); err != nil {
			return err
		}
		if err := ValidateMessage(msgType, body, offerAmount); err != nil {
			return err
		}

		now := time.Now()
		msg = models.Message{
			ID:             utils.GenerateMessageID(),
			ConversationID: conversationID,
			Seq:            conv.LastSeq,
			SenderID:       senderID,
			Type:           msgType,
			Body:           body,
			OfferAmount:    offerAmount,
			CreatedAt:      now,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return apperrors.Internal("Failed to store message")
		}

		// Senders have implicitly read their own message; only the
		// recipient's unread count grows.
		readColumn := "buyer_read_seq"
		if senderID == conv.SellerID {
			readColumn = "seller_read_seq"
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			UpdateColumns(map[string]interface{}{
				"last_message_at": now,
				readColumn:        msg.Seq,
			}).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		logger.Error().Err(err).Str("conversation_id", conversationID).Msg("Append failed")
		return nil, apperrors.Internal("Failed to append message")
	}

	// The message is durably committed; now fan out and drop the cached
	// derived state.
	invalidateNegotiationState(conversationID)
	NotifyAppended(&conv, &msg)

	return &msg, nil
}

// ListMessages returns messages with seq > afterSeq in ascending order,
// capped at limit. Serves both full history loads (afterSeq=0) and
// incremental sync.
func ListMessages(conversationID, callerID string, afterSeq int64, limit int) ([]models.Message, error) {
	conv, err := GetConversation(conversationID, callerID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultMessagePageSize
	}
	if limit > maxMessagePageSize {
		limit = maxMessagePageSize
	}

	var msgs []models.Message
	err = database.DB.
		Where("conversation_id = ? AND seq > ?", conv.ID, afterSeq).
		Order("seq asc").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, apperrors.Internal("Failed to list messages")
	}
	return msgs, nil
}

// ArchiveConversation hides the thread from the caller's inbox. The record
// and its history stay put for audit.
func ArchiveConversation(conversationID, userID string) error {
	conv, err := GetConversation(conversationID, userID)
	if err != nil {
		return err
	}

	column := "buyer_archived"
	if userID == conv.SellerID {
		column = "seller_archived"
	}
	if err := database.DB.Model(&models.Conversation{}).
		Where("id = ?", conv.ID).
		UpdateColumn(column, true).Error; err != nil {
		return apperrors.Internal("Failed to archive conversation")
	}
	return nil
}
