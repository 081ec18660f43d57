package services

import (
	"strings"
	"time"

	"github.com/VarunVijay1912/inventory-exchange-backend/internal/database"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/models"
	apperrors "github.com/VarunVijay1912/inventory-exchange-backend/pkg/errors"
)

type NegotiationPhase string

const (
	PhaseOpened       NegotiationPhase = "OPENED"
	PhaseOfferPending NegotiationPhase = "OFFER_PENDING"
	PhaseCountered    NegotiationPhase = "COUNTERED"
)

// LatestOffer is the only offer the derived state remembers. Earlier offers
// stay in the message history but are superseded for state purposes.
type LatestOffer struct {
	Amount   float64 `json:"amount"`
	SenderID string  `json:"senderId"`
	Seq      int64   `json:"seq"`
}

// NegotiationState is derived by folding a conversation's messages in
// sequence order. It is never stored as independently mutable truth; the
// Redis entry is a cache that gets invalidated on every append.
type NegotiationState struct {
	Phase NegotiationPhase `json:"phase"`

	// ContactShared is an independent axis: sharing contact details does
	// not reset or block offer state.
	ContactShared bool `json:"contactShared"`

	LatestOffer *LatestOffer `json:"latestOffer,omitempty"`
}

func NewNegotiationState() NegotiationState {
	return NegotiationState{Phase: PhaseOpened}
}

// Apply folds one message into the state. Pure; depends only on the message
// and the prior state, never on wall-clock time.
func (s NegotiationState) Apply(msg models.Message) NegotiationState {
	switch msg.Type {
	case models.MessageContactShare:
		s.ContactShared = true

	case models.MessageOffer:
		if msg.OfferAmount == nil {
			// Rejected before storage; a stored offer always has an amount.
			return s
		}
		if s.LatestOffer != nil && s.LatestOffer.SenderID != msg.SenderID {
			s.Phase = PhaseCountered
		} else {
			// First offer, or a revision by the same sender.
			s.Phase = PhaseOfferPending
		}
		s.LatestOffer = &LatestOffer{
			Amount:   *msg.OfferAmount,
			SenderID: msg.SenderID,
			Seq:      msg.Seq,
		}

	case models.MessageText:
		// Plain chat never moves the phase.
	}
	return s
}

// FoldNegotiationState replays messages, which must already be in ascending
// sequence order, into a derived state.
func FoldNegotiationState(msgs []models.Message) NegotiationState {
	state := NewNegotiationState()
	for _, m := range msgs {
		state = state.Apply(m)
	}
	return state
}

// ValidateMessage checks a payload against its declared type before anything
// is stored. Failures surface as ErrInvalidPayload and leave no state behind.
func ValidateMessage(msgType models.MessageType, body string, offerAmount *float64) error {
	switch msgType {
	case models.MessageText:
		if strings.TrimSpace(body) == "" {
			return apperrors.ErrInvalidPayload
		}
		if offerAmount != nil {
			return apperrors.ErrInvalidPayload
		}
	case models.MessageContactShare:
		if offerAmount != nil {
			return apperrors.ErrInvalidPayload
		}
	case models.MessageOffer:
		if offerAmount == nil || *offerAmount <= 0 {
			return apperrors.ErrInvalidPayload
		}
	default:
		return apperrors.ErrInvalidPayload
	}
	return nil
}

const negotiationStateTTL = 10 * time.Minute

func negotiationStateCacheKey(conversationID string) string {
	return "negotiation_state:" + conversationID
}

// DeriveNegotiationState returns the folded state for a conversation,
// reading through the Redis cache. The cache entry is dropped by
// AppendMessage after every successful append, never patched in place.
func DeriveNegotiationState(conversationID string) (NegotiationState, error) {
	var cached NegotiationState
	if err := database.CacheGet(negotiationStateCacheKey(conversationID), &cached); err == nil {
		return cached, nil
	}

	var msgs []models.Message
	err := database.DB.
		Select("seq", "sender_id", "type", "offer_amount").
		Where("conversation_id = ?", conversationID).
		Order("seq asc").
		Find(&msgs).Error
	if err != nil {
		return NewNegotiationState(), err
	}

	state := FoldNegotiationState(msgs)
	database.CacheSet(negotiationStateCacheKey(conversationID), state, negotiationStateTTL)
	return state, nil
}

func invalidateNegotiationState(conversationID string) {
	database.CacheInvalidate(negotiationStateCacheKey(conversationID))
}
