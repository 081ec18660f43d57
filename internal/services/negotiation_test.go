package services

import (
	"testing"

	"github.com/VarunVijay1912/inventory-exchange-backend/internal/models"
	apperrors "github.com/VarunVijay1912/inventory-exchange-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func msg(seq int64, sender string, msgType models.MessageType, amount *float64) models.Message {
	return models.Message{Seq: seq, SenderID: sender, Type: msgType, OfferAmount: amount}
}

func TestFold_EmptyConversationIsOpened(t *testing.T) {
	state := FoldNegotiationState(nil)

	assert.Equal(t, PhaseOpened, state.Phase)
	assert.False(t, state.ContactShared)
	assert.Nil(t, state.LatestOffer)
}

func TestFold_TextLeavesPhaseUntouched(t *testing.T) {
	state := FoldNegotiationState([]models.Message{
		msg(1, "buyer", models.MessageText, nil),
		msg(2, "seller", models.MessageText, nil),
	})

	assert.Equal(t, PhaseOpened, state.Phase)
}

func TestFold_FirstOfferIsPending(t *testing.T) {
	state := FoldNegotiationState([]models.Message{
		msg(1, "buyer", models.MessageText, nil),
		msg(2, "buyer", models.MessageOffer, offerAmount(100)),
	})

	assert.Equal(t, PhaseOfferPending, state.Phase)
	if assert.NotNil(t, state.LatestOffer) {
		assert.Equal(t, 100.0, state.LatestOffer.Amount)
		assert.Equal(t, "buyer", state.LatestOffer.SenderID)
		assert.Equal(t, int64(2), state.LatestOffer.Seq)
	}
}

func TestFold_CounterOfferFromOtherSide(t *testing.T) {
	state := FoldNegotiationState([]models.Message{
		msg(1, "buyer", models.MessageOffer, offerAmount(100)),
		msg(2, "seller", models.MessageOffer, offerAmount(90)),
	})

	assert.Equal(t, PhaseCountered, state.Phase)
	if assert.NotNil(t, state.LatestOffer) {
		assert.Equal(t, 90.0, state.LatestOffer.Amount)
		assert.Equal(t, "seller", state.LatestOffer.SenderID)
	}
}

func TestFold_RevisionBySameSenderStaysPending(t *testing.T) {
	state := FoldNegotiationState([]models.Message{
		msg(1, "buyer", models.MessageOffer, offerAmount(100)),
		msg(2, "buyer", models.MessageOffer, offerAmount(95)),
	})

	assert.Equal(t, PhaseOfferPending, state.Phase)
	assert.Equal(t, 95.0, state.LatestOffer.Amount)
}

func TestFold_TextAfterCounterKeepsCountered(t *testing.T) {
	state := FoldNegotiationState([]models.Message{
		msg(1, "buyer", models.MessageOffer, offerAmount(100)),
		msg(2, "seller", models.MessageOffer, offerAmount(90)),
		msg(3, "buyer", models.MessageText, nil),
	})

	assert.Equal(t, PhaseCountered, state.Phase)
	assert.Equal(t, 90.0, state.LatestOffer.Amount)
}

func TestFold_ContactShareIsIndependentAxis(t *testing.T) {
	// contact_share before any offer
	state := FoldNegotiationState([]models.Message{
		msg(1, "seller", models.MessageContactShare, nil),
	})
	assert.Equal(t, PhaseOpened, state.Phase)
	assert.True(t, state.ContactShared)

	// contact_share does not reset offer state
	state = FoldNegotiationState([]models.Message{
		msg(1, "buyer", models.MessageOffer, offerAmount(100)),
		msg(2, "seller", models.MessageOffer, offerAmount(90)),
		msg(3, "seller", models.MessageContactShare, nil),
	})
	assert.Equal(t, PhaseCountered, state.Phase)
	assert.True(t, state.ContactShared)
	assert.Equal(t, 90.0, state.LatestOffer.Amount)
}

func TestValidateMessage(t *testing.T) {
	// text requires a body
	assert.NoError(t, ValidateMessage(models.MessageText, "hello", nil))
	assert.Equal(t, apperrors.ErrInvalidPayload, ValidateMessage(models.MessageText, "", nil))
	assert.Equal(t, apperrors.ErrInvalidPayload, ValidateMessage(models.MessageText, "   ", nil))

	// text cannot smuggle an amount
	assert.Equal(t, apperrors.ErrInvalidPayload, ValidateMessage(models.MessageText, "hi", offerAmount(5)))

	// contact_share works with or without a body
	assert.NoError(t, ValidateMessage(models.MessageContactShare, "", nil))
	assert.NoError(t, ValidateMessage(models.MessageContactShare, "call me", nil))
	assert.Equal(t, apperrors.ErrInvalidPayload, ValidateMessage(models.MessageContactShare, "", offerAmount(5)))

	// offers need a positive amount
	assert.NoError(t, ValidateMessage(models.MessageOffer, "", offerAmount(4500)))
	assert.Equal(t, apperrors.ErrInvalidPayload, ValidateMessage(models.MessageOffer, "", nil))
	assert.Equal(t, apperrors.ErrInvalidPayload, ValidateMessage(models.MessageOffer, "", offerAmount(0)))
	assert.Equal(t, apperrors.ErrInvalidPayload, ValidateMessage(models.MessageOffer, "", offerAmount(-10)))

	// unknown types are rejected
	assert.Equal(t, apperrors.ErrInvalidPayload, ValidateMessage(models.MessageType("sticker"), "", nil))
}
