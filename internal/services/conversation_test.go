package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/VarunVijay1912/inventory-exchange-backend/internal/database"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/models"
	apperrors "github.com/VarunVijay1912/inventory-exchange-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestGetOrCreateConversation(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "seller1", true)
	createTestUser(t, "buyer1", true)
	product := createTestProduct(t, "seller1")

	conv, err := GetOrCreateConversation(context.Background(), product.ID, "buyer1")
	assert.NoError(t, err)
	assert.Equal(t, product.ID, conv.ProductID)
	assert.Equal(t, "buyer1", conv.BuyerID)
	assert.Equal(t, "seller1", conv.SellerID)
	assert.Equal(t, int64(0), conv.LastSeq)

	// Repeat call returns the same thread
	again, err := GetOrCreateConversation(context.Background(), product.ID, "buyer1")
	assert.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	var count int64
	database.DB.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetOrCreateConversation_BuyerIsSeller(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "seller1", true)
	product := createTestProduct(t, "seller1")

	_, err := GetOrCreateConversation(context.Background(), product.ID, "seller1")
	assert.Equal(t, apperrors.ErrForbidden, err)
}

func TestGetOrCreateConversation_UnknownProduct(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "buyer1", true)

	_, err := GetOrCreateConversation(context.Background(), "no-such-product", "buyer1")
	assert.Equal(t, apperrors.ErrConversationNotFound, err)
}

func TestGetOrCreateConversation_RemovedProduct(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "seller1", true)
	createTestUser(t, "buyer1", true)
	product := createTestProduct(t, "seller1")
	database.DB.Model(&product).UpdateColumn("status", models.ProductRemoved)

	_, err := GetOrCreateConversation(context.Background(), product.ID, "buyer1")
	assert.Equal(t, apperrors.ErrConversationNotFound, err)
}

func TestKeyedMutex_DropsIdleKeys(t *testing.T) {
	var km keyedMutex

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("conv-%d", i%2)
			for j := 0; j < 50; j++ {
				km.lock(key)
				km.unlock(key)
			}
		}(i)
	}
	wg.Wait()

	// No in-flight holders, no retained entries
	km.mu.Lock()
	assert.Empty(t, km.entries)
	km.mu.Unlock()
}

func TestGetOrCreateConversation_CancelledListingLookup(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "seller1", true)
	createTestUser(t, "buyer1", true)
	product := createTestProduct(t, "seller1")

	// The listing lookup runs under the caller's deadline; an expired
	// context must surface as a retryable dependency failure, not hang
	// and not leave a conversation behind.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GetOrCreateConversation(ctx, product.ID, "buyer1")
	assert.Equal(t, apperrors.ErrDependencyUnavailable, err)

	var count int64
	database.DB.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// The same pair succeeds once the caller retries with a live context
	conv, err := GetOrCreateConversation(context.Background(), product.ID, "buyer1")
	assert.NoError(t, err)
	assert.Equal(t, "seller1", conv.SellerID)
}

func TestGetOrCreateConversation_ConcurrentCallsNoDuplicates(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "seller1", true)
	createTestUser(t, "buyer1", true)
	product := createTestProduct(t, "seller1")

	const n = 10
	ids := make([]string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			conv, err := GetOrCreateConversation(context.Background(), product.ID, "buyer1")
			if assert.NoError(t, err) {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Equal(t, ids[0], ids[i])
	}

	var count int64
	database.DB.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAppendMessage_AssignsSequence(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "seller1", true)
	createTestUser(t, "buyer1", true)
	product := createTestProduct(t, "seller1")
	conv, _ := GetOrCreateConversation(context.Background(), product.ID, "buyer1")

	m1, err := AppendMessage(conv.ID, "buyer1", models.MessageText, "interested in the coils", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), m1.Seq)
	assert.NotEmpty(t, m1.ID)

	m2, err := AppendMessage(conv.ID, "seller1", models.MessageText, "they are grade A", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), m2.Seq)

	var reloaded models.Conversation
	database.DB.First(&reloaded, "id = ?", conv.ID)
	assert.Equal(t, int64(2), reloaded.LastSeq)
	assert.True(t, reloaded.LastMessageAt.After(conv.LastMessageAt) || reloaded.LastMessageAt.Equal(conv.LastMessageAt))
}

func TestAppendMessage_NotParticipantNeverStored(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "seller1", true)
	createTestUser(t, "buyer1", true)
	createTestUser(t, "intruder", true)
	product := createTestProduct(t, "seller1")
	conv, _ := GetOrCreateConversation(context.Background(), product.ID, "buyer1")

	_, err := AppendMessage(conv.ID, "intruder", models.MessageText, "let me in", nil)
	assert.Equal(t, apperrors.ErrNotParticipant, err)

	// Nothing stored, no sequence claimed
	var msgCount int64
	database.DB.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&msgCount)
	assert.Equal(t, int64(0), msgCount)

	var reloaded models.Conversation
	database.DB.First(&reloaded, "id = ?", conv.ID)
	assert.Equal(t, int64(0), reloaded.LastSeq)

	// The next legitimate message still gets seq 1
	m, err := AppendMessage(conv.ID, "buyer1", models.MessageText, "hello", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), m.Seq)
}

func TestAppendMessage_InvalidOfferRejectedWithoutStateChange(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "seller1", true)
	createTestUser(t, "buyer1", true)
	product := createTestProduct(t, "seller1")
	conv, _ := GetOrCreateConversation(context.Background(), product.ID, "buyer1")

	_, err := AppendMessage(conv.ID, "buyer1", models.MessageOffer, "", offerAmount(0))
	assert.Equal(t, apperrors.ErrInvalidPayload, err)

	_, err = AppendMessage(conv.ID, "buyer1", models.MessageOffer, "", offerAmount(-500))
	assert.Equal(t, apperrors.ErrInvalidPayload, err)

	_, err = AppendMessage(conv.ID, "buyer1", models.MessageOffer, "", nil)
	assert.Equal(t, apperrors.ErrInvalidPayload, err)

	state, err := DeriveNegotiationState(conv.ID)
	assert.NoError(t, err)
	assert.Equal(t, PhaseOpened, state.Phase)
	assert.Nil(t, state.LatestOffer)

	var reloaded models.Conversation
	database.DB.First(&reloaded, "id = ?", conv.ID)
	assert.Equal(t, int64(0), reloaded.LastSeq)
}

func TestAppendMessage_UnknownConversation(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "buyer1", true)

	_, err := AppendMessage("no-such-conversation", "buyer1", models.MessageText, "hello", nil)
	assert.Equal(t, apperrors.ErrConversationNotFound, err)
}

func TestAppendMessage_ConcurrentSendersGaplessSequence(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "seller1", true)
	createTestUser(t, "buyer1", true)
	product := createTestProduct(t, "seller1")
	conv, _ := GetOrCreateConversation(context.Background(), product.ID, "buyer1")

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		sender := "buyer1"
		if i%2 == 0 {
			sender = "seller1"
		}
		go func(sender string) {
			defer wg.Done()
			_, err := AppendMessage(conv.ID, sender, models.MessageText, "ping", nil)
			assert.NoError(t, err)
		}(sender)
	}
	wg.Wait()

	var msgs []models.Message
	database.DB.Where("conversation_id = ?", conv.ID).Order("seq asc").Find(&msgs)
	assert.Len(t, msgs, n)
	for i, m := range msgs {
		assert.Equal(t, int64(i+1), m.Seq)
	}
}

func TestListMessages_IncrementalSync(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "seller1", true)
	createTestUser(t, "buyer1", true)
	product := createTestProduct(t, "seller1")
	conv, _ := GetOrCreateConversation(context.Background(), product.ID, "buyer1")

	for i := 0; i < 5; i++ {
		AppendMessage(conv.ID, "buyer1", models.MessageText, "msg", nil)
	}

	// Full history
	msgs, err := ListMessages(conv.ID, "buyer1", 0, 10)
	assert.NoError(t, err)
	assert.Len(t, msgs, 5)

	// Incremental
	msgs, err = ListMessages(conv.ID, "seller1", 3, 10)
	assert.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, int64(4), msgs[0].Seq)
	assert.Equal(t, int64(5), msgs[1].Seq)

	// Limit cap
	msgs, err = ListMessages(conv.ID, "buyer1", 0, 2)
	assert.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, int64(1), msgs[0].Seq)

	// Outsiders cannot read
	createTestUser(t, "intruder", true)
	_, err = ListMessages(conv.ID, "intruder", 0, 10)
	assert.Equal(t, apperrors.ErrForbidden, err)
}

func TestListConversationsForUser(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "seller1", true)
	createTestUser(t, "buyer1", true)
	createTestUser(t, "buyer2", true)
	p1 := createTestProduct(t, "seller1")
	p2 := createTestProduct(t, "seller1")

	c1, _ := GetOrCreateConversation(context.Background(), p1.ID, "buyer1")
	c2, _ := GetOrCreateConversation(context.Background(), p2.ID, "buyer1")
	GetOrCreateConversation(context.Background(), p1.ID, "buyer2")

	AppendMessage(c1.ID, "buyer1", models.MessageText, "old thread", nil)
	time.Sleep(5 * time.Millisecond)
	AppendMessage(c2.ID, "buyer1", models.MessageOffer, "", offerAmount(42000))

	// buyer1 sees two threads, most recent activity first
	summaries, err := ListConversationsForUser("buyer1", false)
	assert.NoError(t, err)
	if assert.Len(t, summaries, 2) {
		assert.Equal(t, c2.ID, summaries[0].Conversation.ID)
		assert.Equal(t, c1.ID, summaries[1].Conversation.ID)
		assert.Equal(t, PhaseOfferPending, summaries[0].State.Phase)
		if assert.NotNil(t, summaries[0].LastMessage) {
			assert.Equal(t, models.MessageOffer, summaries[0].LastMessage.Type)
		}
		assert.Equal(t, int64(0), summaries[0].UnreadCount) // buyer1 sent it
	}

	// seller1 sees all three and has unread messages
	summaries, err = ListConversationsForUser("seller1", false)
	assert.NoError(t, err)
	assert.Len(t, summaries, 3)

	// Archived threads disappear from the default view only
	assert.NoError(t, ArchiveConversation(c1.ID, "buyer1"))
	summaries, _ = ListConversationsForUser("buyer1", false)
	assert.Len(t, summaries, 1)
	summaries, _ = ListConversationsForUser("buyer1", true)
	assert.Len(t, summaries, 2)

	// The other side's inbox is unaffected by buyer1's archive
	summaries, _ = ListConversationsForUser("seller1", false)
	assert.Len(t, summaries, 3)
}

func TestNegotiationScenario_EndToEnd(t *testing.T) {
	SetupTestDB(t)
	createTestUser(t, "S1", true)
	createTestUser(t, "B1", true)
	createTestUser(t, "U2", true)
	p1 := createTestProduct(t, "S1")

	// B1 opens the thread
	c1, err := GetOrCreateConversation(context.Background(), p1.ID, "B1")
	assert.NoError(t, err)

	// seq 1: B1 text
	m, err := AppendMessage(c1.ID, "B1", models.MessageText, "interested", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), m.Seq)

	// seq 2: S1 offer 5000 -> OFFER_PENDING
	m, err = AppendMessage(c1.ID, "S1", models.MessageOffer, "", offerAmount(5000))
	assert.NoError(t, err)
	assert.Equal(t, int64(2), m.Seq)
	state, _ := DeriveNegotiationState(c1.ID)
	assert.Equal(t, PhaseOfferPending, state.Phase)

	// seq 3: B1 counter 4500 -> COUNTERED
	m, err = AppendMessage(c1.ID, "B1", models.MessageOffer, "", offerAmount(4500))
	assert.NoError(t, err)
	assert.Equal(t, int64(3), m.Seq)
	state, _ = DeriveNegotiationState(c1.ID)
	assert.Equal(t, PhaseCountered, state.Phase)
	assert.Equal(t, 4500.0, state.LatestOffer.Amount)

	// seq 4: S1 shares contact -> CONTACT_SHARED flag, still COUNTERED
	m, err = AppendMessage(c1.ID, "S1", models.MessageContactShare, "call me on 98xxx", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), m.Seq)
	state, _ = DeriveNegotiationState(c1.ID)
	assert.Equal(t, PhaseCountered, state.Phase)
	assert.True(t, state.ContactShared)

	// B1 reads the full history
	msgs, err := ListMessages(c1.ID, "B1", 0, 10)
	assert.NoError(t, err)
	if assert.Len(t, msgs, 4) {
		for i, m := range msgs {
			assert.Equal(t, int64(i+1), m.Seq)
		}
	}

	// A third user gets Forbidden
	_, err = ListMessages(c1.ID, "U2", 0, 10)
	assert.Equal(t, apperrors.ErrForbidden, err)
}
