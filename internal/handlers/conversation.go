package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/VarunVijay1912/inventory-exchange-backend/internal/database"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/models"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/services"
	apperrors "github.com/VarunVijay1912/inventory-exchange-backend/pkg/errors"
	"github.com/VarunVijay1912/inventory-exchange-backend/pkg/utils"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto its HTTP status.
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// CreateConversation POST /conversations
// Finds or creates the thread for (productId, caller). Idempotent: repeat
// calls return the same conversation.
func CreateConversation(c *gin.Context) {
	buyerID := c.MustGet("userId").(string)

	var req struct {
		ProductID string `json:"productId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId required"})
		return
	}

	// Malformed ids cannot match a listing; skip the registry lookup
	if !utils.IsUUID(req.ProductID) {
		respondError(c, apperrors.ErrConversationNotFound)
		return
	}

	conv, err := services.GetOrCreateConversation(c.Request.Context(), req.ProductID, buyerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"conversation": conv})
}

// ListConversations GET /conversations?archived=true
func ListConversations(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	includeArchived := c.Query("archived") == "true"

	summaries, err := services.ListConversationsForUser(userID, includeArchived)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// GetConversation GET /conversations/:id
// Returns the thread with its full history and derived negotiation state,
// and marks everything as read for the caller.
func GetConversation(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	conversationID := c.Param("id")

	conv, err := services.GetConversation(conversationID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	msgs, err := services.ListMessages(conversationID, userID, 0, 200)
	if err != nil {
		respondError(c, err)
		return
	}

	state, err := services.DeriveNegotiationState(conversationID)
	if err != nil {
		respondError(c, err)
		return
	}

	// Opening the thread reads it
	services.MarkRead(conversationID, userID, conv.LastSeq)

	c.JSON(http.StatusOK, gin.H{
		"conversation": conv,
		"messages":     msgs,
		"state":        state,
	})
}

// GetMessages GET /conversations/:id/messages?after=0&limit=50
// Incremental sync: returns messages with seq > after, ascending.
func GetMessages(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	conversationID := c.Param("id")

	after, _ := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	msgs, err := services.ListMessages(conversationID, userID, after, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage POST /conversations/:id/messages
// Body: {type, body?, offerAmount?}. The message gets its sequence number
// assigned atomically on append.
func PostMessage(c *gin.Context) {
	senderID := c.MustGet("userId").(string)
	conversationID := c.Param("id")

	var req struct {
		Type        models.MessageType `json:"type" binding:"required"`
		Body        string             `json:"body"`
		OfferAmount *float64           `json:"offerAmount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Per-user ceiling on top of the per-IP limiter
	allowed, _ := database.CheckRateLimit(senderID, "post_message", 30, time.Minute)
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many messages, please slow down"})
		return
	}

	msg, err := services.AppendMessage(conversationID, senderID, req.Type, req.Body, req.OfferAmount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// MarkRead POST /conversations/:id/read
// Body: {uptoSeq}. Overshoots are clamped to the current max.
func MarkRead(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	conversationID := c.Param("id")

	var req struct {
		UptoSeq int64 `json:"uptoSeq"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	effective, err := services.MarkRead(conversationID, userID, req.UptoSeq)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"readSeq": effective})
}

// ArchiveConversation POST /conversations/:id/archive
func ArchiveConversation(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	conversationID := c.Param("id")

	if err := services.ArchiveConversation(conversationID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"archived": true})
}

// GetUnreadCount GET /conversations/unread-count
// Aggregate unread messages across all threads, for the inbox badge.
func GetUnreadCount(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	count, err := services.AggregateUnreadCount(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
