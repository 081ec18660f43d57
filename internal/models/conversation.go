package models

import (
	"time"
)

// Conversation is a negotiation thread for one product between exactly one
// buyer and one seller. The (product_id, buyer_id) pair is unique; the
// participant set never changes after creation, even if the listing is later
// reassigned. Conversations are never deleted, only archived per side.
type Conversation struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	ProductID string  `gorm:"uniqueIndex:idx_conversation_product_buyer;not null" json:"productId"`
	Product   Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	BuyerID string `gorm:"uniqueIndex:idx_conversation_product_buyer;not null" json:"buyerId"`
	Buyer   User   `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`

	SellerID string `gorm:"index;not null" json:"sellerId"`
	Seller   User   `gorm:"foreignKey:SellerID" json:"seller,omitempty"`

	// LastSeq is the per-conversation sequence authority. It is only ever
	// moved by the atomic increment inside AppendMessage; messages carry
	// 1..LastSeq with no gaps.
	LastSeq int64 `gorm:"default:0" json:"lastSeq"`

	// Read markers per participant, capped at LastSeq.
	BuyerReadSeq  int64 `gorm:"default:0" json:"buyerReadSeq"`
	SellerReadSeq int64 `gorm:"default:0" json:"sellerReadSeq"`

	// Soft archive flags. Data is retained for audit either way.
	BuyerArchived  bool `gorm:"default:false" json:"buyerArchived"`
	SellerArchived bool `gorm:"default:false" json:"sellerArchived"`

	LastMessageAt time.Time `gorm:"index" json:"lastMessageAt"`
}

// IsParticipant reports whether userID is the buyer or seller of c.
func (c *Conversation) IsParticipant(userID string) bool {
	return userID == c.BuyerID || userID == c.SellerID
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID string) string {
	if userID == c.BuyerID {
		return c.SellerID
	}
	return c.BuyerID
}

// ReadSeqFor returns userID's read marker.
func (c *Conversation) ReadSeqFor(userID string) int64 {
	if userID == c.BuyerID {
		return c.BuyerReadSeq
	}
	return c.SellerReadSeq
}

// UnreadCountFor returns how many messages userID has not read yet.
func (c *Conversation) UnreadCountFor(userID string) int64 {
	n := c.LastSeq - c.ReadSeqFor(userID)
	if n < 0 {
		return 0
	}
	return n
}
