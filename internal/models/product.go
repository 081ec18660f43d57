package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductAvailable ProductStatus = "AVAILABLE"
	ProductSold      ProductStatus = "SOLD"
	ProductRemoved   ProductStatus = "REMOVED"
)

// Product is a surplus-inventory listing. The negotiation core only reads
// the (id, seller_id) pair from here; everything else is catalog plumbing.
type Product struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	SellerID string `gorm:"index;not null" json:"sellerId"`
	Seller   User   `gorm:"foreignKey:SellerID" json:"seller,omitempty"`

	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Category    string         `gorm:"index" json:"category"`
	Price       float64        `json:"price"`
	Quantity    int            `json:"quantity"`
	Unit        string         `json:"unit"` // kg, pcs, boxes...
	Images      pq.StringArray `gorm:"type:text[]" json:"images"`

	Status ProductStatus `gorm:"type:text;default:'AVAILABLE';index" json:"status"`
}
