package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is a B2B trading account. Sellers and buyers are the same model;
// the distinction exists only per conversation.
type User struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email       string `gorm:"uniqueIndex" json:"email"`
	CompanyName string `json:"companyName"`
	Phone       string `json:"phone"`

	// GST registration. IsVerified flips after the GSTIN check passes and
	// gates marketplace writes (listing products, messaging).
	GSTNumber  string `gorm:"column:gst_number" json:"gstNumber"`
	IsVerified bool   `gorm:"default:false" json:"isVerified"`

	Role Role `gorm:"type:text;default:'USER'" json:"role"`

	Password string `json:"-"`
}
