package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/VarunVijay1912/inventory-exchange-backend/internal/config"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/database"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/models"
	"github.com/VarunVijay1912/inventory-exchange-backend/pkg/logger"
	"github.com/VarunVijay1912/inventory-exchange-backend/pkg/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SetupTestDB initializes a named in-memory SQLite DB for one test. A single
// connection keeps the shared-cache database alive and serializes access, so
// the concurrency tests exercise our own locking rather than SQLite's.
func SetupTestDB(t *testing.T) {
	t.Helper()

	config.AppConfig = &config.Config{
		JWTSecret:        "test_secret_key_12345",
		ListingTimeoutMs: 2000,
	}
	logger.Init("test")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Conversation{},
		&models.Message{},
	); err != nil {
		t.Fatalf("Failed to migrate test DB: %v", err)
	}

	database.DB = db
	ResetNotifierSinks()
}

func createTestUser(t *testing.T, id string, verified bool) models.User {
	t.Helper()
	user := models.User{
		ID:          id,
		Email:       id + "@example.com",
		CompanyName: id + " Pvt Ltd",
		IsVerified:  verified,
		CreatedAt:   time.Now(),
	}
	if err := database.DB.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user %s: %v", id, err)
	}
	return user
}

func createTestProduct(t *testing.T, sellerID string) models.Product {
	t.Helper()
	product := models.Product{
		ID:        utils.GenerateID(),
		SellerID:  sellerID,
		Title:     "Surplus steel coils",
		Category:  "metals",
		Price:     50000,
		Quantity:  20,
		Unit:      "tonnes",
		Status:    models.ProductAvailable,
		CreatedAt: time.Now(),
	}
	if err := database.DB.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}
	return product
}

func offerAmount(v float64) *float64 {
	return &v
}
