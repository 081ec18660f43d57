package services

import (
	"context"
	"errors"
	"time"

	"github.com/VarunVijay1912/inventory-exchange-backend/internal/config"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/database"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/models"
	apperrors "github.com/VarunVijay1912/inventory-exchange-backend/pkg/errors"
	"gorm.io/gorm"
)

// ResolveProductSeller returns the seller of record for a product. This is
// the one lookup the negotiation core makes outside its own tables, so it
// runs under the caller's deadline: on timeout the create path fails with
// DependencyUnavailable instead of hanging.
func ResolveProductSeller(ctx context.Context, productID string) (string, error) {
	var product models.Product
	err := database.DB.WithContext(ctx).
		Select("id", "seller_id", "status").
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", apperrors.ErrDependencyUnavailable
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrConversationNotFound
		}
		return "", apperrors.Internal("Failed to resolve product")
	}

	if product.Status == models.ProductRemoved {
		return "", apperrors.ErrConversationNotFound
	}

	return product.SellerID, nil
}

// listingTimeout bounds the product lookup during conversation creation.
func listingTimeout() time.Duration {
	ms := 2000
	if config.AppConfig != nil && config.AppConfig.ListingTimeoutMs > 0 {
		ms = config.AppConfig.ListingTimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}
