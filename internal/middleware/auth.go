package middleware

import (
	"net/http"
	"strings"

	"github.com/VarunVijay1912/inventory-exchange-backend/internal/database"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/models"
	"github.com/VarunVijay1912/inventory-exchange-backend/pkg/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware is the identity gate: it resolves the Bearer token to a
// principal and puts (userId, isVerified) in the request context. Handlers
// authorize against those facts, never against the token itself.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Verify the account still exists and is not soft-deleted. The
		// verification flag is read from the row, not the token, so a GST
		// verification takes effect without re-login.
		var user models.User
		if err := database.DB.Select("id", "is_verified").First(&user, "id = ?", claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found or inactive"})
			c.Abort()
			return
		}

		c.Set("userId", user.ID)
		c.Set("isVerified", user.IsVerified)
		c.Next()
	}
}

// VerifiedUserMiddleware requires a GST-verified account on top of
// authentication. Marketplace writes (listing products, negotiating) sit
// behind it; reads do not.
func VerifiedUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		verified, exists := c.Get("isVerified")
		if !exists || verified != true {
			c.JSON(http.StatusForbidden, gin.H{"error": "GST verification required for this action"})
			c.Abort()
			return
		}
		c.Next()
	}
}
