package routes

import (
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/handlers"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterUploadRoutes(r gin.IRouter) {
	uploads := r.Group("/uploads")
	uploads.Use(middleware.AuthMiddleware(), middleware.VerifiedUserMiddleware(), middleware.UploadRateLimit())
	{
		uploads.POST("/product-image", handlers.UploadProductImage)
	}
}
