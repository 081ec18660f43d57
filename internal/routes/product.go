package routes

import (
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/handlers"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterProductRoutes(r gin.IRouter) {
	products := r.Group("/products")
	{
		// Public catalog reads
		products.GET("", handlers.ListProducts)
		products.GET("/:id", handlers.GetProduct)

		// Listing writes require a GST-verified seller
		write := products.Group("")
		write.Use(middleware.AuthMiddleware(), middleware.VerifiedUserMiddleware())
		{
			write.POST("", handlers.CreateProduct)
			write.PUT("/:id", handlers.UpdateProduct)
			write.DELETE("/:id", handlers.DeleteProduct)
		}
	}
}
