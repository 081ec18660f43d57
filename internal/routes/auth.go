package routes

import (
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/handlers"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterAuthRoutes(r gin.IRouter) {
	r.POST("/register", handlers.Register)
	r.POST("/login", handlers.Login)

	me := r.Group("")
	me.Use(middleware.AuthMiddleware())
	{
		me.GET("/me", handlers.Me)
		me.POST("/verify-gst", handlers.VerifyGST)
	}
}
