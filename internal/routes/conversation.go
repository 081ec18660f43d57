package routes

import (
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/handlers"
	"github.com/VarunVijay1912/inventory-exchange-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterConversationRoutes(r gin.IRouter) {
	conversations := r.Group("/conversations")
	// All negotiation traffic is strictly authenticated
	conversations.Use(middleware.AuthMiddleware())
	{
		conversations.GET("", handlers.ListConversations)
		conversations.GET("/unread-count", handlers.GetUnreadCount)
		conversations.GET("/:id", handlers.GetConversation)
		conversations.GET("/:id/messages", handlers.GetMessages)
		conversations.POST("/:id/read", handlers.MarkRead)
		conversations.POST("/:id/archive", handlers.ArchiveConversation)

		// Starting a thread and posting into it are marketplace writes:
		// GST-verified accounts only, with message spam limits
		write := conversations.Group("")
		write.Use(middleware.VerifiedUserMiddleware())
		{
			write.POST("", handlers.CreateConversation)
			write.POST("/:id/messages", middleware.MessageRateLimit(), handlers.PostMessage)
		}
	}
}
