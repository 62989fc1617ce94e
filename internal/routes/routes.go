package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storyloom/storyloom-backend/internal/handler"
	"github.com/storyloom/storyloom-backend/internal/middleware"
	"github.com/storyloom/storyloom-backend/pkg/jwt"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	importHandler *handler.ImportHandler,
	notificationHandler *handler.NotificationHandler,
	jwtManager *jwt.Manager,
) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1", middleware.JWTAuth(jwtManager))

	// Thread imports
	api.POST("/boards/:board_id/imports", importHandler.CreateImport)

	// Import outcome notifications
	notifications := api.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.GET("/unread", notificationHandler.UnreadCount)
	notifications.POST("/:id/read", notificationHandler.MarkAsRead)
}
