package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/storyloom/storyloom-backend/internal/common"
	"github.com/storyloom/storyloom-backend/internal/middleware"
	"github.com/storyloom/storyloom-backend/internal/service"
)

// NotificationHandler serves the import outcome notifications
type NotificationHandler struct {
	service *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List handles GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, total, err := h.service.GetList(userID, page, limit)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to fetch notifications", nil)
		return
	}

	common.SuccessResponse(c, gin.H{"items": items, "total": total})
}

// UnreadCount handles GET /api/v1/notifications/unread
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.service.GetUnreadCount(middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to fetch unread count", nil)
		return
	}
	common.SuccessResponse(c, gin.H{"total_unread": count})
}

// MarkAsRead handles POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.ErrorResponse(c, 400, "Invalid notification ID", nil)
		return
	}
	if err := h.service.MarkAsRead(id); err != nil {
		common.ErrorResponse(c, 500, "Failed to mark notification read", nil)
		return
	}
	common.SuccessResponse(c, gin.H{"id": id})
}
