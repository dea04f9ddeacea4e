// File: /controllers/notification_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"runmeet-api/repositories"
	"runmeet-api/utils"
)

type NotificationController struct {
	notifications *repositories.NotificationRepository
}

func NewNotificationController(notifications *repositories.NotificationRepository) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// GetNotifications gets paginated notifications for the current user
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	userID := c.GetString("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	notifications, total, err := nc.notifications.ListForRecipient(userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	utils.SendPaginated(c, notifications, page, limit, total)
}

// GetNotificationStats gets unread and total counts for the current user
func (nc *NotificationController) GetNotificationStats(c *gin.Context) {
	stats, err := nc.notifications.Stats(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notification stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// MarkAsRead marks one of the current user's notifications as read
func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	err := nc.notifications.MarkRead(c.GetString("user_id"), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
