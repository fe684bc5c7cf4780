package handler

import (
	"context"
	"net/http"

	"github.com/distributed-fraud-detection/fraud-detection/shared/middleware"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/gin-gonic/gin"
)

type NotificationReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
}

type NotificationHandler struct {
	reader NotificationReader
}

type ListNotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

func NewNotificationHandler(reader NotificationReader) *NotificationHandler {
	return &NotificationHandler{reader: reader}
}

// ListNotifications serves GET /api/notifications?userId=.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		middleware.RespondWithError(c, http.StatusBadRequest, "userId query parameter is required")
		return
	}
	list, err := h.reader.ListByUser(c.Request.Context(), userID)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListNotificationsResponse{Notifications: list})
}
