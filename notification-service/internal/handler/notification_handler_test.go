package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/gin-gonic/gin"
)

type mockReader struct {
	listFn func(string) ([]models.Notification, error)
}

func (m *mockReader) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	return m.listFn(userID)
}

func TestListNotifications(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reader := &mockReader{listFn: func(userID string) ([]models.Notification, error) {
		switch userID {
		case "user-1":
			return []models.Notification{{ID: 1, UserID: "user-1", Status: models.NotificationPending}}, nil
		case "user-err":
			return nil, errors.New("db down")
		}
		return []models.Notification{}, nil
	}}
	r := gin.New()
	r.GET("/api/notifications", NewNotificationHandler(reader).ListNotifications)

	tests := []struct {
		name           string
		url            string
		expectedStatus int
		expectedCount  int
	}{
		{"success - has notifications", "/api/notifications?userId=user-1", http.StatusOK, 1},
		{"success - none", "/api/notifications?userId=user-2", http.StatusOK, 0},
		{"bad request - missing user", "/api/notifications", http.StatusBadRequest, 0},
		{"internal error", "/api/notifications?userId=user-err", http.StatusInternalServerError, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if w.Code != tt.expectedStatus {
				t.Fatalf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if w.Code != http.StatusOK {
				return
			}
			var resp ListNotificationsResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Notifications) != tt.expectedCount {
				t.Errorf("[%s] expected %d notifications, got %d", tt.name, tt.expectedCount, len(resp.Notifications))
			}
		})
	}
}
