package dto

import (
	"time"

	"github.com/spec-kit/estate-service/internal/domain"
)

// NotificationResponse represents one feed entry.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Redirect  *string                 `json:"redirect_to,omitempty"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}

// UnreadCountResponse payload.
type UnreadCountResponse struct {
	Count int `json:"unread_count"`
}
