package dto

import (
	"time"

	"github.com/spec-kit/estate-service/internal/domain"
)

// SubmitContactRequest payload.
type SubmitContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ReplyContactRequest payload.
type ReplyContactRequest struct {
	Reply string `json:"reply"`
}

// ContactMessageResponse represents one enquiry.
type ContactMessageResponse struct {
	ID          string                      `json:"id"`
	SenderName  string                      `json:"sender_name"`
	SenderEmail string                      `json:"sender_email"`
	SenderPhone string                      `json:"sender_phone"`
	Subject     string                      `json:"subject"`
	Body        string                      `json:"body"`
	Status      domain.ContactMessageStatus `json:"status"`
	AdminReply  *string                     `json:"admin_reply"`
	RepliedAt   *time.Time                  `json:"replied_at"`
	CreatedAt   time.Time                   `json:"created_at"`
}
