package events

import (
	"time"

	"github.com/spec-kit/estate-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventApplicationSubmitted  EventType = "application_submitted"
	EventApplicationEdited     EventType = "application_edited"
	EventApplicationDecided    EventType = "application_decided"
	EventContactMessageCreated EventType = "contact_message_created"
	EventContactMessageReplied EventType = "contact_message_replied"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID *string      `json:"user_id,omitempty"`
	Role   *domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services after the underlying
// state change has been committed.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ApplicationSubmittedPayload payload.
type ApplicationSubmittedPayload struct {
	ListingID    string `json:"listing_id"`
	ListingTitle string `json:"listing_title"`
	ApplicantID  string `json:"applicant_id"`
}

// ApplicationDecidedPayload payload.
type ApplicationDecidedPayload struct {
	ListingID    string                   `json:"listing_id"`
	ListingTitle string                   `json:"listing_title"`
	ApplicantID  string                   `json:"applicant_id"`
	NewStatus    domain.ApplicationStatus `json:"new_status"`
	Reason       string                   `json:"reason,omitempty"`
	DecidedByID  string                   `json:"decided_by_id"`
}

// ApplicationEditedPayload payload.
type ApplicationEditedPayload struct {
	ListingID   string `json:"listing_id"`
	ApplicantID string `json:"applicant_id"`
}

// ContactMessageCreatedPayload payload.
type ContactMessageCreatedPayload struct {
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Subject     string `json:"subject"`
}

// ContactMessageRepliedPayload payload.
type ContactMessageRepliedPayload struct {
	SenderEmail  string `json:"sender_email"`
	Subject      string `json:"subject"`
	ReplyPreview string `json:"reply_preview"`
	RepliedByID  string `json:"replied_by_id"`
}
