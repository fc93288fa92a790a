package domain

import "time"

// ContactMessageStatus enumerates inbound message states.
type ContactMessageStatus string

const (
	ContactStatusUnread  ContactMessageStatus = "UNREAD"
	ContactStatusRead    ContactMessageStatus = "READ"
	ContactStatusReplied ContactMessageStatus = "REPLIED"
)

// ContactMessage is an inbound enquiry. AdminReply is non-nil iff Status is
// REPLIED, mirroring the decision-reason invariant on applications.
type ContactMessage struct {
	ID          string
	SenderName  string
	SenderEmail string
	SenderPhone string
	Subject     string
	Body        string
	Status      ContactMessageStatus
	AdminReply  *string
	RepliedAt   *time.Time
	CreatedAt   time.Time
}
