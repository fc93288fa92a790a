package domain

import "time"

// ApplicationStatus enumerates lifecycle states for purchase applications.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusApproved ApplicationStatus = "APPROVED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

// IsTerminal reports whether no further decision may be taken.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// ApplicationFields holds the buyer-supplied details of an application.
// Mutable only while the application is pending.
type ApplicationFields struct {
	DesiredDate   time.Time
	MonthlyIncome float64
	Employment    string
	References    string
	Notes         string
}

// Application is the aggregate for a buyer's request to purchase a listing.
// UserID and ListingID are immutable after creation; DecisionReason is
// non-empty iff Status is REJECTED.
type Application struct {
	ID             string
	UserID         string
	ListingID      string
	Status         ApplicationStatus
	Fields         ApplicationFields
	SubmittedAt    time.Time
	DecidedAt      *time.Time
	DecisionReason *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
