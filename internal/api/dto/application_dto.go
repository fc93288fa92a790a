package dto

import (
	"time"

	"github.com/spec-kit/estate-service/internal/domain"
)

// SubmitApplicationRequest payload.
type SubmitApplicationRequest struct {
	ListingID     string  `json:"listing_id"`
	DesiredDate   string  `json:"desired_date"` // YYYY-MM-DD
	MonthlyIncome float64 `json:"monthly_income"`
	Employment    string  `json:"employment"`
	References    string  `json:"references"`
	Notes         string  `json:"notes"`
}

// EditApplicationRequest payload.
type EditApplicationRequest struct {
	DesiredDate   string  `json:"desired_date"`
	MonthlyIncome float64 `json:"monthly_income"`
	Employment    string  `json:"employment"`
	References    string  `json:"references"`
	Notes         string  `json:"notes"`
}

// RejectApplicationRequest payload.
type RejectApplicationRequest struct {
	Reason string `json:"reason"`
}

// ApplicationResponse represents one application.
type ApplicationResponse struct {
	ID             string                   `json:"id"`
	UserID         string                   `json:"user_id"`
	ListingID      string                   `json:"listing_id"`
	Status         domain.ApplicationStatus `json:"status"`
	DesiredDate    string                   `json:"desired_date"`
	MonthlyIncome  float64                  `json:"monthly_income"`
	Employment     string                   `json:"employment"`
	References     string                   `json:"references"`
	Notes          string                   `json:"notes"`
	SubmittedAt    time.Time                `json:"submitted_at"`
	DecidedAt      *time.Time               `json:"decided_at"`
	DecisionReason *string                  `json:"decision_reason"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// EditSessionResponse confirms an acquired edit session.
type EditSessionResponse struct {
	ApplicationID string `json:"application_id"`
	SessionID     string `json:"session_id"`
}
