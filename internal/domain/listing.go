package domain

import "time"

// ListingStatus enumerates catalog availability states. The application
// subsystem reads listing status for display context only; the catalog owns it.
type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "AVAILABLE"
	ListingStatusSold      ListingStatus = "SOLD"
	ListingStatusReserved  ListingStatus = "RESERVED"
)

// Listing is a land/property catalog entry.
type Listing struct {
	ID        string
	Title     string
	Location  string
	Price     float64
	SizeSqm   float64
	Status    ListingStatus
	MediaRefs []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
