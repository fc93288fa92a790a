package dto

import (
	"time"

	"github.com/spec-kit/estate-service/internal/domain"
)

// ListingResponse represents one catalog entry.
type ListingResponse struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Location  string               `json:"location"`
	Price     float64              `json:"price"`
	SizeSqm   float64              `json:"size_sqm"`
	Status    domain.ListingStatus `json:"status"`
	MediaRefs []string             `json:"media_refs"`
	CreatedAt time.Time            `json:"created_at"`
}
