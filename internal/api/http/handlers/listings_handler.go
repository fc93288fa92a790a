package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/estate-service/internal/api/dto"
	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/repository"
	apperrors "github.com/spec-kit/estate-service/pkg/util"
)

// ListingsHandler serves read-only catalog views. The catalog collaborator
// owns listing mutations; this subsystem only reads.
type ListingsHandler struct {
	listings repository.ListingRepository
}

// NewListingsHandler constructs handler.
func NewListingsHandler(listings repository.ListingRepository) *ListingsHandler {
	return &ListingsHandler{listings: listings}
}

// List GET /listings.
func (h *ListingsHandler) List(c *fiber.Ctx) error {
	filter := repository.ListingFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.ListingStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if location := c.Query("location"); location != "" {
		filter.Location = &location
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	listings, err := h.listings.ListWithFilter(c.UserContext(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	result := make([]dto.ListingResponse, 0, len(listings))
	for i := range listings {
		result = append(result, listingResponse(&listings[i]))
	}
	return c.JSON(fiber.Map{"data": result})
}

// Get GET /listings/:id.
func (h *ListingsHandler) Get(c *fiber.Ctx) error {
	listing, err := h.listings.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("listing", map[string]any{"listing_id": c.Params("id")})
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": listingResponse(listing)})
}

func listingResponse(listing *domain.Listing) dto.ListingResponse {
	return dto.ListingResponse{
		ID:        listing.ID,
		Title:     listing.Title,
		Location:  listing.Location,
		Price:     listing.Price,
		SizeSqm:   listing.SizeSqm,
		Status:    listing.Status,
		MediaRefs: listing.MediaRefs,
		CreatedAt: listing.CreatedAt,
	}
}
