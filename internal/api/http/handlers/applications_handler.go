package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/estate-service/internal/api/dto"
	"github.com/spec-kit/estate-service/internal/auth"
	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/service"
	apperrors "github.com/spec-kit/estate-service/pkg/util"
)

// ApplicationsHandler manages buyer application endpoints.
type ApplicationsHandler struct {
	applications *service.ApplicationService
}

// NewApplicationsHandler constructs handler.
func NewApplicationsHandler(applications *service.ApplicationService) *ApplicationsHandler {
	return &ApplicationsHandler{applications: applications}
}

// Submit POST /applications.
func (h *ApplicationsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SubmitApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ListingID == "" {
		return apperrors.NewValidationError("listing_id required", nil)
	}
	desiredDate, err := parseDate(req.DesiredDate)
	if err != nil {
		return err
	}

	app, err := h.applications.Submit(c.UserContext(), principal.User.ID, service.SubmitInput{
		ListingID:     req.ListingID,
		DesiredDate:   desiredDate,
		MonthlyIncome: req.MonthlyIncome,
		Employment:    req.Employment,
		References:    req.References,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": applicationResponse(app)})
}

// Edit PATCH /applications/:id.
func (h *ApplicationsHandler) Edit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.EditApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	desiredDate, err := parseDate(req.DesiredDate)
	if err != nil {
		return err
	}

	app, err := h.applications.Edit(c.UserContext(), principal.User.ID, c.Params("id"), service.EditInput{
		DesiredDate:   desiredDate,
		MonthlyIncome: req.MonthlyIncome,
		Employment:    req.Employment,
		References:    req.References,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationResponse(app)})
}

// List GET /applications.
func (h *ApplicationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseApplicationFilter(c)
	ownerID := principal.User.ID
	filter.OwnerID = &ownerID

	apps, err := h.applications.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationResponses(apps)})
}

// Get GET /applications/:id.
func (h *ApplicationsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	app, err := h.applications.GetForUser(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationResponse(app)})
}

func parseDate(val string) (time.Time, error) {
	if strings.TrimSpace(val) == "" {
		return time.Time{}, apperrors.NewValidationError("desired_date required", nil)
	}
	parsed, err := time.Parse("2006-01-02", val)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("desired_date must be YYYY-MM-DD", nil)
	}
	return parsed, nil
}

func parseApplicationFilter(c *fiber.Ctx) service.ApplicationListFilter {
	filter := service.ApplicationListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.ApplicationStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func applicationResponse(app *domain.Application) dto.ApplicationResponse {
	return dto.ApplicationResponse{
		ID:             app.ID,
		UserID:         app.UserID,
		ListingID:      app.ListingID,
		Status:         app.Status,
		DesiredDate:    app.Fields.DesiredDate.Format("2006-01-02"),
		MonthlyIncome:  app.Fields.MonthlyIncome,
		Employment:     app.Fields.Employment,
		References:     app.Fields.References,
		Notes:          app.Fields.Notes,
		SubmittedAt:    app.SubmittedAt,
		DecidedAt:      app.DecidedAt,
		DecisionReason: app.DecisionReason,
		UpdatedAt:      app.UpdatedAt,
	}
}

func applicationResponses(apps []domain.Application) []dto.ApplicationResponse {
	items := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		items = append(items, applicationResponse(&apps[i]))
	}
	return items
}
