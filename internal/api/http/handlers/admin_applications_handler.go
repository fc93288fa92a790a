package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/estate-service/internal/api/dto"
	"github.com/spec-kit/estate-service/internal/auth"
	"github.com/spec-kit/estate-service/internal/service"
	"github.com/spec-kit/estate-service/internal/syncloop"
	apperrors "github.com/spec-kit/estate-service/pkg/util"
)

// AdminApplicationsHandler manages staff review endpoints.
type AdminApplicationsHandler struct {
	applications *service.ApplicationService
	reviews      *service.ReviewService
	editSessions *syncloop.EditRegistry
}

// NewAdminApplicationsHandler constructs handler.
func NewAdminApplicationsHandler(applications *service.ApplicationService, reviews *service.ReviewService, editSessions *syncloop.EditRegistry) *AdminApplicationsHandler {
	return &AdminApplicationsHandler{
		applications: applications,
		reviews:      reviews,
		editSessions: editSessions,
	}
}

// List GET /admin/applications.
func (h *AdminApplicationsHandler) List(c *fiber.Ctx) error {
	filter := parseApplicationFilter(c)
	if ownerID := c.Query("owner_id"); ownerID != "" {
		filter.OwnerID = &ownerID
	}
	apps, err := h.applications.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationResponses(apps)})
}

// Get GET /admin/applications/:id.
func (h *AdminApplicationsHandler) Get(c *fiber.Ctx) error {
	app, err := h.applications.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationResponse(app)})
}

// Approve POST /admin/applications/:id/approve.
func (h *AdminApplicationsHandler) Approve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	app, err := h.reviews.Approve(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationResponse(app)})
}

// Reject POST /admin/applications/:id/reject.
func (h *AdminApplicationsHandler) Reject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RejectApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	app, err := h.reviews.Reject(c.UserContext(), principal.User, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationResponse(app)})
}

// OpenEditSession POST /admin/applications/:id/edit-session.
// Marks the record as being edited so other sessions' sync loops leave it
// alone. Returns 409 when another session already holds it.
func (h *AdminApplicationsHandler) OpenEditSession(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	applicationID := c.Params("id")
	if _, err := h.applications.Get(c.UserContext(), applicationID); err != nil {
		return err
	}

	sessionID := strings.TrimSpace(c.Get("X-Session-ID"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	acquired, err := h.editSessions.Acquire(c.UserContext(), applicationID, sessionID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !acquired {
		return apperrors.NewInvalidState("application is being edited by another session", map[string]any{"application_id": applicationID})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.EditSessionResponse{
		ApplicationID: applicationID,
		SessionID:     sessionID,
	}})
}

// CloseEditSession DELETE /admin/applications/:id/edit-session.
func (h *AdminApplicationsHandler) CloseEditSession(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	sessionID := strings.TrimSpace(c.Get("X-Session-ID"))
	if sessionID == "" {
		return apperrors.NewValidationError("X-Session-ID header required", nil)
	}
	if err := h.editSessions.Release(c.UserContext(), c.Params("id"), sessionID); err != nil {
		return apperrors.MapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}
