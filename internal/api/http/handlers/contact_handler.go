package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/estate-service/internal/api/dto"
	"github.com/spec-kit/estate-service/internal/auth"
	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/service"
	apperrors "github.com/spec-kit/estate-service/pkg/util"
)

// ContactHandler manages public enquiries and the staff inbox.
type ContactHandler struct {
	contact *service.ContactService
}

// NewContactHandler constructs handler.
func NewContactHandler(contact *service.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

// Submit POST /contact. Public, no auth.
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitContactRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.contact.Submit(c.UserContext(), service.ContactSubmitInput{
		SenderName:  req.Name,
		SenderEmail: req.Email,
		SenderPhone: req.Phone,
		Subject:     req.Subject,
		Body:        req.Body,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": contactResponse(msg)})
}

// List GET /admin/messages.
func (h *ContactHandler) List(c *fiber.Ctx) error {
	var statuses []domain.ContactMessageStatus
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			statuses = append(statuses, domain.ContactMessageStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	items, err := h.contact.List(c.UserContext(), statuses, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	result := make([]dto.ContactMessageResponse, 0, len(items))
	for i := range items {
		result = append(result, contactResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": result})
}

// Get GET /admin/messages/:id.
func (h *ContactHandler) Get(c *fiber.Ctx) error {
	msg, err := h.contact.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": contactResponse(msg)})
}

// Reply POST /admin/messages/:id/reply.
func (h *ContactHandler) Reply(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReplyContactRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.contact.Reply(c.UserContext(), principal.User, c.Params("id"), req.Reply)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": contactResponse(msg)})
}

func contactResponse(msg *domain.ContactMessage) dto.ContactMessageResponse {
	return dto.ContactMessageResponse{
		ID:          msg.ID,
		SenderName:  msg.SenderName,
		SenderEmail: msg.SenderEmail,
		SenderPhone: msg.SenderPhone,
		Subject:     msg.Subject,
		Body:        msg.Body,
		Status:      msg.Status,
		AdminReply:  msg.AdminReply,
		RepliedAt:   msg.RepliedAt,
		CreatedAt:   msg.CreatedAt,
	}
}
