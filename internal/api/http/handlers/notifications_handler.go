package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/estate-service/internal/api/dto"
	"github.com/spec-kit/estate-service/internal/auth"
	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/service"
	apperrors "github.com/spec-kit/estate-service/pkg/util"
)

// NotificationsHandler manages the notification feed. All endpoints accept
// ?scope=role for staff to operate on the shared admin broadcast feed instead
// of their personal one, so list / mark-all-read / unread-count stay
// consistent with each other for a given scope.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	audience, err := requestAudience(c)
	if err != nil {
		return err
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	items, err := h.notifications.List(c.UserContext(), audience, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationResponses(items)})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.notifications.MarkRead(c.UserContext(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MarkAllRead POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	audience, err := requestAudience(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkAllRead(c.UserContext(), audience); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UnreadCount GET /notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	audience, err := requestAudience(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.UnreadCount(c.UserContext(), audience)
	if err != nil {
		return err
	}
	return c.JSON(dto.UnreadCountResponse{Count: count})
}

// Delete DELETE /notifications/:id.
func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.notifications.Delete(c.UserContext(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func requestAudience(c *fiber.Ctx) (domain.Audience, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Audience{}, apperrors.NewUnauthorized("authentication required")
	}
	if c.Query("scope") == "role" {
		if !principal.Role().IsStaff() {
			return domain.Audience{}, apperrors.NewForbidden("role scope requires an admin role")
		}
		return domain.RoleAudience(domain.RoleAdmin), nil
	}
	return domain.UserAudience(principal.User.ID), nil
}

func notificationResponses(items []domain.Notification) []dto.NotificationResponse {
	result := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		result = append(result, dto.NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Redirect:  n.Redirect,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return result
}
