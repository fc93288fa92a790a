package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/estate-service/internal/api/http/handlers"
	"github.com/spec-kit/estate-service/internal/auth"
	"github.com/spec-kit/estate-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Users             *handlers.UsersHandler
	Listings          *handlers.ListingsHandler
	Applications      *handlers.ApplicationsHandler
	AdminApplications *handlers.AdminApplicationsHandler
	Notifications     *handlers.NotificationsHandler
	Contact           *handlers.ContactHandler
	AuthMiddleware    *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/register", cfg.Users.Register)
	app.Post("/auth/login", cfg.Users.Login)

	app.Get("/listings", cfg.Listings.List)
	app.Get("/listings/:id", cfg.Listings.Get)

	app.Post("/contact", cfg.Contact.Submit)

	authed := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	authed.Get("/auth/me", cfg.Users.Me)

	authed.Post("/applications", cfg.Applications.Submit)
	authed.Get("/applications", cfg.Applications.List)
	authed.Get("/applications/:id", cfg.Applications.Get)
	authed.Patch("/applications/:id", cfg.Applications.Edit)

	authed.Get("/notifications", cfg.Notifications.List)
	authed.Get("/notifications/unread-count", cfg.Notifications.UnreadCount)
	authed.Post("/notifications/read-all", cfg.Notifications.MarkAllRead)
	authed.Post("/notifications/:id/read", cfg.Notifications.MarkRead)
	authed.Delete("/notifications/:id", cfg.Notifications.Delete)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin))
	admin.Get("/applications", cfg.AdminApplications.List)
	admin.Get("/applications/:id", cfg.AdminApplications.Get)
	admin.Post("/applications/:id/approve", cfg.AdminApplications.Approve)
	admin.Post("/applications/:id/reject", cfg.AdminApplications.Reject)
	admin.Post("/applications/:id/edit-session", cfg.AdminApplications.OpenEditSession)
	admin.Delete("/applications/:id/edit-session", cfg.AdminApplications.CloseEditSession)

	admin.Get("/messages", cfg.Contact.List)
	admin.Get("/messages/:id", cfg.Contact.Get)
	admin.Post("/messages/:id/reply", cfg.Contact.Reply)
}
