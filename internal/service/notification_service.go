package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/events"
	"github.com/spec-kit/estate-service/internal/repository"
	apperrors "github.com/spec-kit/estate-service/pkg/util"
)

// Mailer sends best-effort external notices. Failures are logged, never
// surfaced to the caller of a decision.
type Mailer interface {
	SendExternalNotice(to, subject, body string) error
}

// NotificationService turns state transitions into addressed notification
// rows and tracks read state.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	dispatcher    events.Dispatcher
	mailer        Mailer
	logger        *zap.Logger
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	Dispatcher       events.Dispatcher
	Mailer           Mailer
	Logger           *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		dispatcher:    deps.Dispatcher,
		mailer:        deps.Mailer,
		logger:        deps.Logger,
	}
}

// RegisterHandlers subscribes the fan-out to domain events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventApplicationSubmitted, n.handleApplicationSubmitted)
	n.dispatcher.Subscribe(events.EventApplicationDecided, n.handleApplicationDecided)
	n.dispatcher.Subscribe(events.EventContactMessageCreated, n.handleContactMessageCreated)
	n.dispatcher.Subscribe(events.EventContactMessageReplied, n.handleContactMessageReplied)
}

// Emit creates one unread notification row for the audience.
func (n *NotificationService) Emit(ctx context.Context, audience domain.Audience, notifType domain.NotificationType, title, message string, redirect *string) (*domain.Notification, error) {
	notification := &domain.Notification{
		Audience: audience,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Redirect: redirect,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		return nil, apperrors.MapError(err)
	}
	return notification, nil
}

// List returns the audience's notifications newest-first.
func (n *NotificationService) List(ctx context.Context, audience domain.Audience, limit, offset int) ([]domain.Notification, error) {
	items, err := n.notifications.ListByAudience(ctx, audience, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// MarkRead flips is_read on one notification. Only the addressed audience may
// do so: the owning user, or any staff member for role-scoped rows. Idempotent:
// marking an already-read notification is a no-op, not an error.
func (n *NotificationService) MarkRead(ctx context.Context, actor *domain.User, id string) error {
	if _, err := n.authorizeMutation(ctx, actor, id); err != nil {
		return err
	}
	if err := n.notifications.MarkRead(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// MarkAllRead flips is_read for every unread row of the audience. Idempotent.
func (n *NotificationService) MarkAllRead(ctx context.Context, audience domain.Audience) error {
	if err := n.notifications.MarkAllRead(ctx, audience); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// UnreadCount derives the unread total from the rows themselves; there is no
// stored counter that could drift.
func (n *NotificationService) UnreadCount(ctx context.Context, audience domain.Audience) (int, error) {
	count, err := n.notifications.UnreadCount(ctx, audience)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// Delete removes a notification on explicit user action. Subject to the same
// audience check as MarkRead.
func (n *NotificationService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if _, err := n.authorizeMutation(ctx, actor, id); err != nil {
		return err
	}
	if err := n.notifications.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// authorizeMutation loads the notification and verifies the actor is its
// audience: the addressed user for user-scoped rows, any staff member for
// role-scoped ones.
func (n *NotificationService) authorizeMutation(ctx context.Context, actor *domain.User, id string) (*domain.Notification, error) {
	notification, err := n.notifications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("notification", map[string]any{"notification_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if actor == nil {
		return nil, apperrors.NewForbidden("not your notification")
	}
	if notification.Audience.UserID != nil && *notification.Audience.UserID == actor.ID {
		return notification, nil
	}
	if notification.Audience.Role != nil && actor.Role.IsStaff() {
		return notification, nil
	}
	return nil, apperrors.NewForbidden("not your notification")
}

func (n *NotificationService) handleApplicationSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationSubmittedPayload)
	if !ok {
		return nil
	}
	redirect := applicationRedirect(event.SubjectID)
	n.emitLogged(ctx, domain.RoleAudience(domain.RoleAdmin), domain.NotificationTypeInfo,
		"New application received",
		fmt.Sprintf("A buyer applied for %q.", payload.ListingTitle),
		&redirect)
	return nil
}

func (n *NotificationService) handleApplicationDecided(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ApplicationDecidedPayload)
	if !ok {
		return nil
	}
	redirect := applicationRedirect(event.SubjectID)

	var notifType domain.NotificationType
	var title, message string
	switch payload.NewStatus {
	case domain.ApplicationStatusApproved:
		notifType = domain.NotificationTypeSuccess
		title = "Application approved"
		message = fmt.Sprintf("Your application for %q was approved.", payload.ListingTitle)
	case domain.ApplicationStatusRejected:
		notifType = domain.NotificationTypeWarning
		title = "Application rejected"
		message = fmt.Sprintf("Your application for %q was rejected: %s", payload.ListingTitle, payload.Reason)
	default:
		return nil
	}

	// applicant-facing notification
	n.emitLogged(ctx, domain.UserAudience(payload.ApplicantID), notifType, title, message, &redirect)

	// admin audit entry
	n.emitLogged(ctx, domain.RoleAudience(domain.RoleAdmin), domain.NotificationTypeInfo,
		"Application decided",
		fmt.Sprintf("Application for %q was %s.", payload.ListingTitle, payload.NewStatus),
		&redirect)

	n.sendApplicantEmail(ctx, payload.ApplicantID, title, message)
	return nil
}

func (n *NotificationService) handleContactMessageCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ContactMessageCreatedPayload)
	if !ok {
		return nil
	}
	redirect := "/admin/messages/" + event.SubjectID
	n.emitLogged(ctx, domain.RoleAudience(domain.RoleAdmin), domain.NotificationTypeInfo,
		"New contact message",
		fmt.Sprintf("%s wrote: %s", payload.SenderName, payload.Subject),
		&redirect)
	return nil
}

func (n *NotificationService) handleContactMessageReplied(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ContactMessageRepliedPayload)
	if !ok {
		return nil
	}
	n.sendExternalNotice(payload.SenderEmail, "Re: "+payload.Subject, payload.ReplyPreview)
	return nil
}

func (n *NotificationService) emitLogged(ctx context.Context, audience domain.Audience, notifType domain.NotificationType, title, message string, redirect *string) {
	if _, err := n.Emit(ctx, audience, notifType, title, message, redirect); err != nil {
		n.logger.Warn("notification emission failed",
			zap.String("title", title), zap.Error(err))
	}
}

func (n *NotificationService) sendApplicantEmail(ctx context.Context, applicantID, subject, body string) {
	if n.mailer == nil || n.users == nil {
		return
	}
	user, err := n.users.GetByID(ctx, applicantID)
	if err != nil {
		n.logger.Warn("could not load applicant for external notice",
			zap.String("user_id", applicantID), zap.Error(err))
		return
	}
	n.sendExternalNotice(user.Email, subject, body)
}

func (n *NotificationService) sendExternalNotice(to, subject, body string) {
	if n.mailer == nil || to == "" {
		return
	}
	if err := n.mailer.SendExternalNotice(to, subject, body); err != nil {
		n.logger.Warn("external notice failed", zap.String("to", to), zap.Error(err))
	}
}

func applicationRedirect(applicationID string) string {
	return "/applications/" + applicationID
}
