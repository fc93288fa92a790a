package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/events"
	"github.com/spec-kit/estate-service/internal/repository"
	apperrors "github.com/spec-kit/estate-service/pkg/util"
)

// ContactService handles inbound enquiries and staff replies.
type ContactService struct {
	messages   repository.ContactMessageRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// ContactSubmitInput describes a public enquiry payload.
type ContactSubmitInput struct {
	SenderName  string
	SenderEmail string
	SenderPhone string
	Subject     string
	Body        string
}

// NewContactService constructs the service.
func NewContactService(messages repository.ContactMessageRepository, dispatcher events.Dispatcher) *ContactService {
	return &ContactService{messages: messages, dispatcher: dispatcher, now: time.Now}
}

// Submit stores an inbound enquiry and notifies the admin audience.
func (s *ContactService) Submit(ctx context.Context, input ContactSubmitInput) (*domain.ContactMessage, error) {
	input.SenderName = strings.TrimSpace(input.SenderName)
	input.SenderEmail = strings.TrimSpace(input.SenderEmail)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Body = strings.TrimSpace(input.Body)
	if input.SenderName == "" || input.SenderEmail == "" || input.Subject == "" || input.Body == "" {
		return nil, apperrors.NewValidationError("name, email, subject and body are required", nil)
	}

	msg := &domain.ContactMessage{
		SenderName:  input.SenderName,
		SenderEmail: input.SenderEmail,
		SenderPhone: strings.TrimSpace(input.SenderPhone),
		Subject:     input.Subject,
		Body:        input.Body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventContactMessageCreated,
		SubjectID: msg.ID,
		Payload: events.ContactMessageCreatedPayload{
			SenderName:  msg.SenderName,
			SenderEmail: msg.SenderEmail,
			Subject:     msg.Subject,
		},
	})
	return msg, nil
}

// List returns enquiries for the staff inbox, newest-first.
func (s *ContactService) List(ctx context.Context, statuses []domain.ContactMessageStatus, limit, offset int) ([]domain.ContactMessage, error) {
	items, err := s.messages.ListWithFilter(ctx, repository.ContactMessageFilter{
		Statuses: statuses,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// Get fetches one enquiry and marks it read.
func (s *ContactService) Get(ctx context.Context, id string) (*domain.ContactMessage, error) {
	msg, err := s.getMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.Status == domain.ContactStatusUnread {
		if err := s.messages.MarkRead(ctx, id); err == nil {
			msg.Status = domain.ContactStatusRead
		}
	}
	return msg, nil
}

// Reply stores the admin reply exactly once and emails the sender
// best-effort. A second reply attempt is an invalid-state conflict.
func (s *ContactService) Reply(ctx context.Context, actor *domain.User, id, reply string) (*domain.ContactMessage, error) {
	if actor == nil || !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("replying requires an admin role")
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, apperrors.NewValidationError("reply body required", nil)
	}

	if _, err := s.getMessage(ctx, id); err != nil {
		return nil, err
	}

	msg, err := s.messages.Reply(ctx, id, reply, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyReplied) {
			return nil, apperrors.NewInvalidState("message already replied", map[string]any{"message_id": id})
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventContactMessageReplied,
		SubjectID: msg.ID,
		Actor:     staffActor(actor),
		Payload: events.ContactMessageRepliedPayload{
			SenderEmail:  msg.SenderEmail,
			Subject:      msg.Subject,
			ReplyPreview: reply,
			RepliedByID:  actor.ID,
		},
	})
	return msg, nil
}

func (s *ContactService) getMessage(ctx context.Context, id string) (*domain.ContactMessage, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("contact message", map[string]any{"message_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return msg, nil
}

func (s *ContactService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
