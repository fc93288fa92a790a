package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/events"
	"github.com/spec-kit/estate-service/internal/repository"
	apperrors "github.com/spec-kit/estate-service/pkg/util"
)

// ReviewService is the review action processor: the only entry point for
// approving or rejecting applications. It authorizes the actor, delegates the
// transition to the application state machine and publishes the decision
// event exactly once after the transition has been committed.
type ReviewService struct {
	applications *ApplicationService
	listings     repository.ListingRepository
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// NewReviewService constructs the service.
func NewReviewService(applications *ApplicationService, listings repository.ListingRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		applications: applications,
		listings:     listings,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// Approve transitions a pending application to APPROVED.
func (s *ReviewService) Approve(ctx context.Context, actor *domain.User, applicationID string) (*domain.Application, error) {
	return s.processDecision(ctx, actor, applicationID, domain.ApplicationStatusApproved, "")
}

// Reject transitions a pending application to REJECTED. Reason is mandatory.
func (s *ReviewService) Reject(ctx context.Context, actor *domain.User, applicationID, reason string) (*domain.Application, error) {
	return s.processDecision(ctx, actor, applicationID, domain.ApplicationStatusRejected, reason)
}

func (s *ReviewService) processDecision(ctx context.Context, actor *domain.User, applicationID string, outcome domain.ApplicationStatus, reason string) (*domain.Application, error) {
	if actor == nil || !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("review actions require an admin role")
	}

	app, err := s.applications.decide(ctx, applicationID, outcome, reason)
	if err != nil {
		return nil, err
	}

	// The transition is durably committed at this point. Fan-out below is
	// best-effort: a lost notification is preferable to a stuck or doubly
	// decided application, and re-deciding is forbidden anyway.
	s.publishDecision(ctx, actor, app)

	return app, nil
}

func (s *ReviewService) publishDecision(ctx context.Context, actor *domain.User, app *domain.Application) {
	if s.dispatcher == nil {
		return
	}

	listingTitle := ""
	if listing, err := s.listings.GetByID(ctx, app.ListingID); err == nil {
		listingTitle = listing.Title
	} else {
		s.logger.Warn("could not load listing for decision context",
			zap.String("listing_id", app.ListingID), zap.Error(err))
	}

	reason := ""
	if app.DecisionReason != nil {
		reason = *app.DecisionReason
	}

	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventApplicationDecided,
		SubjectID: app.ID,
		Actor:     staffActor(actor),
		Timestamp: time.Now(),
		Payload: events.ApplicationDecidedPayload{
			ListingID:    app.ListingID,
			ListingTitle: listingTitle,
			ApplicantID:  app.UserID,
			NewStatus:    app.Status,
			Reason:       reason,
			DecidedByID:  actor.ID,
		},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("decision fan-out failed", zap.String("application_id", app.ID), zap.Error(err))
	}
}
