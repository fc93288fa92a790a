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

// ApplicationService owns the application state machine: submission, pending
// edits and the terminal decision transition. All application writes go
// through it; decisions are reachable only via the ReviewService.
type ApplicationService struct {
	applications repository.ApplicationRepository
	listings     repository.ListingRepository
	dispatcher   events.Dispatcher
	now          func() time.Time
}

// ApplicationDependencies bundles collaborators for the service.
type ApplicationDependencies struct {
	ApplicationRepo repository.ApplicationRepository
	ListingRepo     repository.ListingRepository
	Dispatcher      events.Dispatcher
	Now             func() time.Time
}

// SubmitInput describes a buyer's submission payload.
type SubmitInput struct {
	ListingID     string
	DesiredDate   time.Time
	MonthlyIncome float64
	Employment    string
	References    string
	Notes         string
}

// EditInput describes the mutable fields of a pending application.
type EditInput struct {
	DesiredDate   time.Time
	MonthlyIncome float64
	Employment    string
	References    string
	Notes         string
}

// ApplicationListFilter describes listing filters.
type ApplicationListFilter struct {
	OwnerID  *string
	Statuses []domain.ApplicationStatus
	Limit    int
	Offset   int
}

// NewApplicationService constructs the service.
func NewApplicationService(deps ApplicationDependencies) *ApplicationService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &ApplicationService{
		applications: deps.ApplicationRepo,
		listings:     deps.ListingRepo,
		dispatcher:   deps.Dispatcher,
		now:          now,
	}
}

// Submit creates a pending application for a buyer. The duplicate guard is
// enforced atomically by the insert itself: a partial unique index rejects a
// second live application for the same (user, listing) pair, so two
// near-simultaneous submissions cannot both succeed.
func (s *ApplicationService) Submit(ctx context.Context, userID string, input SubmitInput) (*domain.Application, error) {
	if err := validateFields(input.DesiredDate, input.MonthlyIncome, s.now()); err != nil {
		return nil, err
	}

	listing, err := s.listings.GetByID(ctx, input.ListingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("listing", map[string]any{"listing_id": input.ListingID})
		}
		return nil, apperrors.MapError(err)
	}

	app := &domain.Application{
		UserID:    userID,
		ListingID: listing.ID,
		Status:    domain.ApplicationStatusPending,
		Fields: domain.ApplicationFields{
			DesiredDate:   input.DesiredDate,
			MonthlyIncome: input.MonthlyIncome,
			Employment:    strings.TrimSpace(input.Employment),
			References:    strings.TrimSpace(input.References),
			Notes:         strings.TrimSpace(input.Notes),
		},
		SubmittedAt: s.now(),
	}

	if err := s.applications.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicateApplication) {
			return nil, apperrors.NewDuplicateApplication(map[string]any{"listing_id": listing.ID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventApplicationSubmitted,
		SubjectID: app.ID,
		Actor:     userActor(userID),
		Payload: events.ApplicationSubmittedPayload{
			ListingID:    listing.ID,
			ListingTitle: listing.Title,
			ApplicantID:  userID,
		},
	})
	return app, nil
}

// Edit overwrites the mutable fields of the caller's pending application.
// Permitted only while the application is pending; the status itself never
// changes here.
func (s *ApplicationService) Edit(ctx context.Context, userID, applicationID string, input EditInput) (*domain.Application, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.UserID != userID {
		return nil, apperrors.NewForbidden("not your application")
	}
	if app.Status != domain.ApplicationStatusPending {
		return nil, apperrors.NewInvalidState("application already decided", map[string]any{"status": app.Status})
	}
	if err := validateFields(input.DesiredDate, input.MonthlyIncome, s.now()); err != nil {
		return nil, err
	}

	app.Fields = domain.ApplicationFields{
		DesiredDate:   input.DesiredDate,
		MonthlyIncome: input.MonthlyIncome,
		Employment:    strings.TrimSpace(input.Employment),
		References:    strings.TrimSpace(input.References),
		Notes:         strings.TrimSpace(input.Notes),
	}

	if err := s.applications.UpdateFieldsIfPending(ctx, app); err != nil {
		if errors.Is(err, repository.ErrStaleApplication) {
			// a decision won the race between our read and this write
			return nil, apperrors.NewInvalidState("application already decided", map[string]any{"application_id": app.ID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventApplicationEdited,
		SubjectID: app.ID,
		Actor:     userActor(userID),
		Payload: events.ApplicationEditedPayload{
			ListingID:   app.ListingID,
			ApplicantID: app.UserID,
		},
	})
	return app, nil
}

// List returns applications newest-first.
func (s *ApplicationService) List(ctx context.Context, filter ApplicationListFilter) ([]domain.Application, error) {
	apps, err := s.applications.ListWithFilter(ctx, repository.ApplicationFilter{
		UserID:   filter.OwnerID,
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return apps, nil
}

// GetForUser fetches an application ensuring ownership.
func (s *ApplicationService) GetForUser(ctx context.Context, userID, applicationID string) (*domain.Application, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.UserID != userID {
		return nil, apperrors.NewForbidden("not your application")
	}
	return app, nil
}

// Get fetches an application without an ownership check. Staff only.
func (s *ApplicationService) Get(ctx context.Context, applicationID string) (*domain.Application, error) {
	return s.getApplication(ctx, applicationID)
}

// decide performs the single pending→terminal transition. Only the
// ReviewService calls it. The status-guarded update serializes concurrent
// decisions per application: exactly one caller wins, the loser sees an
// invalid-state error. Re-deciding a terminal application is always rejected
// so decision side effects cannot be double-counted.
func (s *ApplicationService) decide(ctx context.Context, applicationID string, outcome domain.ApplicationStatus, reason string) (*domain.Application, error) {
	switch outcome {
	case domain.ApplicationStatusApproved, domain.ApplicationStatusRejected:
	default:
		return nil, apperrors.NewValidationError("invalid decision outcome", map[string]any{"outcome": outcome})
	}

	var reasonPtr *string
	if outcome == domain.ApplicationStatusRejected {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return nil, apperrors.NewValidationError("rejection requires a reason", nil)
		}
		reasonPtr = &reason
	}

	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status.IsTerminal() {
		return nil, apperrors.NewInvalidState("application already decided", map[string]any{"status": app.Status})
	}

	decided, err := s.applications.DecideIfPending(ctx, applicationID, outcome, reasonPtr, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrStaleApplication) {
			return nil, apperrors.NewInvalidState("application already decided", map[string]any{"application_id": applicationID})
		}
		return nil, apperrors.MapError(err)
	}
	return decided, nil
}

func (s *ApplicationService) getApplication(ctx context.Context, id string) (*domain.Application, error) {
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("application", map[string]any{"application_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return app, nil
}

// validateFields checks the invariants shared by submit and edit: the desired
// purchase date is today or later and the income figure is non-negative.
func validateFields(desiredDate time.Time, income float64, now time.Time) error {
	if desiredDate.IsZero() {
		return apperrors.NewValidationError("desired date required", nil)
	}
	today := now.UTC().Truncate(24 * time.Hour)
	if desiredDate.UTC().Truncate(24 * time.Hour).Before(today) {
		return apperrors.NewValidationError("desired date must be today or later", nil)
	}
	if income < 0 {
		return apperrors.NewValidationError("income must be non-negative", nil)
	}
	return nil
}

func (s *ApplicationService) publishEvent(ctx context.Context, event events.Event) {
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

func userActor(userID string) events.Actor {
	return events.Actor{UserID: &userID}
}

func staffActor(user *domain.User) events.Actor {
	id := user.ID
	role := user.Role
	return events.Actor{UserID: &id, Role: &role}
}
