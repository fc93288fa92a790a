package syncloop

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/repository"
	"github.com/spec-kit/estate-service/internal/service"
)

// stubApplicationStore serves a fixed set and records the filter it was asked
// for; write methods are never reached by the fetcher.
type stubApplicationStore struct {
	apps       []domain.Application
	lastFilter repository.ApplicationFilter
}

func (s *stubApplicationStore) Create(ctx context.Context, app *domain.Application) error {
	return nil
}

func (s *stubApplicationStore) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubApplicationStore) ListWithFilter(ctx context.Context, filter repository.ApplicationFilter) ([]domain.Application, error) {
	s.lastFilter = filter
	return append([]domain.Application(nil), s.apps...), nil
}

func (s *stubApplicationStore) UpdateFieldsIfPending(ctx context.Context, app *domain.Application) error {
	return repository.ErrStaleApplication
}

func (s *stubApplicationStore) DecideIfPending(ctx context.Context, id string, status domain.ApplicationStatus, reason *string, decidedAt time.Time) (*domain.Application, error) {
	return nil, repository.ErrStaleApplication
}

type stubNotificationStore struct {
	items        []domain.Notification
	lastAudience domain.Audience
}

func (s *stubNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	return nil
}

func (s *stubNotificationStore) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubNotificationStore) ListByAudience(ctx context.Context, audience domain.Audience, limit, offset int) ([]domain.Notification, error) {
	s.lastAudience = audience
	return append([]domain.Notification(nil), s.items...), nil
}

func (s *stubNotificationStore) MarkRead(ctx context.Context, id string) error { return nil }

func (s *stubNotificationStore) MarkAllRead(ctx context.Context, audience domain.Audience) error {
	return nil
}

func (s *stubNotificationStore) UnreadCount(ctx context.Context, audience domain.Audience) (int, error) {
	return 0, nil
}

func (s *stubNotificationStore) Delete(ctx context.Context, id string) error { return nil }

func TestServiceFetcherFeedsTheLoop(t *testing.T) {
	appStore := &stubApplicationStore{apps: []domain.Application{
		{ID: "app-1", Status: domain.ApplicationStatusPending},
	}}
	notifStore := &stubNotificationStore{items: []domain.Notification{{ID: "n-1"}}}

	applications := service.NewApplicationService(service.ApplicationDependencies{
		ApplicationRepo: appStore,
	})
	notifications := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notifStore,
	})

	fetcher := NewServiceFetcher(applications, notifications,
		domain.RoleAudience(domain.RoleAdmin),
		service.ApplicationListFilter{Statuses: []domain.ApplicationStatus{domain.ApplicationStatusPending}})

	loop := NewLoop(Options{Fetcher: fetcher})
	loop.RefreshNow(context.Background())

	app, ok := loop.Application("app-1")
	require.True(t, ok)
	assert.Equal(t, domain.ApplicationStatusPending, app.Status)
	assert.Len(t, loop.Notifications(), 1)

	// the configured scope must reach the stores
	require.Len(t, appStore.lastFilter.Statuses, 1)
	assert.Equal(t, domain.ApplicationStatusPending, appStore.lastFilter.Statuses[0])
	require.NotNil(t, notifStore.lastAudience.Role)
	assert.Equal(t, domain.RoleAdmin, *notifStore.lastAudience.Role)
}
