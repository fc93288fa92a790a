package syncloop

import (
	"context"

	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/service"
)

// ServiceFetcher adapts the application and notification services for
// in-process dashboard sessions (the admin review screen runs in the same
// binary as the API).
type ServiceFetcher struct {
	applications  *service.ApplicationService
	notifications *service.NotificationService
	audience      domain.Audience
	filter        service.ApplicationListFilter
}

// NewServiceFetcher constructs a fetcher scoped to one audience.
func NewServiceFetcher(applications *service.ApplicationService, notifications *service.NotificationService, audience domain.Audience, filter service.ApplicationListFilter) *ServiceFetcher {
	return &ServiceFetcher{
		applications:  applications,
		notifications: notifications,
		audience:      audience,
		filter:        filter,
	}
}

// FetchApplications implements Fetcher.
func (f *ServiceFetcher) FetchApplications(ctx context.Context) ([]domain.Application, error) {
	return f.applications.List(ctx, f.filter)
}

// FetchNotifications implements Fetcher.
func (f *ServiceFetcher) FetchNotifications(ctx context.Context) ([]domain.Notification, error) {
	return f.notifications.List(ctx, f.audience, 0, 0)
}
