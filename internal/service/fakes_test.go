package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/repository"
)

// fakeApplicationRepo mirrors the Postgres repository's concurrency
// semantics: the duplicate guard and the pending-status guard are enforced
// under one lock, like the unique index and conditional update do in SQL.
type fakeApplicationRepo struct {
	mu   sync.Mutex
	seq  int
	apps map[string]domain.Application
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: make(map[string]domain.Application)}
}

func (r *fakeApplicationRepo) Create(ctx context.Context, app *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.UserID == app.UserID && existing.ListingID == app.ListingID &&
			existing.Status != domain.ApplicationStatusRejected {
			return repository.ErrDuplicateApplication
		}
	}
	r.seq++
	app.ID = fmt.Sprintf("app-%d", r.seq)
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	r.apps[app.ID] = *app
	return nil
}

func (r *fakeApplicationRepo) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &app, nil
}

func (r *fakeApplicationRepo) ListWithFilter(ctx context.Context, filter repository.ApplicationFilter) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Application
	for _, app := range r.apps {
		if filter.UserID != nil && app.UserID != *filter.UserID {
			continue
		}
		if filter.ListingID != nil && app.ListingID != *filter.ListingID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, app.Status) {
			continue
		}
		result = append(result, app)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmittedAt.After(result[j].SubmittedAt)
	})
	return result, nil
}

func (r *fakeApplicationRepo) UpdateFieldsIfPending(ctx context.Context, app *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.apps[app.ID]
	if !ok || stored.Status != domain.ApplicationStatusPending {
		return repository.ErrStaleApplication
	}
	stored.Fields = app.Fields
	stored.UpdatedAt = time.Now()
	r.apps[app.ID] = stored
	return nil
}

func (r *fakeApplicationRepo) DecideIfPending(ctx context.Context, id string, status domain.ApplicationStatus, reason *string, decidedAt time.Time) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.apps[id]
	if !ok || stored.Status != domain.ApplicationStatusPending {
		return nil, repository.ErrStaleApplication
	}
	stored.Status = status
	stored.DecisionReason = reason
	stored.DecidedAt = &decidedAt
	stored.UpdatedAt = time.Now()
	r.apps[id] = stored
	return &stored, nil
}

func containsStatus(statuses []domain.ApplicationStatus, status domain.ApplicationStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[string]domain.Listing
}

func newFakeListingRepo(listings ...domain.Listing) *fakeListingRepo {
	repo := &fakeListingRepo{listings: make(map[string]domain.Listing)}
	for _, l := range listings {
		repo.listings[l.ID] = l
	}
	return repo
}

func (r *fakeListingRepo) Create(ctx context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[listing.ID] = *listing
	return nil
}

func (r *fakeListingRepo) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.listings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &listing, nil
}

func (r *fakeListingRepo) ListWithFilter(ctx context.Context, filter repository.ListingFilter) ([]domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Listing
	for _, l := range r.listings {
		result = append(result, l)
	}
	return result, nil
}

type fakeNotificationRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: make(map[string]domain.Notification)}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	n.ID = fmt.Sprintf("notif-%d", r.seq)
	n.IsRead = false
	n.CreatedAt = time.Now()
	r.items[n.ID] = *n
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &n, nil
}

func (r *fakeNotificationRepo) ListByAudience(ctx context.Context, audience domain.Audience, limit, offset int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Notification
	for _, n := range r.items {
		if audienceMatches(n.Audience, audience) {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	n.IsRead = true
	r.items[id] = n
	return nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, audience domain.Audience) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.items {
		if audienceMatches(n.Audience, audience) {
			n.IsRead = true
			r.items[id] = n
		}
	}
	return nil
}

func (r *fakeNotificationRepo) UnreadCount(ctx context.Context, audience domain.Audience) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.items {
		if audienceMatches(n.Audience, audience) && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func audienceMatches(stored, query domain.Audience) bool {
	if query.UserID != nil {
		return stored.UserID != nil && *stored.UserID == *query.UserID
	}
	if query.Role != nil {
		return stored.Role != nil && *stored.Role == *query.Role
	}
	return false
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	count int
}

func (m *fakeMailer) SendExternalNotice(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	if m.fail {
		return fmt.Errorf("smtp unavailable")
	}
	m.sent = append(m.sent, to+": "+subject)
	return nil
}
