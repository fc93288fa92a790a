package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/events"
	"github.com/spec-kit/estate-service/internal/repository"
	apperrors "github.com/spec-kit/estate-service/pkg/util"
)

type fakeContactRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]domain.ContactMessage
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{items: make(map[string]domain.ContactMessage)}
}

func (r *fakeContactRepo) Create(ctx context.Context, msg *domain.ContactMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg.ID = fmt.Sprintf("msg-%d", r.seq)
	msg.Status = domain.ContactStatusUnread
	msg.CreatedAt = time.Now()
	r.items[msg.ID] = *msg
	return nil
}

func (r *fakeContactRepo) GetByID(ctx context.Context, id string) (*domain.ContactMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &msg, nil
}

func (r *fakeContactRepo) ListWithFilter(ctx context.Context, filter repository.ContactMessageFilter) ([]domain.ContactMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ContactMessage
	for _, msg := range r.items {
		if len(filter.Statuses) > 0 && !containsContactStatus(filter.Statuses, msg.Status) {
			continue
		}
		result = append(result, msg)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeContactRepo) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.items[id]
	if !ok {
		return nil
	}
	if msg.Status == domain.ContactStatusUnread {
		msg.Status = domain.ContactStatusRead
		r.items[id] = msg
	}
	return nil
}

func (r *fakeContactRepo) Reply(ctx context.Context, id, reply string, repliedAt time.Time) (*domain.ContactMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.items[id]
	if !ok || msg.Status == domain.ContactStatusReplied {
		return nil, repository.ErrAlreadyReplied
	}
	msg.Status = domain.ContactStatusReplied
	msg.AdminReply = &reply
	msg.RepliedAt = &repliedAt
	r.items[id] = msg
	return &msg, nil
}

func containsContactStatus(statuses []domain.ContactMessageStatus, status domain.ContactMessageStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func validContactInput() ContactSubmitInput {
	return ContactSubmitInput{
		SenderName:  "Ada",
		SenderEmail: "ada@example.com",
		Subject:     "Plot 12 availability",
		Body:        "Is plot 12 still for sale?",
	}
}

func TestContactSubmitStoresUnread(t *testing.T) {
	svc := NewContactService(newFakeContactRepo(), nil)

	msg, err := svc.Submit(context.Background(), validContactInput())
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, domain.ContactStatusUnread, msg.Status)
	assert.Nil(t, msg.AdminReply)
	assert.Nil(t, msg.RepliedAt)
}

func TestContactSubmitValidation(t *testing.T) {
	svc := NewContactService(newFakeContactRepo(), nil)

	input := validContactInput()
	input.Body = "   "

	_, err := svc.Submit(context.Background(), input)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestContactGetMarksRead(t *testing.T) {
	svc := NewContactService(newFakeContactRepo(), nil)
	ctx := context.Background()

	msg, err := svc.Submit(ctx, validContactInput())
	require.NoError(t, err)

	got, err := svc.Get(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContactStatusRead, got.Status)

	again, err := svc.Get(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContactStatusRead, again.Status)
}

func TestContactReplyOnce(t *testing.T) {
	svc := NewContactService(newFakeContactRepo(), nil)
	ctx := context.Background()
	admin := &domain.User{ID: "admin-1", Role: domain.RoleAdmin}

	msg, err := svc.Submit(ctx, validContactInput())
	require.NoError(t, err)

	replied, err := svc.Reply(ctx, admin, msg.ID, "Yes, still available.")
	require.NoError(t, err)
	assert.Equal(t, domain.ContactStatusReplied, replied.Status)
	require.NotNil(t, replied.AdminReply)
	assert.Equal(t, "Yes, still available.", *replied.AdminReply)
	require.NotNil(t, replied.RepliedAt)

	_, err = svc.Reply(ctx, admin, msg.ID, "second attempt")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidState))
}

func TestContactReplyForbiddenForBuyers(t *testing.T) {
	svc := NewContactService(newFakeContactRepo(), nil)
	ctx := context.Background()

	msg, err := svc.Submit(ctx, validContactInput())
	require.NoError(t, err)

	buyer := &domain.User{ID: "buyer-1", Role: domain.RoleBuyer}
	_, err = svc.Reply(ctx, buyer, msg.ID, "hi")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestContactReplyRequiresBody(t *testing.T) {
	svc := NewContactService(newFakeContactRepo(), nil)
	ctx := context.Background()
	admin := &domain.User{ID: "admin-1", Role: domain.RoleAdmin}

	msg, err := svc.Submit(ctx, validContactInput())
	require.NoError(t, err)

	_, err = svc.Reply(ctx, admin, msg.ID, "  ")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestContactFanOut(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	notifRepo := newFakeNotificationRepo()
	mailer := &fakeMailer{}
	notifications := NewNotificationService(NotificationDependencies{
		NotificationRepo: notifRepo,
		Dispatcher:       dispatcher,
		Mailer:           mailer,
		Logger:           zap.NewNop(),
	})
	notifications.RegisterHandlers()

	svc := NewContactService(newFakeContactRepo(), dispatcher)
	ctx := context.Background()
	admin := &domain.User{ID: "admin-1", Role: domain.RoleAdmin}

	msg, err := svc.Submit(ctx, validContactInput())
	require.NoError(t, err)

	adminFeed, err := notifications.List(ctx, domain.RoleAudience(domain.RoleAdmin), 0, 0)
	require.NoError(t, err)
	require.Len(t, adminFeed, 1)
	assert.Contains(t, adminFeed[0].Message, "Ada")

	_, err = svc.Reply(ctx, admin, msg.ID, "Yes.")
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0], "ada@example.com")
	assert.Contains(t, mailer.sent[0], "Re: Plot 12 availability")
}
