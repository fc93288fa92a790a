package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/estate-service/internal/domain"
)

// NotificationRepository encapsulates notification persistence. Rows are
// immutable after insert except for the is_read flag.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByAudience(ctx context.Context, audience domain.Audience, limit, offset int) ([]domain.Notification, error)
	// MarkRead flips is_read. Marking an already-read row is a no-op.
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, audience domain.Audience) error
	// UnreadCount is derived from the rows, never a stored counter.
	UnreadCount(ctx context.Context, audience domain.Audience) (int, error)
	Delete(ctx context.Context, id string) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `id, user_id, audience_role, type, title, message, redirect_to, is_read, created_at`

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_id, audience_role, type, title, message, redirect_to, is_read)
        VALUES ($1,$2,$3,$4,$5,$6,FALSE)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		n.Audience.UserID,
		n.Audience.Role,
		n.Type,
		n.Title,
		n.Message,
		n.Redirect,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id=$1`, notificationColumns)
	var n domain.Notification
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&n.ID,
		&n.Audience.UserID,
		&n.Audience.Role,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.Redirect,
		&n.IsRead,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) ListByAudience(ctx context.Context, audience domain.Audience, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	predicate, arg := audiencePredicate(audience)
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		notificationColumns, predicate, limit, offset)

	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	const query = `UPDATE notifications SET is_read=TRUE WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, audience domain.Audience) error {
	predicate, arg := audiencePredicate(audience)
	query := fmt.Sprintf(`UPDATE notifications SET is_read=TRUE WHERE %s AND is_read=FALSE`, predicate)
	_, err := r.pool.Exec(ctx, query, arg)
	return err
}

func (r *notificationRepository) UnreadCount(ctx context.Context, audience domain.Audience) (int, error) {
	predicate, arg := audiencePredicate(audience)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM notifications WHERE %s AND is_read=FALSE`, predicate)
	var count int
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM notifications WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func audiencePredicate(audience domain.Audience) (string, any) {
	if audience.UserID != nil {
		return "user_id=$1", *audience.UserID
	}
	if audience.Role != nil {
		return "audience_role=$1", *audience.Role
	}
	// match nothing rather than everything when the audience is empty
	return "FALSE AND $1::text IS NULL", nil
}

func scanNotifications(rows pgx.Rows) ([]domain.Notification, error) {
	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.Audience.UserID,
			&n.Audience.Role,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.Redirect,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}
