package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/estate-service/internal/domain"
)

// ErrAlreadyReplied signals that a contact message already carries a reply.
var ErrAlreadyReplied = errors.New("contact message already replied")

// ContactMessageFilter captures inbox listing parameters.
type ContactMessageFilter struct {
	Statuses []domain.ContactMessageStatus
	Limit    int
	Offset   int
}

// ContactMessageRepository encapsulates inbound enquiry persistence.
type ContactMessageRepository interface {
	Create(ctx context.Context, msg *domain.ContactMessage) error
	GetByID(ctx context.Context, id string) (*domain.ContactMessage, error)
	ListWithFilter(ctx context.Context, filter ContactMessageFilter) ([]domain.ContactMessage, error)
	// MarkRead moves UNREAD to READ; a no-op for READ and REPLIED rows.
	MarkRead(ctx context.Context, id string) error
	// Reply stores the admin reply once. The status guard keeps the
	// replied-iff-reply-set invariant under concurrent staff sessions.
	Reply(ctx context.Context, id, reply string, repliedAt time.Time) (*domain.ContactMessage, error)
}

type contactMessageRepository struct {
	pool *pgxpool.Pool
}

// NewContactMessageRepository instantiates repository.
func NewContactMessageRepository(pool *pgxpool.Pool) ContactMessageRepository {
	return &contactMessageRepository{pool: pool}
}

const contactColumns = `id, sender_name, sender_email, sender_phone, subject, body, status, admin_reply, replied_at, created_at`

func (r *contactMessageRepository) Create(ctx context.Context, msg *domain.ContactMessage) error {
	const query = `
        INSERT INTO contact_messages (sender_name, sender_email, sender_phone, subject, body, status)
        VALUES ($1,$2,$3,$4,$5,'UNREAD')
        RETURNING id, status, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.SenderName,
		msg.SenderEmail,
		msg.SenderPhone,
		msg.Subject,
		msg.Body,
	).Scan(&msg.ID, &msg.Status, &msg.CreatedAt)
}

func (r *contactMessageRepository) GetByID(ctx context.Context, id string) (*domain.ContactMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM contact_messages WHERE id=$1`, contactColumns)
	var msg domain.ContactMessage
	if err := scanContactMessage(r.pool.QueryRow(ctx, query, id), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *contactMessageRepository) ListWithFilter(ctx context.Context, filter ContactMessageFilter) ([]domain.ContactMessage, error) {
	base := fmt.Sprintf(`SELECT %s FROM contact_messages`, contactColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ContactMessage
	for rows.Next() {
		var msg domain.ContactMessage
		if err := scanContactMessage(rows, &msg); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *contactMessageRepository) MarkRead(ctx context.Context, id string) error {
	const query = `UPDATE contact_messages SET status='READ' WHERE id=$1 AND status='UNREAD'`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *contactMessageRepository) Reply(ctx context.Context, id, reply string, repliedAt time.Time) (*domain.ContactMessage, error) {
	query := fmt.Sprintf(`
        UPDATE contact_messages SET status='REPLIED', admin_reply=$1, replied_at=$2
        WHERE id=$3 AND status IN ('UNREAD','READ')
        RETURNING %s`, contactColumns)
	var msg domain.ContactMessage
	if err := scanContactMessage(r.pool.QueryRow(ctx, query, reply, repliedAt, id), &msg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyReplied
		}
		return nil, err
	}
	return &msg, nil
}

func scanContactMessage(row rowScanner, msg *domain.ContactMessage) error {
	return row.Scan(
		&msg.ID,
		&msg.SenderName,
		&msg.SenderEmail,
		&msg.SenderPhone,
		&msg.Subject,
		&msg.Body,
		&msg.Status,
		&msg.AdminReply,
		&msg.RepliedAt,
		&msg.CreatedAt,
	)
}
