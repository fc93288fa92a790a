package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/estate-service/internal/domain"
)

// ErrDuplicateApplication signals that a live application already exists for
// the same (user, listing) pair. Raised by the partial unique index so the
// check and the insert are a single atomic unit.
var ErrDuplicateApplication = errors.New("duplicate live application")

// ErrStaleApplication signals that a conditional write matched no pending row:
// the application was decided (or edited away) concurrently.
var ErrStaleApplication = errors.New("application no longer pending")

// ApplicationFilter captures listing parameters.
type ApplicationFilter struct {
	UserID    *string
	ListingID *string
	Statuses  []domain.ApplicationStatus
	Limit     int
	Offset    int
}

// ApplicationRepository encapsulates application persistence.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	ListWithFilter(ctx context.Context, filter ApplicationFilter) ([]domain.Application, error)
	// UpdateFieldsIfPending overwrites the mutable fields while the row is
	// still pending. Returns ErrStaleApplication when the status changed
	// concurrently.
	UpdateFieldsIfPending(ctx context.Context, app *domain.Application) error
	// DecideIfPending transitions a pending application to a terminal status.
	// The WHERE status='PENDING' guard makes concurrent decisions produce
	// exactly one winner; losers get ErrStaleApplication.
	DecideIfPending(ctx context.Context, id string, status domain.ApplicationStatus, reason *string, decidedAt time.Time) (*domain.Application, error)
}

type applicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository instantiates repository.
func NewApplicationRepository(pool *pgxpool.Pool) ApplicationRepository {
	return &applicationRepository{pool: pool}
}

const applicationColumns = `id, user_id, listing_id, status, desired_date, monthly_income,
               employment, reference_contacts, notes, submitted_at, decided_at, decision_reason,
               created_at, updated_at`

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	const query = `
        INSERT INTO applications (user_id, listing_id, status, desired_date, monthly_income, employment, reference_contacts, notes, submitted_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		app.UserID,
		app.ListingID,
		app.Status,
		app.Fields.DesiredDate,
		app.Fields.MonthlyIncome,
		app.Fields.Employment,
		app.Fields.References,
		app.Fields.Notes,
		app.SubmittedAt,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateApplication
		}
		return err
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id=$1`, applicationColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *applicationRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Application, error) {
	var app domain.Application
	if err := scanApplication(r.pool.QueryRow(ctx, query, args...), &app); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) ListWithFilter(ctx context.Context, filter ApplicationFilter) ([]domain.Application, error) {
	base := fmt.Sprintf(`SELECT %s FROM applications`, applicationColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.ListingID != nil {
		args = append(args, *filter.ListingID)
		clauses = append(clauses, fmt.Sprintf("listing_id=$%d", len(args)))
	}
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

	query := fmt.Sprintf(`%s WHERE %s ORDER BY submitted_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanApplications(rows)
}

func (r *applicationRepository) UpdateFieldsIfPending(ctx context.Context, app *domain.Application) error {
	const query = `
        UPDATE applications SET desired_date=$1, monthly_income=$2, employment=$3,
            reference_contacts=$4, notes=$5, updated_at=NOW()
        WHERE id=$6 AND status='PENDING'`
	cmd, err := r.pool.Exec(ctx, query,
		app.Fields.DesiredDate,
		app.Fields.MonthlyIncome,
		app.Fields.Employment,
		app.Fields.References,
		app.Fields.Notes,
		app.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleApplication
	}
	return nil
}

func (r *applicationRepository) DecideIfPending(ctx context.Context, id string, status domain.ApplicationStatus, reason *string, decidedAt time.Time) (*domain.Application, error) {
	query := fmt.Sprintf(`
        UPDATE applications SET status=$1, decision_reason=$2, decided_at=$3, updated_at=NOW()
        WHERE id=$4 AND status='PENDING'
        RETURNING %s`, applicationColumns)
	var app domain.Application
	err := scanApplication(r.pool.QueryRow(ctx, query, status, reason, decidedAt, id), &app)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleApplication
		}
		return nil, err
	}
	return &app, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner, app *domain.Application) error {
	return row.Scan(
		&app.ID,
		&app.UserID,
		&app.ListingID,
		&app.Status,
		&app.Fields.DesiredDate,
		&app.Fields.MonthlyIncome,
		&app.Fields.Employment,
		&app.Fields.References,
		&app.Fields.Notes,
		&app.SubmittedAt,
		&app.DecidedAt,
		&app.DecisionReason,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
}

func scanApplications(rows pgx.Rows) ([]domain.Application, error) {
	var result []domain.Application
	for rows.Next() {
		var app domain.Application
		if err := scanApplication(rows, &app); err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	return result, rows.Err()
}
