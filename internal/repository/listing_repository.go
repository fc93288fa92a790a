package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/estate-service/internal/domain"
)

// ListingFilter captures catalog browse parameters.
type ListingFilter struct {
	Statuses []domain.ListingStatus
	Location *string
	Limit    int
	Offset   int
}

// ListingRepository provides read access to catalog entries. The application
// subsystem never writes listing status; Create exists for seeding and for the
// catalog owner.
type ListingRepository interface {
	Create(ctx context.Context, listing *domain.Listing) error
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	ListWithFilter(ctx context.Context, filter ListingFilter) ([]domain.Listing, error)
}

type listingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository instantiates repository.
func NewListingRepository(pool *pgxpool.Pool) ListingRepository {
	return &listingRepository{pool: pool}
}

const listingColumns = `id, title, location, price, size_sqm, status, media_refs, created_at, updated_at`

func (r *listingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	const query = `
        INSERT INTO listings (title, location, price, size_sqm, status, media_refs)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		listing.Title,
		listing.Location,
		listing.Price,
		listing.SizeSqm,
		listing.Status,
		listing.MediaRefs,
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE id=$1`, listingColumns)
	var listing domain.Listing
	if err := scanListing(r.pool.QueryRow(ctx, query, id), &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) ListWithFilter(ctx context.Context, filter ListingFilter) ([]domain.Listing, error) {
	base := fmt.Sprintf(`SELECT %s FROM listings`, listingColumns)
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
	if filter.Location != nil && strings.TrimSpace(*filter.Location) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.Location))+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(location) LIKE $%d", len(args)))
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

	var result []domain.Listing
	for rows.Next() {
		var listing domain.Listing
		if err := scanListing(rows, &listing); err != nil {
			return nil, err
		}
		result = append(result, listing)
	}
	return result, rows.Err()
}

// scanListing reads one row into listing.
func scanListing(row rowScanner, listing *domain.Listing) error {
	return row.Scan(
		&listing.ID,
		&listing.Title,
		&listing.Location,
		&listing.Price,
		&listing.SizeSqm,
		&listing.Status,
		&listing.MediaRefs,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
}
