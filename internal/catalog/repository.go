package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("catalog: not found")

// Repository defines persistence operations for catalog services.
type Repository interface {
	Create(ctx context.Context, s Service) (int64, error)
	Get(ctx context.Context, id int64) (*Service, error)
	ListByVenue(ctx context.Context, tenantID, venueID int64) ([]Service, error)
	Update(ctx context.Context, id int64, req UpdateServiceRequest) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const serviceColumns = `id, tenant_id, venue_id, name, description, duration_minutes, price, currency, is_active, created_at, updated_at`

func (r *repository) Create(ctx context.Context, s Service) (int64, error) {
	const query = `
		INSERT INTO services (tenant_id, venue_id, name, description, duration_minutes, price, currency, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		s.TenantID, s.VenueID, s.Name,
		pgtype.Text{String: deref(s.Description), Valid: s.Description != nil},
		s.DurationMinutes, s.Price, s.Currency, s.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("catalog: create: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Service, error) {
	query := fmt.Sprintf(`SELECT %s FROM services WHERE id = $1`, serviceColumns)
	s, err := scanService(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *repository) ListByVenue(ctx context.Context, tenantID, venueID int64) ([]Service, error) {
	query := fmt.Sprintf(`SELECT %s FROM services WHERE tenant_id = $1 AND venue_id = $2 ORDER BY name`, serviceColumns)
	rows, err := r.pool.Query(ctx, query, tenantID, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *repository) Update(ctx context.Context, id int64, req UpdateServiceRequest) error {
	query := "UPDATE services SET updated_at = NOW()"
	var args []any
	argPos := 1

	set := func(column string, value any) {
		query += fmt.Sprintf(", %s = $%d", column, argPos)
		args = append(args, value)
		argPos++
	}
	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.DurationMinutes != nil {
		set("duration_minutes", *req.DurationMinutes)
	}
	if req.Price != nil {
		set("price", *req.Price)
	}
	if req.IsActive != nil {
		set("is_active", *req.IsActive)
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("catalog: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	var description pgtype.Text
	err := row.Scan(&s.ID, &s.TenantID, &s.VenueID, &s.Name, &description,
		&s.DurationMinutes, &s.Price, &s.Currency, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		s.Description = &description.String
	}
	return &s, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
