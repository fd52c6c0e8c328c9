package venues

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("venues: not found")

// Repository defines persistence operations for venues.
type Repository interface {
	Create(ctx context.Context, v Venue) (int64, error)
	Get(ctx context.Context, id int64) (*Venue, error)
	List(ctx context.Context, req ListVenuesRequest) ([]Venue, int, error)
	Update(ctx context.Context, id int64, req UpdateVenueRequest) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const venueColumns = `id, tenant_id, name, address, city, country, timezone, is_active, created_at, updated_at`

func (r *repository) Create(ctx context.Context, v Venue) (int64, error) {
	const query = `
		INSERT INTO venues (tenant_id, name, address, city, country, timezone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		v.TenantID, v.Name,
		pgtype.Text{String: deref(v.Address), Valid: v.Address != nil},
		pgtype.Text{String: deref(v.City), Valid: v.City != nil},
		v.Country, v.Timezone, v.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("venues: create: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Venue, error) {
	query := fmt.Sprintf(`SELECT %s FROM venues WHERE id = $1`, venueColumns)
	v, err := scanVenue(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *repository) List(ctx context.Context, req ListVenuesRequest) ([]Venue, int, error) {
	conditions := []string{"tenant_id = $1"}
	args := []any{req.TenantID}
	argPos := 2

	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR city ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM venues %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM venues %s ORDER BY name LIMIT $%d OFFSET $%d`,
		venueColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *v)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, id int64, req UpdateVenueRequest) error {
	query := "UPDATE venues SET updated_at = NOW()"
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
	if req.Address != nil {
		set("address", *req.Address)
	}
	if req.City != nil {
		set("city", *req.City)
	}
	if req.Country != nil {
		set("country", *req.Country)
	}
	if req.Timezone != nil {
		set("timezone", *req.Timezone)
	}
	if req.IsActive != nil {
		set("is_active", *req.IsActive)
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("venues: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM venues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("venues: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVenue(row pgx.Row) (*Venue, error) {
	var v Venue
	var address, city pgtype.Text
	err := row.Scan(&v.ID, &v.TenantID, &v.Name, &address, &city, &v.Country, &v.Timezone, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if address.Valid {
		v.Address = &address.String
	}
	if city.Valid {
		v.City = &city.String
	}
	return &v, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
