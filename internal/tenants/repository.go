package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("tenants: not found")
	ErrSlugTaken = errors.New("tenants: slug already taken")
)

// Repository defines persistence operations for tenants.
type Repository interface {
	Create(ctx context.Context, t Tenant) (int64, error)
	Get(ctx context.Context, id int64) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Update(ctx context.Context, id int64, req UpdateTenantRequest) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const tenantColumns = `id, name, slug, plan, is_active, created_at, updated_at`

func (r *repository) Create(ctx context.Context, t Tenant) (int64, error) {
	const query = `
		INSERT INTO tenants (name, slug, plan, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query, t.Name, t.Slug, t.Plan, t.IsActive).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrSlugTaken
		}
		return 0, fmt.Errorf("tenants: create: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Tenant, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE id = $1`, tenantColumns)
	t, err := scanTenant(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *repository) List(ctx context.Context) ([]Tenant, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenants ORDER BY name`, tenantColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *repository) Update(ctx context.Context, id int64, req UpdateTenantRequest) error {
	query := "UPDATE tenants SET updated_at = NOW()"
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
	if req.Plan != nil {
		set("plan", *req.Plan)
	}
	if req.IsActive != nil {
		set("is_active", *req.IsActive)
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("tenants: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tenants: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Plan, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
