package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("reservations: not found")
)

// Repository defines persistence operations for reservations.
type Repository interface {
	Create(ctx context.Context, res Reservation) (int64, error)
	Get(ctx context.Context, id int64) (*Reservation, error)
	List(ctx context.Context, req ListReservationsRequest) ([]Reservation, int, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
	HasOverlap(ctx context.Context, serviceID int64, startsAt, endsAt time.Time) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectColumns = `id, reference, tenant_id, venue_id, service_id, user_id,
	starts_at, ends_at, party_size, status, notes, created_at, updated_at`

func (r *repository) Create(ctx context.Context, res Reservation) (int64, error) {
	const query = `
		INSERT INTO reservations
			(reference, tenant_id, venue_id, service_id, user_id, starts_at, ends_at, party_size, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		res.Reference, res.TenantID, res.VenueID, res.ServiceID, res.UserID,
		res.StartsAt, res.EndsAt, res.PartySize, res.Status,
		pgtype.Text{String: deref(res.Notes), Valid: res.Notes != nil},
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reservations: create: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE id = $1`, selectColumns)
	res, err := scanReservation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *repository) List(ctx context.Context, req ListReservationsRequest) ([]Reservation, int, error) {
	conditions := []string{"tenant_id = $1"}
	args := []any{req.TenantID}
	argPos := 2

	if req.VenueID != nil {
		conditions = append(conditions, fmt.Sprintf("venue_id = $%d", argPos))
		args = append(args, *req.VenueID)
		argPos++
	}
	if req.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, *req.UserID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.From != nil {
		conditions = append(conditions, fmt.Sprintf("starts_at >= $%d", argPos))
		args = append(args, *req.From)
		argPos++
	}
	if req.To != nil {
		conditions = append(conditions, fmt.Sprintf("starts_at < $%d", argPos))
		args = append(args, *req.To)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reservations %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM reservations %s ORDER BY starts_at DESC LIMIT $%d OFFSET $%d`,
		selectColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *res)
	}
	return out, total, rows.Err()
}

// UpdateStatus moves a reservation between statuses with a conditional
// update, so a concurrent transition loses cleanly instead of
// overwriting.
func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return fmt.Errorf("reservations: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) HasOverlap(ctx context.Context, serviceID int64, startsAt, endsAt time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE service_id = $1
			  AND status NOT IN ('CANCELLED', 'COMPLETED')
			  AND starts_at < $3 AND ends_at > $2
		)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, serviceID, startsAt, endsAt).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var res Reservation
	var notes pgtype.Text
	err := row.Scan(
		&res.ID, &res.Reference, &res.TenantID, &res.VenueID, &res.ServiceID, &res.UserID,
		&res.StartsAt, &res.EndsAt, &res.PartySize, &res.Status, &notes, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		res.Notes = &notes.String
	}
	return &res, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
