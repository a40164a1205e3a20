package sites

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jag-erp/jag-erp/internal/platform/db"
	"github.com/jag-erp/jag-erp/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Site, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Site, error)
	Create(ctx context.Context, site Site) (int64, error)
}

type repository struct {
	db db.Querier
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const siteColumns = `id, customer_id, site_name, COALESCE(location, ''), COALESCE(address, ''), COALESCE(contact_person, ''), COALESCE(mobile, ''), created_at, updated_at`

func scanSite(row pgx.Row) (Site, error) {
	var s Site
	err := row.Scan(&s.ID, &s.CustomerID, &s.SiteName, &s.Location, &s.Address, &s.ContactPerson, &s.Mobile, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Site, error) {
	s, err := scanSite(r.db.QueryRow(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("site %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int64) ([]Site, error) {
	rows, err := r.db.Query(ctx, `SELECT `+siteColumns+` FROM sites WHERE customer_id = $1 ORDER BY site_name ASC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, s Site) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sites (customer_id, site_name, location, address, contact_person, mobile)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
		RETURNING id`,
		s.CustomerID, s.SiteName, s.Location, s.Address, s.ContactPerson, s.Mobile,
	).Scan(&id)
	if err != nil && db.IsForeignKeyViolation(err) {
		return 0, fmt.Errorf("customer %d: %w", s.CustomerID, shared.ErrNotFound)
	}
	return id, err
}
