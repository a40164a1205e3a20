package salespersons

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	mdshared "github.com/jag-erp/jag-erp/internal/masterdata/shared"
	"github.com/jag-erp/jag-erp/internal/platform/db"
	"github.com/jag-erp/jag-erp/internal/shared"
)

type Repository interface {
	List(ctx context.Context, status *mdshared.Status) ([]Salesperson, error)
	Get(ctx context.Context, id int64) (Salesperson, error)
	Create(ctx context.Context, sp Salesperson) (Salesperson, error)
	Update(ctx context.Context, id int64, sp Salesperson) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.Querier
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const columns = `id, name, COALESCE(email, ''), COALESCE(mobile, ''), status, created_at, updated_at`

func scan(row pgx.Row) (Salesperson, error) {
	var sp Salesperson
	err := row.Scan(&sp.ID, &sp.Name, &sp.Email, &sp.Mobile, &sp.Status, &sp.CreatedAt, &sp.UpdatedAt)
	return sp, err
}

func (r *repository) List(ctx context.Context, status *mdshared.Status) ([]Salesperson, error) {
	query := `SELECT ` + columns + ` FROM salespersons`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Salesperson
	for rows.Next() {
		sp, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Salesperson, error) {
	sp, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM salespersons WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Salesperson{}, fmt.Errorf("salesperson %d: %w", id, shared.ErrNotFound)
	}
	return sp, err
}

func (r *repository) Create(ctx context.Context, sp Salesperson) (Salesperson, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO salespersons (name, email, mobile, status)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)
		RETURNING id, created_at, updated_at`,
		sp.Name, sp.Email, sp.Mobile, string(sp.Status),
	).Scan(&sp.ID, &sp.CreatedAt, &sp.UpdatedAt)
	return sp, err
}

func (r *repository) Update(ctx context.Context, id int64, sp Salesperson) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE salespersons SET name = $1, email = NULLIF($2, ''), mobile = NULLIF($3, ''), status = $4, updated_at = NOW()
		WHERE id = $5`,
		sp.Name, sp.Email, sp.Mobile, string(sp.Status), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("salesperson %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM salespersons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("salesperson %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
