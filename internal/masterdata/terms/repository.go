package terms

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
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context) ([]Template, error)
	Get(ctx context.Context, id int64) (*Template, error)
	GetDefault(ctx context.Context) (*Template, error)
	Create(ctx context.Context, t Template) (int64, error)
	Update(ctx context.Context, id int64, t Template) error
	Delete(ctx context.Context, id int64) error
	ClearDefault(ctx context.Context, exceptID int64) error
}

type repository struct {
	db   db.Querier
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const columns = `id, template_name, content, is_default, created_at, updated_at`

func scan(row pgx.Row) (*Template, error) {
	var t Template
	if err := row.Scan(&t.ID, &t.TemplateName, &t.Content, &t.IsDefault, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context) ([]Template, error) {
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM terms_templates ORDER BY is_default DESC, template_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Template, error) {
	t, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM terms_templates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("terms template %d: %w", id, shared.ErrNotFound)
	}
	return t, err
}

func (r *repository) GetDefault(ctx context.Context) (*Template, error) {
	t, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM terms_templates WHERE is_default LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("default terms template: %w", shared.ErrNotFound)
	}
	return t, err
}

func (r *repository) Create(ctx context.Context, t Template) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO terms_templates (template_name, content, is_default) VALUES ($1, $2, $3) RETURNING id`,
		t.TemplateName, t.Content, t.IsDefault).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, t Template) error {
	tag, err := r.db.Exec(ctx, `UPDATE terms_templates SET template_name = $1, content = $2, is_default = $3, updated_at = NOW() WHERE id = $4`,
		t.TemplateName, t.Content, t.IsDefault, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("terms template %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM terms_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("terms template %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) ClearDefault(ctx context.Context, exceptID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE terms_templates SET is_default = FALSE, updated_at = NOW() WHERE is_default AND id <> $1`, exceptID)
	return err
}
