package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jag-erp/jag-erp/internal/platform/db"
	"github.com/jag-erp/jag-erp/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context, filter ListFilter) ([]Customer, int, error)
	Create(ctx context.Context, customer Customer) (int64, error)
	Update(ctx context.Context, customer Customer) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.Querier
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const customerColumns = `id, customer_name, COALESCE(company_name, ''), COALESCE(gstin, ''),
	COALESCE(billing_line1, ''), COALESCE(billing_line2, ''), COALESCE(billing_city, ''), COALESCE(billing_state, ''), COALESCE(billing_pincode, ''),
	COALESCE(shipping_line1, ''), COALESCE(shipping_line2, ''), COALESCE(shipping_city, ''), COALESCE(shipping_state, ''), COALESCE(shipping_pincode, ''),
	COALESCE(mobile, ''), COALESCE(email, ''), COALESCE(logo_url, ''), default_discount, created_by, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.CustomerName, &c.CompanyName, &c.GSTIN,
		&c.BillingAddress.Line1, &c.BillingAddress.Line2, &c.BillingAddress.City, &c.BillingAddress.State, &c.BillingAddress.Pincode,
		&c.ShippingAddress.Line1, &c.ShippingAddress.Line2, &c.ShippingAddress.City, &c.ShippingAddress.State, &c.ShippingAddress.Pincode,
		&c.Mobile, &c.Email, &c.LogoURL, &c.DefaultDiscount, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Customer, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if filter.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", argPos))
		args = append(args, *filter.CreatedBy)
		argPos++
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(customer_name ILIKE $%d OR company_name ILIKE $%d OR gstin ILIKE $%d OR mobile ILIKE $%d)", argPos, argPos, argPos, argPos))
		args = append(args, "%"+search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		customerColumns, whereClause, argPos, argPos+1)
	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (
			customer_name, company_name, gstin,
			billing_line1, billing_line2, billing_city, billing_state, billing_pincode,
			shipping_line1, shipping_line2, shipping_city, shipping_state, shipping_pincode,
			mobile, email, logo_url, default_discount, created_by
		) VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''),
			NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''),
			NULLIF($14, ''), NULLIF($15, ''), NULLIF($16, ''), $17, $18)
		RETURNING id`,
		c.CustomerName, c.CompanyName, c.GSTIN,
		c.BillingAddress.Line1, c.BillingAddress.Line2, c.BillingAddress.City, c.BillingAddress.State, c.BillingAddress.Pincode,
		c.ShippingAddress.Line1, c.ShippingAddress.Line2, c.ShippingAddress.City, c.ShippingAddress.State, c.ShippingAddress.Pincode,
		c.Mobile, c.Email, c.LogoURL, c.DefaultDiscount, c.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, c Customer) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE customers SET
			customer_name = $1, company_name = NULLIF($2, ''), gstin = NULLIF($3, ''),
			billing_line1 = NULLIF($4, ''), billing_line2 = NULLIF($5, ''), billing_city = NULLIF($6, ''),
			billing_state = NULLIF($7, ''), billing_pincode = NULLIF($8, ''),
			shipping_line1 = NULLIF($9, ''), shipping_line2 = NULLIF($10, ''), shipping_city = NULLIF($11, ''),
			shipping_state = NULLIF($12, ''), shipping_pincode = NULLIF($13, ''),
			mobile = NULLIF($14, ''), email = NULLIF($15, ''), logo_url = NULLIF($16, ''),
			default_discount = $17, updated_at = NOW()
		WHERE id = $18`,
		c.CustomerName, c.CompanyName, c.GSTIN,
		c.BillingAddress.Line1, c.BillingAddress.Line2, c.BillingAddress.City, c.BillingAddress.State, c.BillingAddress.Pincode,
		c.ShippingAddress.Line1, c.ShippingAddress.Line2, c.ShippingAddress.City, c.ShippingAddress.State, c.ShippingAddress.Pincode,
		c.Mobile, c.Email, c.LogoURL, c.DefaultDiscount, c.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %d: %w", c.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("customer %d is referenced by quotations: %w", id, shared.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
