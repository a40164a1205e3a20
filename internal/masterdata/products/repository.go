package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	mdshared "github.com/jag-erp/jag-erp/internal/masterdata/shared"
	"github.com/jag-erp/jag-erp/internal/platform/db"
	"github.com/jag-erp/jag-erp/internal/shared"
)

const productCodeConstraint = "products_product_code_key"

type Repository interface {
	List(ctx context.Context, filters mdshared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.Querier
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const productColumns = `id, product_code, product_name, hsn_code, gst_percentage, base_price, mrp, uom, product_image_url, status, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var hsn pgtype.Text
	err := row.Scan(&p.ID, &p.ProductCode, &p.ProductName, &hsn, &p.GSTPercentage, &p.BasePrice, &p.MRP, &p.UOM, &p.ProductImageURL, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if hsn.Valid {
		p.HSNCode = hsn.String
	}
	return p, err
}

func (r *repository) List(ctx context.Context, filters mdshared.ListFilters) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		where += ` AND (product_code ILIKE $` + strconv.Itoa(argCount) + ` OR product_name ILIKE $` + strconv.Itoa(argCount) + ` OR hsn_code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Status != nil {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, string(*filters.Status))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY product_name ASC`
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, filters.Page.Limit())
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, filters.Page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (product_code, product_name, hsn_code, gst_percentage, base_price, mrp, uom, product_image_url, status)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		product.ProductCode, product.ProductName, product.HSNCode, product.GSTPercentage, product.BasePrice,
		product.MRP, string(product.UOM), product.ProductImageURL, string(product.Status),
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, productCodeConstraint) {
			return Product{}, fmt.Errorf("product code %q already exists: %w", product.ProductCode, shared.ErrConflict)
		}
		return Product{}, err
	}
	return product, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products SET product_code = $1, product_name = $2, hsn_code = NULLIF($3, ''), gst_percentage = $4,
			base_price = $5, mrp = $6, uom = $7, product_image_url = $8, status = $9, updated_at = NOW()
		WHERE id = $10`,
		product.ProductCode, product.ProductName, product.HSNCode, product.GSTPercentage, product.BasePrice,
		product.MRP, string(product.UOM), product.ProductImageURL, string(product.Status), id,
	)
	if err != nil {
		if db.IsUniqueViolation(err, productCodeConstraint) {
			return fmt.Errorf("product code %q already exists: %w", product.ProductCode, shared.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("product %d is used on quotations, mark it Inactive instead: %w", id, shared.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
