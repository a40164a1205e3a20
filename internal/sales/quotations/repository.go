package quotations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jag-erp/jag-erp/internal/platform/db"
	"github.com/jag-erp/jag-erp/internal/shared"
)

const (
	docTypeQuotation      = "quotation"
	quotationNoConstraint = "quotations_quotation_no_key"
)

// ErrDuplicateNumber is returned when a quotation number is already taken.
var ErrDuplicateNumber = fmt.Errorf("duplicate quotation number: %w", shared.ErrConflict)

type Repository interface {
	SequenceStore
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Insert(ctx context.Context, q *Quotation) (int64, error)
	Get(ctx context.Context, id int64) (*Quotation, error)
	Replace(ctx context.Context, q *Quotation) error
	UpdateStatus(ctx context.Context, id int64, status QuotationStatus, at time.Time) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]QuotationWithDetails, int, error)
	Stats(ctx context.Context, yr YearRange, createdBy *int64) (Stats, error)
}

type repository struct {
	db     db.Querier
	pool   *pgxpool.Pool
	prefix string
}

// NewRepository builds the Postgres repository. prefix scopes the sequence
// seed to numbers of the form <prefix>/QTN/<year>/NNNN.
func NewRepository(pool *pgxpool.Pool, prefix string) Repository {
	return &repository{db: pool, pool: pool, prefix: prefix}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool, prefix: r.prefix})
	})
}

// NextSequence atomically increments the per-year counter. The first call in
// a year seeds the counter past the highest number already issued that year.
func (r *repository) NextSequence(ctx context.Context, yr YearRange) (int64, error) {
	pattern := fmt.Sprintf("%s/QTN/%04d/%%", r.prefix, yr.Year)
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, (
			SELECT COALESCE(MAX(NULLIF(split_part(quotation_no, '/', 4), '')::bigint), 0) + 1
			FROM quotations WHERE quotation_no LIKE $3
		))
		ON CONFLICT (doc_type, period) DO UPDATE
		SET seq = document_sequences.seq + 1, updated_at = NOW()
		RETURNING seq`,
		docTypeQuotation, yr.Year, pattern,
	).Scan(&seq)
	return seq, err
}

func (r *repository) Insert(ctx context.Context, q *Quotation) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotations (
			quotation_no, customer_id, site_id, quotation_date, valid_till, salesperson_name,
			payment_terms, terms_template_id, custom_terms, subtotal, total_discount,
			additional_discount, cgst, sgst, igst, round_off, grand_total, status,
			finalized_at, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at, updated_at`,
		q.QuotationNo, q.CustomerID, q.SiteID, q.QuotationDate, q.ValidTill, q.SalespersonName,
		q.PaymentTerms, q.TermsTemplateID, q.CustomTerms, q.Subtotal, q.TotalDiscount,
		q.AdditionalDiscount, q.GSTBreakup.CGST, q.GSTBreakup.SGST, q.GSTBreakup.IGST, q.RoundOff, q.GrandTotal, string(q.Status),
		q.FinalizedAt, q.CreatedBy,
	).Scan(&id, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, quotationNoConstraint) {
			return 0, fmt.Errorf("%s: %w", q.QuotationNo, ErrDuplicateNumber)
		}
		return 0, err
	}
	q.ID = id
	if err := r.insertLines(ctx, id, q.Items); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) insertLines(ctx context.Context, quotationID int64, lines []QuotationLine) error {
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`
			INSERT INTO quotation_lines (
				quotation_id, line_order, product_id, site_id, product_name, product_code, hsn_code,
				gst_percentage, uom, product_image_url, quantity, rate, discount_percent,
				discount_amount, taxable_amount, gst_amount, line_total
			) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			quotationID, l.LineOrder, l.ProductID, l.SiteID, l.Snapshot.ProductName, l.Snapshot.ProductCode, l.Snapshot.HSNCode,
			l.Snapshot.GSTPercentage, l.Snapshot.UOM, l.Snapshot.ProductImageURL, l.Quantity, l.Rate, l.DiscountPercent,
			l.DiscountAmount, l.TaxableAmount, l.GSTAmount, l.LineTotal,
		)
	}
	results := r.db.SendBatch(ctx, batch)
	for range lines {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert quotation line: %w", err)
		}
	}
	return results.Close()
}

const quotationColumns = `q.id, q.quotation_no, q.customer_id, q.site_id, q.quotation_date, q.valid_till, q.salesperson_name,
	q.payment_terms, q.terms_template_id, q.custom_terms, q.subtotal, q.total_discount, q.additional_discount,
	q.cgst, q.sgst, q.igst, q.round_off, q.grand_total, q.status, q.finalized_at, q.created_by, q.created_at, q.updated_at`

func quotationDest(q *Quotation) []any {
	return []any{
		&q.ID, &q.QuotationNo, &q.CustomerID, &q.SiteID, &q.QuotationDate, &q.ValidTill, &q.SalespersonName,
		&q.PaymentTerms, &q.TermsTemplateID, &q.CustomTerms, &q.Subtotal, &q.TotalDiscount, &q.AdditionalDiscount,
		&q.GSTBreakup.CGST, &q.GSTBreakup.SGST, &q.GSTBreakup.IGST, &q.RoundOff, &q.GrandTotal, &q.Status,
		&q.FinalizedAt, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	}
}

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	var q Quotation
	err := r.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations q WHERE q.id = $1`, id).Scan(quotationDest(&q)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quotation %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	lines, err := r.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Items = lines
	return &q, nil
}

func (r *repository) lines(ctx context.Context, quotationID int64) ([]QuotationLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quotation_id, line_order, product_id, site_id, product_name, product_code, COALESCE(hsn_code, ''),
			gst_percentage, uom, product_image_url, quantity, rate, discount_percent,
			discount_amount, taxable_amount, gst_amount, line_total
		FROM quotation_lines WHERE quotation_id = $1 ORDER BY line_order`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []QuotationLine{}
	for rows.Next() {
		var l QuotationLine
		if err := rows.Scan(
			&l.ID, &l.QuotationID, &l.LineOrder, &l.ProductID, &l.SiteID, &l.Snapshot.ProductName, &l.Snapshot.ProductCode, &l.Snapshot.HSNCode,
			&l.Snapshot.GSTPercentage, &l.Snapshot.UOM, &l.Snapshot.ProductImageURL, &l.Quantity, &l.Rate, &l.DiscountPercent,
			&l.DiscountAmount, &l.TaxableAmount, &l.GSTAmount, &l.LineTotal,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Replace rewrites the header and all lines of a draft quotation. The number,
// owner and creation time are left untouched.
func (r *repository) Replace(ctx context.Context, q *Quotation) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations SET
			customer_id = $2, site_id = $3, quotation_date = $4, valid_till = $5, salesperson_name = $6,
			payment_terms = $7, terms_template_id = $8, custom_terms = $9, subtotal = $10, total_discount = $11,
			additional_discount = $12, cgst = $13, sgst = $14, igst = $15, round_off = $16, grand_total = $17,
			status = $18, finalized_at = $19, updated_at = NOW()
		WHERE id = $1 AND status = 'draft'`,
		q.ID, q.CustomerID, q.SiteID, q.QuotationDate, q.ValidTill, q.SalespersonName,
		q.PaymentTerms, q.TermsTemplateID, q.CustomTerms, q.Subtotal, q.TotalDiscount,
		q.AdditionalDiscount, q.GSTBreakup.CGST, q.GSTBreakup.SGST, q.GSTBreakup.IGST, q.RoundOff, q.GrandTotal,
		string(q.Status), q.FinalizedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %d is not a draft: %w", q.ID, shared.ErrInvalidStatus)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM quotation_lines WHERE quotation_id = $1`, q.ID); err != nil {
		return err
	}
	return r.insertLines(ctx, q.ID, q.Items)
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status QuotationStatus, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations SET status = $2, finalized_at = CASE WHEN $2 = 'final' THEN $3 ELSE finalized_at END, updated_at = $3
		WHERE id = $1`, id, string(status), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// Delete removes a draft quotation and its lines.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotations WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %d is not a draft: %w", id, shared.ErrInvalidStatus)
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]QuotationWithDetails, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if filter.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("q.created_by = $%d", argPos))
		args = append(args, *filter.CreatedBy)
		argPos++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("q.status = $%d", argPos))
		args = append(args, string(*filter.Status))
		argPos++
	}
	if filter.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("q.customer_id = $%d", argPos))
		args = append(args, *filter.CustomerID)
		argPos++
	}
	if filter.period != nil {
		conditions = append(conditions, fmt.Sprintf("q.created_at >= $%d AND q.created_at < $%d", argPos, argPos+1))
		args = append(args, filter.period.Start, filter.period.End)
		argPos += 2
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(q.quotation_no ILIKE $%d OR c.customer_name ILIKE $%d OR c.company_name ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}
	from := `FROM quotations q
		JOIN customers c ON c.id = q.customer_id
		LEFT JOIN sites s ON s.id = q.site_id
		LEFT JOIN users u ON u.id = q.created_by `

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) "+from+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s, c.customer_name, COALESCE(c.company_name, ''), s.site_name, COALESCE(u.name, '')
		%s %s
		ORDER BY q.created_at DESC, q.id DESC
		LIMIT $%d OFFSET $%d`, quotationColumns, from, whereClause, argPos, argPos+1)
	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []QuotationWithDetails
	for rows.Next() {
		var row QuotationWithDetails
		dest := append(quotationDest(&row.Quotation), &row.CustomerName, &row.CompanyName, &row.SiteName, &row.CreatedByName)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}

func (r *repository) Stats(ctx context.Context, yr YearRange, createdBy *int64) (Stats, error) {
	stats := Stats{Year: yr.Year}
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*) FILTER (WHERE status = 'final'),
			COALESCE(SUM(grand_total), 0),
			COALESCE(SUM(grand_total) FILTER (WHERE status = 'final'), 0)
		FROM quotations
		WHERE created_at >= $1 AND created_at < $2`
	args := []any{yr.Start, yr.End}
	if createdBy != nil {
		query += ` AND created_by = $3`
		args = append(args, *createdBy)
	}
	err := r.db.QueryRow(ctx, query, args...).Scan(&stats.Count, &stats.Draft, &stats.Final, &stats.TotalValue, &stats.FinalizedValue)
	return stats, err
}
