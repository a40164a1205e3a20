package quotations

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jag-erp/jag-erp/internal/masterdata/products"
	mdshared "github.com/jag-erp/jag-erp/internal/masterdata/shared"
	"github.com/jag-erp/jag-erp/internal/platform/db/dbtest"
	"github.com/jag-erp/jag-erp/internal/sales/customers"
	"github.com/jag-erp/jag-erp/internal/shared"
)

func seededPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool := dbtest.Postgres(t)
	dbtest.Exec(t, pool, `INSERT INTO users (id, email, name, password_hash, role) VALUES (7, 'rep@jag.test', 'Sales Rep', 'x', 'user')`)
	dbtest.Exec(t, pool, `INSERT INTO customers (id, customer_name, billing_state, created_by) VALUES (1, 'Asha Patil', 'Maharashtra', 7)`)
	dbtest.Exec(t, pool, `INSERT INTO products (id, product_code, product_name, gst_percentage, base_price) VALUES (10, 'WB-101', 'Wall Basin', 18, 100)`)
	return pool
}

// newPostgresService wires the service to a real repository with in-memory
// reference data. catalogue may list products the database does not hold.
func newPostgresService(pool *pgxpool.Pool, catalogue stubProducts) *Service {
	return NewService(NewRepository(pool, "JAG"), Dependencies{
		Customers: stubCustomers{
			1: {ID: 1, CustomerName: "Asha Patil", BillingAddress: customers.Address{State: "Maharashtra"}, CreatedBy: 7},
		},
		Products: catalogue,
		Sites:    stubSites{},
		Terms:    stubTerms{},
	}, Config{Prefix: "JAG", SellerHomeState: "Maharashtra", Location: ist})
}

func countRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func newIntegrationRepository(t *testing.T) (Repository, func(no string) *Quotation) {
	t.Helper()
	pool := seededPostgres(t)

	repo := NewRepository(pool, "JAG")
	build := func(no string) *Quotation {
		return &Quotation{
			QuotationNo:   no,
			CustomerID:    1,
			QuotationDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
			Items: []QuotationLine{{
				LineOrder: 1, ProductID: 10,
				Snapshot:        ProductSnapshot{ProductName: "Wall Basin", ProductCode: "WB-101", GSTPercentage: 18, UOM: "Nos"},
				Quantity:        2,
				Rate:            100,
				DiscountPercent: 10,
				DiscountAmount:  20,
				TaxableAmount:   180,
				GSTAmount:       32.4,
				LineTotal:       212.4,
			}},
			Subtotal:      180,
			TotalDiscount: 20,
			RoundOff:      -0.4,
			GrandTotal:    212,
			Status:        QuotationStatusDraft,
			CreatedBy:     7,
		}
	}
	return repo, build
}

func TestRepositorySequenceIsAtomic(t *testing.T) {
	repo, _ := newIntegrationRepository(t)
	ctx := context.Background()
	yr := YearRangeOf(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), time.UTC)

	const workers = 20
	seen := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := repo.NextSequence(ctx, yr)
			assert.NoError(t, err)
			seen <- seq
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int64]bool{}
	for seq := range seen {
		unique[seq] = true
	}
	assert.Len(t, unique, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, unique[i], "sequence %d missing", i)
	}
}

func TestRepositorySequenceSeedsPastExistingNumbers(t *testing.T) {
	repo, build := newIntegrationRepository(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, build("JAG/QTN/2025/0041"))
	require.NoError(t, err)

	seq, err := repo.NextSequence(ctx, YearRange{Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, int64(42), seq)

	seq, err = repo.NextSequence(ctx, YearRange{Year: 2026})
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
}

func TestRepositoryDuplicateNumber(t *testing.T) {
	repo, build := newIntegrationRepository(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, build("JAG/QTN/2025/0001"))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, build("JAG/QTN/2025/0001"))
	assert.ErrorIs(t, err, ErrDuplicateNumber)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestRepositoryRoundTripAndDraftGuards(t *testing.T) {
	repo, build := newIntegrationRepository(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, build("JAG/QTN/2025/0001"))
	require.NoError(t, err)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "JAG/QTN/2025/0001", got.QuotationNo)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 212.4, got.Items[0].LineTotal)
	assert.Equal(t, "Wall Basin", got.Items[0].Snapshot.ProductName)
	assert.Equal(t, -0.4, got.RoundOff)

	got.Items = append(got.Items, got.Items[0])
	got.Items[1].LineOrder = 2
	got.Subtotal = 360
	require.NoError(t, repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		return tx.Replace(ctx, got)
	}))
	reloaded, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, reloaded.Items, 2)
	assert.Equal(t, 360.0, reloaded.Subtotal)

	require.NoError(t, repo.UpdateStatus(ctx, id, QuotationStatusFinal, time.Now()))
	assert.ErrorIs(t, repo.Replace(ctx, reloaded), shared.ErrInvalidStatus)
	assert.ErrorIs(t, repo.Delete(ctx, id), shared.ErrInvalidStatus)

	list, total, err := repo.List(ctx, ListFilter{Page: shared.PageRequest{Page: 1, PerPage: 10}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Asha Patil", list[0].CustomerName)
	assert.Equal(t, "Sales Rep", list[0].CreatedByName)

	stats, err := repo.Stats(ctx, YearRangeOf(time.Now(), time.UTC), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Final)

	_, err = repo.Get(ctx, id+1000)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateRollsBackHeaderWhenALineFails(t *testing.T) {
	pool := seededPostgres(t)
	svc := newPostgresService(pool, stubProducts{
		10:  {ID: 10, ProductCode: "WB-101", ProductName: "Wall Basin", GSTPercentage: 18, BasePrice: 100, UOM: products.UOMNos, Status: mdshared.StatusActive},
		999: {ID: 999, ProductCode: "GONE-1", ProductName: "Removed Mixer", GSTPercentage: 18, BasePrice: 50, UOM: products.UOMNos, Status: mdshared.StatusActive},
	})

	_, err := svc.Create(userCtx(7), QuotationInput{
		CustomerID: 1,
		ValidTill:  "2099-12-31",
		Items: []LineInput{
			{ProductID: 10, Quantity: 1, Rate: ptr(100.0)},
			{ProductID: 999, Quantity: 1, Rate: ptr(50.0)},
		},
	})
	require.Error(t, err)
	assert.Zero(t, countRows(t, pool, "quotations"), "header must not outlive its failed lines")
	assert.Zero(t, countRows(t, pool, "quotation_lines"))
}

func TestStoredAmountsReconcileWithLines(t *testing.T) {
	pool := seededPostgres(t)
	svc := newPostgresService(pool, stubProducts{
		10: {ID: 10, ProductCode: "WB-101", ProductName: "Wall Basin", GSTPercentage: 18, BasePrice: 100, UOM: products.UOMNos, Status: mdshared.StatusActive},
	})

	q, err := svc.Create(userCtx(7), QuotationInput{
		CustomerID: 1,
		ValidTill:  "2099-12-31",
		Items: []LineInput{
			{ProductID: 10, Quantity: 1, Rate: ptr(10.01), DiscountPercent: 12.5},
			{ProductID: 10, Quantity: 3.125, Rate: ptr(7.33), DiscountPercent: 2.25},
		},
	})
	require.NoError(t, err)
	require.Len(t, q.Items, 2)

	first := q.Items[0]
	assert.Equal(t, 8.75875, first.TaxableAmount)
	assert.Equal(t, 1.576575, first.GSTAmount)
	assert.Equal(t, 10.335325, first.LineTotal)

	var taxable, gst, discount float64
	for _, line := range q.Items {
		assert.InDelta(t, line.LineTotal, line.TaxableAmount+line.GSTAmount, 1e-9)
		taxable += line.TaxableAmount
		gst += line.GSTAmount
		discount += line.DiscountAmount
	}
	assert.InDelta(t, taxable, q.Subtotal, 1e-9)
	assert.InDelta(t, discount, q.TotalDiscount, 1e-9)
	assert.InDelta(t, gst, q.GSTBreakup.CGST+q.GSTBreakup.SGST, 1e-9)
	// round_off is kept to two places, so the grand total reconciles to within half a paisa.
	assert.InDelta(t, q.GrandTotal, q.Subtotal+q.GSTBreakup.CGST+q.GSTBreakup.SGST+q.RoundOff, 0.005)
}
