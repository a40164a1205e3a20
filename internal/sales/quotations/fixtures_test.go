package quotations

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jag-erp/jag-erp/internal/masterdata/products"
	mdshared "github.com/jag-erp/jag-erp/internal/masterdata/shared"
	"github.com/jag-erp/jag-erp/internal/masterdata/sites"
	"github.com/jag-erp/jag-erp/internal/masterdata/terms"
	"github.com/jag-erp/jag-erp/internal/sales/customers"
	"github.com/jag-erp/jag-erp/internal/shared"
)

var ist = time.FixedZone("IST", 5*3600+1800)

// ============================================================================
// In-memory repository
// ============================================================================

type memRepository struct {
	mu         sync.Mutex
	quotations map[int64]*Quotation
	seq        map[int]int64
	nextID     int64
	now        func() time.Time

	alwaysDuplicate bool
	insertErr       error
	txCalls         int
}

func newMemRepository(now func() time.Time) *memRepository {
	return &memRepository{quotations: map[int64]*Quotation{}, seq: map[int]int64{}, now: now}
}

func (m *memRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.mu.Lock()
	m.txCalls++
	m.mu.Unlock()
	return fn(ctx, m)
}

func (m *memRepository) NextSequence(ctx context.Context, yr YearRange) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq[yr.Year]++
	return m.seq[yr.Year], nil
}

func (m *memRepository) Insert(ctx context.Context, q *Quotation) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	if m.alwaysDuplicate {
		return 0, fmt.Errorf("%s: %w", q.QuotationNo, ErrDuplicateNumber)
	}
	for _, existing := range m.quotations {
		if existing.QuotationNo == q.QuotationNo {
			return 0, fmt.Errorf("%s: %w", q.QuotationNo, ErrDuplicateNumber)
		}
	}
	m.nextID++
	stored := cloneQuotation(q)
	stored.ID = m.nextID
	stored.CreatedAt = m.now()
	stored.UpdatedAt = stored.CreatedAt
	for i := range stored.Items {
		stored.Items[i].ID = m.nextID*100 + int64(i)
		stored.Items[i].QuotationID = m.nextID
	}
	m.quotations[stored.ID] = stored
	return stored.ID, nil
}

func (m *memRepository) Get(ctx context.Context, id int64) (*Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotations[id]
	if !ok {
		return nil, fmt.Errorf("quotation %d: %w", id, shared.ErrNotFound)
	}
	return cloneQuotation(q), nil
}

func (m *memRepository) Replace(ctx context.Context, q *Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.quotations[q.ID]
	if !ok || existing.IsFinal() {
		return shared.ErrInvalidStatus
	}
	stored := cloneQuotation(q)
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = m.now()
	m.quotations[q.ID] = stored
	return nil
}

func (m *memRepository) UpdateStatus(ctx context.Context, id int64, status QuotationStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotations[id]
	if !ok {
		return shared.ErrNotFound
	}
	q.Status = status
	q.FinalizedAt = &at
	q.UpdatedAt = at
	return nil
}

func (m *memRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotations[id]
	if !ok || q.IsFinal() {
		return shared.ErrInvalidStatus
	}
	delete(m.quotations, id)
	return nil
}

func (m *memRepository) List(ctx context.Context, filter ListFilter) ([]QuotationWithDetails, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []QuotationWithDetails
	for _, q := range m.quotations {
		if filter.CreatedBy != nil && q.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.Status != nil && q.Status != *filter.Status {
			continue
		}
		if filter.CustomerID != nil && q.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.period != nil && (q.CreatedAt.Before(filter.period.Start) || !q.CreatedAt.Before(filter.period.End)) {
			continue
		}
		if filter.Search != "" && !strings.Contains(q.QuotationNo, filter.Search) {
			continue
		}
		out = append(out, QuotationWithDetails{Quotation: *cloneQuotation(q)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memRepository) Stats(ctx context.Context, yr YearRange, createdBy *int64) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := Stats{Year: yr.Year}
	for _, q := range m.quotations {
		if q.CreatedAt.Before(yr.Start) || !q.CreatedAt.Before(yr.End) {
			continue
		}
		if createdBy != nil && q.CreatedBy != *createdBy {
			continue
		}
		stats.Count++
		stats.TotalValue += q.GrandTotal
		if q.IsFinal() {
			stats.Final++
			stats.FinalizedValue += q.GrandTotal
		} else {
			stats.Draft++
		}
	}
	return stats, nil
}

func cloneQuotation(q *Quotation) *Quotation {
	c := *q
	c.Items = append([]QuotationLine(nil), q.Items...)
	return &c
}

// ============================================================================
// Reference data
// ============================================================================

type stubCustomers map[int64]customers.Customer

func (s stubCustomers) Get(ctx context.Context, id int64) (*customers.Customer, error) {
	c, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
	}
	if actor, ok := shared.ActorFromContext(ctx); ok && !actor.CanAccess(c.CreatedBy) {
		return nil, fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
	}
	return &c, nil
}

type stubProducts map[int64]products.Product

func (s stubProducts) Get(ctx context.Context, id int64) (products.Product, error) {
	p, ok := s[id]
	if !ok {
		return products.Product{}, fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

type stubSites map[int64]sites.Site

func (s stubSites) Get(ctx context.Context, id int64) (*sites.Site, error) {
	site, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("site %d: %w", id, shared.ErrNotFound)
	}
	return &site, nil
}

type stubTerms struct {
	templates map[int64]terms.Template
}

func (s stubTerms) Get(ctx context.Context, id int64) (*terms.Template, error) {
	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("terms template %d: %w", id, shared.ErrNotFound)
	}
	return &t, nil
}

func (s stubTerms) Default(ctx context.Context) (*terms.Template, error) {
	for _, t := range s.templates {
		if t.IsDefault {
			return &t, nil
		}
	}
	return nil, shared.ErrNotFound
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (r *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

type recordingWarmer struct {
	ids []int64
}

func (r *recordingWarmer) EnqueueQuotationPDF(ctx context.Context, id int64) error {
	r.ids = append(r.ids, id)
	return nil
}

type countingRecorder struct {
	saved     map[string]int
	conflicts int
}

func (c *countingRecorder) QuotationSaved(status string) {
	if c.saved == nil {
		c.saved = map[string]int{}
	}
	c.saved[status]++
}

func (c *countingRecorder) QuotationNumberConflict() { c.conflicts++ }

// ============================================================================
// Harness
// ============================================================================

type harness struct {
	svc      *Service
	repo     *memRepository
	products stubProducts
	audit    *recordingAudit
	warmer   *recordingWarmer
	recorder *countingRecorder
	clock    time.Time
}

func ptr[T any](v T) *T { return &v }

func newHarness() *harness {
	h := &harness{
		clock:    time.Date(2025, time.March, 10, 11, 30, 0, 0, ist),
		audit:    &recordingAudit{},
		warmer:   &recordingWarmer{},
		recorder: &countingRecorder{},
	}
	now := func() time.Time { return h.clock }
	h.repo = newMemRepository(now)
	h.products = stubProducts{
		10: {ID: 10, ProductCode: "WB-101", ProductName: "Wall Basin", HSNCode: "6910", GSTPercentage: 18, BasePrice: 100, UOM: products.UOMNos, Status: mdshared.StatusActive},
		11: {ID: 11, ProductCode: "TP-220", ProductName: "Pillar Tap", GSTPercentage: 12, BasePrice: 250, UOM: products.UOMSet, ProductImageURL: ptr("https://cdn.example.com/tp-220.png"), Status: mdshared.StatusActive},
		12: {ID: 12, ProductCode: "OLD-1", ProductName: "Retired Closet", GSTPercentage: 18, BasePrice: 900, UOM: products.UOMNos, Status: mdshared.StatusInactive},
	}
	h.svc = NewService(h.repo, Dependencies{
		Customers: stubCustomers{
			1: {ID: 1, CustomerName: "Asha Patil", CompanyName: "Patil Builders", GSTIN: "27AAAPP1234C1Z5", BillingAddress: customers.Address{Line1: "12 FC Road", City: "Pune", State: "Maharashtra", Pincode: "411004"}, CreatedBy: 7},
			2: {ID: 2, CustomerName: "Ravi Kumar", BillingAddress: customers.Address{State: "Karnataka"}, CreatedBy: 7},
			3: {ID: 3, CustomerName: "Other Rep Client", BillingAddress: customers.Address{State: "Maharashtra"}, CreatedBy: 8},
		},
		Products: h.products,
		Sites: stubSites{
			100: {ID: 100, CustomerID: 1, SiteName: "Baner Villa", Location: "Baner"},
			101: {ID: 101, CustomerID: 1, SiteName: "Wakad Tower", Location: "Wakad"},
			200: {ID: 200, CustomerID: 2, SiteName: "Whitefield Office"},
		},
		Terms: stubTerms{templates: map[int64]terms.Template{
			5: {ID: 5, TemplateName: "Standard", Content: "Prices inclusive of GST.\nDelivery within 15 days.", IsDefault: true},
			6: {ID: 6, TemplateName: "Projects", Content: "50% advance."},
		}},
		Audit:    h.audit,
		Warmer:   h.warmer,
		Recorder: h.recorder,
	}, Config{
		Prefix:          "JAG",
		SellerHomeState: "Maharashtra",
		Seller:          Seller{Name: "JAG Sanitaryware", GSTIN: "27ABCDE1234F1Z5"},
		Location:        ist,
	})
	h.svc.SetClock(now)
	return h
}

func userCtx(id int64) context.Context {
	return shared.ContextWithActor(context.Background(), shared.Actor{UserID: id, Role: shared.RoleUser})
}

func adminCtx() context.Context {
	return shared.ContextWithActor(context.Background(), shared.Actor{UserID: 1, Role: shared.RoleAdmin})
}

func basinInput(customerID int64) QuotationInput {
	return QuotationInput{
		CustomerID: customerID,
		ValidTill:  "2025-04-09",
		Items: []LineInput{
			{ProductID: 10, Quantity: 2, Rate: ptr(100.0), DiscountPercent: 10},
		},
	}
}
