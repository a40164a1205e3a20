package quotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jag-erp/jag-erp/internal/masterdata/products"
	"github.com/jag-erp/jag-erp/internal/masterdata/sites"
	"github.com/jag-erp/jag-erp/internal/masterdata/terms"
	"github.com/jag-erp/jag-erp/internal/sales/customers"
	salesshared "github.com/jag-erp/jag-erp/internal/sales/shared"
	"github.com/jag-erp/jag-erp/internal/shared"
)

const defaultNumberAttempts = 3

// CustomerLookup resolves customers visible to the actor in ctx.
type CustomerLookup interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

type ProductLookup interface {
	Get(ctx context.Context, id int64) (products.Product, error)
}

type SiteLookup interface {
	Get(ctx context.Context, id int64) (*sites.Site, error)
}

type TermsLookup interface {
	Get(ctx context.Context, id int64) (*terms.Template, error)
	Default(ctx context.Context) (*terms.Template, error)
}

// PDFWarmer schedules rendering of a finalized quotation ahead of download.
type PDFWarmer interface {
	EnqueueQuotationPDF(ctx context.Context, quotationID int64) error
}

// Recorder receives quotation counters.
type Recorder interface {
	QuotationSaved(status string)
	QuotationNumberConflict()
}

type Config struct {
	Prefix          string
	SellerHomeState string
	Seller          Seller
	Location        *time.Location
	NumberAttempts  int
}

// Service orchestrates quotation lifecycle operations.
type Service struct {
	repo      Repository
	numbers   *NumberGenerator
	customers CustomerLookup
	products  ProductLookup
	sites     SiteLookup
	terms     TermsLookup
	audit     shared.AuditRecorder
	warmer    PDFWarmer
	recorder  Recorder
	logger    *slog.Logger
	cfg       Config
	now       func() time.Time
}

type Dependencies struct {
	Customers CustomerLookup
	Products  ProductLookup
	Sites     SiteLookup
	Terms     TermsLookup
	Audit     shared.AuditRecorder
	Warmer    PDFWarmer
	Recorder  Recorder
	Logger    *slog.Logger
}

func NewService(repo Repository, deps Dependencies, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.NumberAttempts <= 0 {
		cfg.NumberAttempts = defaultNumberAttempts
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		numbers:   NewNumberGenerator(repo, cfg.Prefix, cfg.Location),
		customers: deps.Customers,
		products:  deps.Products,
		sites:     deps.Sites,
		terms:     deps.Terms,
		audit:     deps.Audit,
		warmer:    deps.Warmer,
		recorder:  deps.Recorder,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetClock overrides the time source, including the one used for numbering.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.numbers.now = now
}

// Create validates the input, computes every derived amount and persists the
// quotation under a freshly reserved number.
func (s *Service) Create(ctx context.Context, in QuotationInput) (*Quotation, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	q, err := s.build(ctx, in, nil)
	if err != nil {
		return nil, err
	}
	q.CreatedBy = actor.UserID
	if q.IsFinal() {
		at := s.now()
		q.FinalizedAt = &at
	}

	var id int64
	for attempt := 1; ; attempt++ {
		number, err := s.numbers.Next(ctx)
		if err != nil {
			return nil, err
		}
		q.QuotationNo = number
		// A unique violation aborts the transaction, so each attempt gets its own.
		err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) (err error) {
			id, err = tx.Insert(ctx, q)
			return err
		})
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateNumber) {
			return nil, fmt.Errorf("create quotation: %w", err)
		}
		s.countConflict()
		s.logger.Warn("quotation number collision",
			slog.String("number", number),
			slog.Int("attempt", attempt))
		if attempt >= s.cfg.NumberAttempts {
			return nil, err
		}
	}

	s.record(ctx, actor, "quotation.create", id, map[string]any{
		"number":      q.QuotationNo,
		"grand_total": q.GrandTotal,
		"status":      string(q.Status),
	})
	s.countSaved(q.Status)
	if q.IsFinal() {
		s.warm(ctx, id)
	}
	return s.repo.Get(ctx, id)
}

// Update replaces the source fields of a draft quotation and recomputes every
// derived amount. The number, owner and creation time never change.
func (s *Service) Update(ctx context.Context, id int64, in QuotationInput) (*Quotation, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if existing.IsFinal() {
		return nil, fmt.Errorf("quotation %s is final: %w", existing.QuotationNo, shared.ErrInvalidStatus)
	}
	q, err := s.build(ctx, in, existing)
	if err != nil {
		return nil, err
	}
	q.ID = existing.ID
	q.QuotationNo = existing.QuotationNo
	q.CreatedBy = existing.CreatedBy
	q.CreatedAt = existing.CreatedAt
	if q.IsFinal() {
		at := s.now()
		q.FinalizedAt = &at
	}

	if err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		return tx.Replace(ctx, q)
	}); err != nil {
		return nil, fmt.Errorf("update quotation: %w", err)
	}

	s.record(ctx, actor, "quotation.update", id, map[string]any{
		"number":      q.QuotationNo,
		"grand_total": q.GrandTotal,
		"status":      string(q.Status),
	})
	s.countSaved(q.Status)
	if q.IsFinal() {
		s.warm(ctx, id)
	}
	return s.repo.Get(ctx, id)
}

// Finalize moves a quotation to final. Finalizing a final quotation returns it
// unchanged.
func (s *Service) Finalize(ctx context.Context, id int64) (*Quotation, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	q, err := s.get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if q.IsFinal() {
		return q, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, QuotationStatusFinal, s.now()); err != nil {
		return nil, fmt.Errorf("finalize quotation: %w", err)
	}
	s.record(ctx, actor, "quotation.finalize", id, map[string]any{"number": q.QuotationNo})
	s.countSaved(QuotationStatusFinal)
	s.warm(ctx, id)
	return s.repo.Get(ctx, id)
}

// Delete removes a draft quotation.
func (s *Service) Delete(ctx context.Context, id int64) error {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return err
	}
	q, err := s.get(ctx, actor, id)
	if err != nil {
		return err
	}
	if q.IsFinal() {
		return fmt.Errorf("quotation %s is final: %w", q.QuotationNo, shared.ErrInvalidStatus)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete quotation: %w", err)
	}
	s.record(ctx, actor, "quotation.delete", id, map[string]any{"number": q.QuotationNo})
	return nil
}

// Get returns the stored quotation without resolving references.
func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, actor, id)
}

// GetByID returns the quotation with customer, site, product and terms
// references resolved for display. References that no longer resolve are left
// empty; the stored snapshot still describes each line.
func (s *Service) GetByID(ctx context.Context, id int64) (*QuotationDetail, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	q, err := s.get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	detail := &QuotationDetail{Quotation: *q, Items: make([]LineDetail, len(q.Items))}
	siteIDs := map[int64]struct{}{}
	if q.SiteID != nil {
		siteIDs[*q.SiteID] = struct{}{}
	}
	productIDs := map[int64]struct{}{}
	for i, line := range q.Items {
		detail.Items[i] = LineDetail{QuotationLine: line}
		productIDs[line.ProductID] = struct{}{}
		if line.SiteID != nil {
			siteIDs[*line.SiteID] = struct{}{}
		}
	}

	var (
		siteByID    = make(map[int64]*sites.Site, len(siteIDs))
		productByID = make(map[int64]*products.Product, len(productIDs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		customer, err := s.customers.Get(gctx, q.CustomerID)
		if err != nil {
			return fmt.Errorf("resolve customer: %w", err)
		}
		detail.Customer = customer
		return nil
	})
	g.Go(func() error {
		for siteID := range siteIDs {
			site, err := s.sites.Get(gctx, siteID)
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("resolve site %d: %w", siteID, err)
			}
			siteByID[siteID] = site
		}
		return nil
	})
	g.Go(func() error {
		for productID := range productIDs {
			product, err := s.products.Get(gctx, productID)
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("resolve product %d: %w", productID, err)
			}
			productByID[productID] = &product
		}
		return nil
	})
	if q.TermsTemplateID != nil {
		g.Go(func() error {
			tmpl, err := s.terms.Get(gctx, *q.TermsTemplateID)
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("resolve terms template: %w", err)
			}
			detail.TermsTemplate = tmpl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if q.SiteID != nil {
		detail.Site = siteByID[*q.SiteID]
	}
	for i := range detail.Items {
		detail.Items[i].Product = productByID[detail.Items[i].ProductID]
		if sid := detail.Items[i].SiteID; sid != nil {
			detail.Items[i].Site = siteByID[*sid]
		}
	}
	return detail, nil
}

// List returns quotations visible to the actor, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]QuotationWithDetails, int, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, 0, err
	}
	filter.CreatedBy = actor.OwnerScope()
	filter.period = nil
	if filter.Year != nil {
		yr := YearRangeOf(time.Date(*filter.Year, time.July, 1, 0, 0, 0, 0, s.cfg.Location), s.cfg.Location)
		filter.period = &yr
	}
	return s.repo.List(ctx, filter)
}

// Stats summarises the given year, or the current year when year is zero.
func (s *Service) Stats(ctx context.Context, year int) (Stats, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return Stats{}, err
	}
	yr := YearRangeOf(s.now(), s.cfg.Location)
	if year > 0 {
		yr = YearRangeOf(time.Date(year, time.July, 1, 0, 0, 0, 0, s.cfg.Location), s.cfg.Location)
	}
	return s.repo.Stats(ctx, yr, actor.OwnerScope())
}

func (s *Service) get(ctx context.Context, actor shared.Actor, id int64) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(q.CreatedBy) {
		return nil, fmt.Errorf("quotation %d: %w", id, shared.ErrNotFound)
	}
	return q, nil
}

// build turns input into a quotation with all derived fields computed.
// existing is the stored quotation on update; its snapshots are reused for
// products it already carries.
func (s *Service) build(ctx context.Context, in QuotationInput, existing *Quotation) (*Quotation, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}
	dates, err := in.parseDates(s.now(), s.cfg.Location)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.Get(ctx, in.CustomerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("customer %d: %w", in.CustomerID, shared.ErrNotFound)
		}
		return nil, err
	}
	if err := s.checkSite(ctx, "site_id", in.SiteID, customer.ID); err != nil {
		return nil, err
	}

	termsID := in.TermsTemplateID
	if termsID != nil {
		if _, err := s.terms.Get(ctx, *termsID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, fmt.Errorf("terms template %d: %w", *termsID, shared.ErrNotFound)
			}
			return nil, err
		}
	} else if existing == nil {
		tmpl, err := s.terms.Default(ctx)
		switch {
		case err == nil:
			termsID = &tmpl.ID
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
	}

	stored := map[int64]ProductSnapshot{}
	if existing != nil {
		for _, line := range existing.Items {
			stored[line.ProductID] = line.Snapshot
		}
	}

	lines := make([]QuotationLine, 0, len(in.Items))
	amounts := make([]salesshared.LineAmounts, 0, len(in.Items))
	fetched := map[int64]products.Product{}
	for i, item := range in.Items {
		field := "items[" + strconv.Itoa(i) + "]"
		if err := s.checkSite(ctx, field+".site_id", item.SiteID, customer.ID); err != nil {
			return nil, err
		}

		snapshot, reused := stored[item.ProductID]
		var product products.Product
		if !reused || item.Rate == nil {
			p, ok := fetched[item.ProductID]
			if !ok {
				p, err = s.products.Get(ctx, item.ProductID)
				if err != nil {
					if errors.Is(err, shared.ErrNotFound) && reused {
						return nil, shared.NewValidationError(field+".rate", "is required for a product no longer in the catalogue")
					}
					if errors.Is(err, shared.ErrNotFound) {
						return nil, shared.NewValidationError(field+".product_id", "does not exist")
					}
					return nil, err
				}
				fetched[item.ProductID] = p
			}
			product = p
		}
		if !reused {
			if !product.IsActive() {
				return nil, shared.NewValidationError(field+".product_id", "is inactive")
			}
			snapshot = snapshotOf(product)
		}

		rate := product.BasePrice
		if item.Rate != nil {
			rate = *item.Rate
		}
		computed := salesshared.CalculateLine(item.Quantity, rate, item.DiscountPercent, snapshot.GSTPercentage)
		amounts = append(amounts, computed)
		lines = append(lines, QuotationLine{
			LineOrder:       i + 1,
			ProductID:       item.ProductID,
			SiteID:          item.SiteID,
			Snapshot:        snapshot,
			Quantity:        item.Quantity,
			Rate:            rate,
			DiscountPercent: item.DiscountPercent,
			DiscountAmount:  computed.DiscountAmount,
			TaxableAmount:   computed.TaxableAmount,
			GSTAmount:       computed.GSTAmount,
			LineTotal:       computed.LineTotal,
		})
	}

	status := in.Status
	if status == "" {
		status = QuotationStatusDraft
	}
	q := &Quotation{
		CustomerID:      customer.ID,
		SiteID:          in.SiteID,
		QuotationDate:   dates.quotationDate,
		ValidTill:       dates.validTill,
		SalespersonName: in.SalespersonName,
		PaymentTerms:    in.PaymentTerms,
		TermsTemplateID: termsID,
		CustomTerms:     in.CustomTerms,
		Items:           lines,
		Status:          status,
	}
	q.applyTotals(salesshared.Aggregate(amounts, in.AdditionalDiscount, customer.BillingState(), s.cfg.SellerHomeState))
	return q, nil
}

func (s *Service) checkSite(ctx context.Context, field string, siteID *int64, customerID int64) error {
	if siteID == nil {
		return nil
	}
	site, err := s.sites.Get(ctx, *siteID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError(field, "does not exist")
		}
		return err
	}
	if site.CustomerID != customerID {
		return shared.NewValidationError(field, "does not belong to the customer")
	}
	return nil
}

func (s *Service) record(ctx context.Context, actor shared.Actor, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "quotation",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.now(),
	}); err != nil {
		s.logger.Error("audit quotation", slog.String("action", action), slog.Int64("quotation_id", id), slog.Any("error", err))
	}
}

func (s *Service) warm(ctx context.Context, id int64) {
	if s.warmer == nil {
		return
	}
	if err := s.warmer.EnqueueQuotationPDF(ctx, id); err != nil {
		s.logger.Warn("enqueue quotation pdf", slog.Int64("quotation_id", id), slog.Any("error", err))
	}
}

func (s *Service) countSaved(status QuotationStatus) {
	if s.recorder != nil {
		s.recorder.QuotationSaved(string(status))
	}
}

func (s *Service) countConflict() {
	if s.recorder != nil {
		s.recorder.QuotationNumberConflict()
	}
}
