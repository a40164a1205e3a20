package quotations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jag-erp/jag-erp/internal/masterdata/products"
	mdshared "github.com/jag-erp/jag-erp/internal/masterdata/shared"
	"github.com/jag-erp/jag-erp/internal/shared"
)

func TestCreateIntraStateQuotation(t *testing.T) {
	h := newHarness()

	q, err := h.svc.Create(userCtx(7), basinInput(1))
	require.NoError(t, err)

	assert.Equal(t, "JAG/QTN/2025/0001", q.QuotationNo)
	assert.Equal(t, QuotationStatusDraft, q.Status)
	assert.Nil(t, q.FinalizedAt)
	assert.Equal(t, int64(7), q.CreatedBy)
	require.Len(t, q.Items, 1)

	line := q.Items[0]
	assert.Equal(t, 20.0, line.DiscountAmount)
	assert.Equal(t, 180.0, line.TaxableAmount)
	assert.Equal(t, 32.4, line.GSTAmount)
	assert.Equal(t, 212.4, line.LineTotal)
	assert.Equal(t, "Wall Basin", line.Snapshot.ProductName)
	assert.Equal(t, 18.0, line.Snapshot.GSTPercentage)

	assert.Equal(t, 180.0, q.Subtotal)
	assert.Equal(t, 20.0, q.TotalDiscount)
	assert.Equal(t, 16.2, q.GSTBreakup.CGST)
	assert.Equal(t, 16.2, q.GSTBreakup.SGST)
	assert.Zero(t, q.GSTBreakup.IGST)
	assert.Equal(t, 212.0, q.GrandTotal)
	assert.Equal(t, -0.4, q.RoundOff)

	require.NotNil(t, q.TermsTemplateID)
	assert.Equal(t, int64(5), *q.TermsTemplateID, "default template applies when none is chosen")
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, ist), q.QuotationDate)

	require.Len(t, h.audit.logs, 1)
	assert.Equal(t, "quotation.create", h.audit.logs[0].Action)
	assert.Equal(t, 1, h.recorder.saved["draft"])
	assert.Empty(t, h.warmer.ids)
}

func TestCreateInterStateQuotation(t *testing.T) {
	h := newHarness()

	q, err := h.svc.Create(userCtx(7), basinInput(2))
	require.NoError(t, err)

	assert.Equal(t, 32.4, q.GSTBreakup.IGST)
	assert.Zero(t, q.GSTBreakup.CGST)
	assert.Zero(t, q.GSTBreakup.SGST)
	assert.Equal(t, 212.0, q.GrandTotal)
}

func TestCreateDefaultsRateToBasePrice(t *testing.T) {
	h := newHarness()
	in := basinInput(1)
	in.Items = []LineInput{{ProductID: 11, Quantity: 3}}

	q, err := h.svc.Create(userCtx(7), in)
	require.NoError(t, err)

	line := q.Items[0]
	assert.Equal(t, 250.0, line.Rate)
	assert.Equal(t, 750.0, line.TaxableAmount)
	assert.Equal(t, 90.0, line.GSTAmount)
	assert.Equal(t, "Set", line.Snapshot.UOM)
	require.NotNil(t, line.Snapshot.ProductImageURL)
}

func TestCreateAdditionalDiscount(t *testing.T) {
	h := newHarness()
	in := basinInput(1)
	in.AdditionalDiscount = 12.4

	q, err := h.svc.Create(userCtx(7), in)
	require.NoError(t, err)

	assert.Equal(t, 32.4, q.TotalDiscount)
	assert.Equal(t, 12.4, q.AdditionalDiscount)
	assert.Equal(t, 200.0, q.GrandTotal)
	assert.Zero(t, q.RoundOff)
}

func TestSequentialNumbersIncrementByOne(t *testing.T) {
	h := newHarness()
	ctx := userCtx(7)

	for i := 1; i <= 5; i++ {
		q, err := h.svc.Create(ctx, basinInput(1))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("JAG/QTN/2025/%04d", i), q.QuotationNo)
	}
}

func TestNumberingRestartsEachYear(t *testing.T) {
	h := newHarness()
	ctx := userCtx(7)

	_, err := h.svc.Create(ctx, basinInput(1))
	require.NoError(t, err)
	_, err = h.svc.Create(ctx, basinInput(1))
	require.NoError(t, err)

	// 00:10 on Jan 1 in India is still Dec 31 in UTC.
	h.clock = time.Date(2026, time.January, 1, 0, 10, 0, 0, ist)
	in := basinInput(1)
	in.ValidTill = "2026-01-31"
	q, err := h.svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "JAG/QTN/2026/0001", q.QuotationNo)
}

func TestCreateRetriesOnDuplicateNumber(t *testing.T) {
	h := newHarness()
	h.repo.quotations[99] = &Quotation{ID: 99, QuotationNo: "JAG/QTN/2025/0001", CreatedBy: 7, CreatedAt: h.clock}

	q, err := h.svc.Create(userCtx(7), basinInput(1))
	require.NoError(t, err)
	assert.Equal(t, "JAG/QTN/2025/0002", q.QuotationNo)
	assert.Equal(t, 1, h.recorder.conflicts)
	assert.Equal(t, 2, h.repo.txCalls, "each attempt runs in its own transaction")
}

func TestCreateSurfacesConflictAfterRetries(t *testing.T) {
	h := newHarness()
	h.repo.alwaysDuplicate = true

	_, err := h.svc.Create(userCtx(7), basinInput(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, defaultNumberAttempts, h.recorder.conflicts)
	assert.Empty(t, h.audit.logs)
}

func TestCreateStorageFailureIsNotRetried(t *testing.T) {
	h := newHarness()
	h.repo.insertErr = errors.New("connection reset")

	_, err := h.svc.Create(userCtx(7), basinInput(1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, int64(1), h.repo.seq[2025])
}

func TestCreateValidation(t *testing.T) {
	h := newHarness()
	ctx := userCtx(7)

	cases := map[string]struct {
		mutate func(*QuotationInput)
		target error
	}{
		"no items":              {func(in *QuotationInput) { in.Items = nil }, shared.ErrValidation},
		"zero quantity":         {func(in *QuotationInput) { in.Items[0].Quantity = 0 }, shared.ErrValidation},
		"discount above 100":    {func(in *QuotationInput) { in.Items[0].DiscountPercent = 120 }, shared.ErrValidation},
		"negative extra disc":   {func(in *QuotationInput) { in.AdditionalDiscount = -1 }, shared.ErrValidation},
		"missing customer":      {func(in *QuotationInput) { in.CustomerID = 0 }, shared.ErrValidation},
		"unknown customer":      {func(in *QuotationInput) { in.CustomerID = 404 }, shared.ErrNotFound},
		"other user's customer": {func(in *QuotationInput) { in.CustomerID = 3 }, shared.ErrNotFound},
		"unknown product":       {func(in *QuotationInput) { in.Items[0].ProductID = 404 }, shared.ErrValidation},
		"inactive product":      {func(in *QuotationInput) { in.Items[0].ProductID = 12 }, shared.ErrValidation},
		"foreign site":          {func(in *QuotationInput) { in.SiteID = ptr(int64(200)) }, shared.ErrValidation},
		"foreign line site":     {func(in *QuotationInput) { in.Items[0].SiteID = ptr(int64(200)) }, shared.ErrValidation},
		"unknown terms":         {func(in *QuotationInput) { in.TermsTemplateID = ptr(int64(404)) }, shared.ErrNotFound},
		"valid till before":     {func(in *QuotationInput) { in.QuotationDate = "2025-03-10"; in.ValidTill = "2025-03-01" }, shared.ErrValidation},
		"missing valid till":    {func(in *QuotationInput) { in.ValidTill = "" }, shared.ErrValidation},
		"unknown status":        {func(in *QuotationInput) { in.Status = "sent" }, shared.ErrValidation},
		"quantity below scale":  {func(in *QuotationInput) { in.Items[0].Quantity = 0.0004 }, shared.ErrValidation},
		"quantity too precise":  {func(in *QuotationInput) { in.Items[0].Quantity = 1.2345 }, shared.ErrValidation},
		"rate too precise":      {func(in *QuotationInput) { in.Items[0].Rate = ptr(10.015) }, shared.ErrValidation},
		"discount too precise":  {func(in *QuotationInput) { in.Items[0].DiscountPercent = 12.555 }, shared.ErrValidation},
		"extra disc precision":  {func(in *QuotationInput) { in.AdditionalDiscount = 0.125 }, shared.ErrValidation},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := basinInput(1)
			tc.mutate(&in)
			_, err := h.svc.Create(ctx, in)
			assert.ErrorIs(t, err, tc.target)
		})
	}
	assert.Empty(t, h.repo.quotations)
	assert.Empty(t, h.repo.seq, "no number is reserved for rejected input")
}

func TestCreateRequiresActor(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Create(context.Background(), basinInput(1))
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCreateAsFinal(t *testing.T) {
	h := newHarness()
	in := basinInput(1)
	in.Status = QuotationStatusFinal

	q, err := h.svc.Create(userCtx(7), in)
	require.NoError(t, err)
	assert.True(t, q.IsFinal())
	require.NotNil(t, q.FinalizedAt)
	assert.Equal(t, []int64{q.ID}, h.warmer.ids)
}

func TestUpdateRecomputesAndKeepsNumber(t *testing.T) {
	h := newHarness()
	ctx := userCtx(7)
	created, err := h.svc.Create(ctx, basinInput(1))
	require.NoError(t, err)

	in := basinInput(2)
	in.Items = append(in.Items, LineInput{ProductID: 11, Quantity: 1, Rate: ptr(250.0)})
	updated, err := h.svc.Update(ctx, created.ID, in)
	require.NoError(t, err)

	assert.Equal(t, created.QuotationNo, updated.QuotationNo)
	assert.Equal(t, int64(2), updated.CustomerID)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, 2, updated.Items[1].LineOrder)
	assert.Equal(t, 430.0, updated.Subtotal)
	assert.Equal(t, 62.4, updated.GSTBreakup.IGST)
	assert.Zero(t, updated.GSTBreakup.CGST)
	assert.Equal(t, 492.0, updated.GrandTotal)
	assert.Equal(t, int64(1), h.repo.seq[2025], "update never reserves a number")
}

func TestUpdateReusesStoredSnapshot(t *testing.T) {
	h := newHarness()
	ctx := userCtx(7)
	created, err := h.svc.Create(ctx, basinInput(1))
	require.NoError(t, err)

	h.products[10] = products.Product{ID: 10, ProductCode: "WB-101", ProductName: "Wall Basin Deluxe", GSTPercentage: 28, BasePrice: 140, UOM: products.UOMNos, Status: mdshared.StatusInactive}

	updated, err := h.svc.Update(ctx, created.ID, basinInput(1))
	require.NoError(t, err)
	line := updated.Items[0]
	assert.Equal(t, "Wall Basin", line.Snapshot.ProductName)
	assert.Equal(t, 18.0, line.Snapshot.GSTPercentage)
	assert.Equal(t, 32.4, line.GSTAmount)
}

func TestUpdateFinalQuotationRejected(t *testing.T) {
	h := newHarness()
	ctx := userCtx(7)
	created, err := h.svc.Create(ctx, basinInput(1))
	require.NoError(t, err)
	_, err = h.svc.Finalize(ctx, created.ID)
	require.NoError(t, err)

	_, err = h.svc.Update(ctx, created.ID, basinInput(1))
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestUpdateMissingQuotation(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Update(userCtx(7), 404, basinInput(1))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	h := newHarness()
	ctx := userCtx(7)
	created, err := h.svc.Create(ctx, basinInput(1))
	require.NoError(t, err)

	first, err := h.svc.Finalize(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, QuotationStatusFinal, first.Status)
	require.NotNil(t, first.FinalizedAt)

	h.clock = h.clock.Add(time.Hour)
	second, err := h.svc.Finalize(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, QuotationStatusFinal, second.Status)
	assert.Equal(t, first.GrandTotal, second.GrandTotal)
	assert.Equal(t, first.GSTBreakup, second.GSTBreakup)
	assert.Equal(t, first.RoundOff, second.RoundOff)
	assert.Equal(t, *first.FinalizedAt, *second.FinalizedAt)
	assert.Equal(t, []int64{created.ID}, h.warmer.ids)
}

func TestFinalizeMissingQuotation(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Finalize(userCtx(7), 404)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteOnlyDrafts(t *testing.T) {
	h := newHarness()
	ctx := userCtx(7)
	draft, err := h.svc.Create(ctx, basinInput(1))
	require.NoError(t, err)
	final, err := h.svc.Create(ctx, basinInput(1))
	require.NoError(t, err)
	_, err = h.svc.Finalize(ctx, final.ID)
	require.NoError(t, err)

	require.NoError(t, h.svc.Delete(ctx, draft.ID))
	_, err = h.svc.Get(ctx, draft.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = h.svc.Delete(ctx, final.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)

	next, err := h.svc.Create(ctx, basinInput(1))
	require.NoError(t, err)
	assert.Equal(t, "JAG/QTN/2025/0003", next.QuotationNo, "numbers are not reused after delete")
}

func TestRowScoping(t *testing.T) {
	h := newHarness()
	mine, err := h.svc.Create(userCtx(7), basinInput(1))
	require.NoError(t, err)

	other := userCtx(8)
	_, err = h.svc.Get(other, mine.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = h.svc.Update(other, mine.ID, basinInput(3))
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = h.svc.Finalize(other, mine.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, h.svc.Delete(other, mine.ID), shared.ErrNotFound)

	got, err := h.svc.Get(adminCtx(), mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.QuotationNo, got.QuotationNo)
}

func TestListScopesByActorAndYear(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Create(userCtx(7), basinInput(1))
	require.NoError(t, err)
	_, err = h.svc.Create(userCtx(8), basinInput(3))
	require.NoError(t, err)
	h.clock = time.Date(2026, time.February, 2, 9, 0, 0, 0, ist)
	in := basinInput(1)
	in.ValidTill = "2026-03-01"
	_, err = h.svc.Create(userCtx(7), in)
	require.NoError(t, err)

	items, total, err := h.svc.List(userCtx(7), ListFilter{CreatedBy: ptr(int64(8))})
	require.NoError(t, err)
	assert.Equal(t, 2, total, "caller supplied owner is ignored")
	assert.Equal(t, "JAG/QTN/2026/0001", items[0].QuotationNo)

	_, total, err = h.svc.List(adminCtx(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	items, total, err = h.svc.List(adminCtx(), ListFilter{Year: ptr(2025)})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, q := range items {
		assert.Contains(t, q.QuotationNo, "/2025/")
	}
}

func TestStats(t *testing.T) {
	h := newHarness()
	ctx := userCtx(7)
	a, err := h.svc.Create(ctx, basinInput(1))
	require.NoError(t, err)
	_, err = h.svc.Create(ctx, basinInput(2))
	require.NoError(t, err)
	_, err = h.svc.Finalize(ctx, a.ID)
	require.NoError(t, err)
	_, err = h.svc.Create(userCtx(8), basinInput(3))
	require.NoError(t, err)

	stats, err := h.svc.Stats(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, Stats{Year: 2025, Count: 2, Draft: 1, Final: 1, TotalValue: 424, FinalizedValue: 212}, stats)

	all, err := h.svc.Stats(adminCtx(), 2025)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Count)

	empty, err := h.svc.Stats(adminCtx(), 2024)
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
}

func TestGetByIDResolvesReferences(t *testing.T) {
	h := newHarness()
	ctx := userCtx(7)
	in := basinInput(1)
	in.SiteID = ptr(int64(100))
	in.Items = append(in.Items, LineInput{ProductID: 11, SiteID: ptr(int64(101)), Quantity: 1})
	created, err := h.svc.Create(ctx, in)
	require.NoError(t, err)

	delete(h.products, 11)

	detail, err := h.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Customer)
	assert.Equal(t, "Patil Builders", detail.Customer.CompanyName)
	require.NotNil(t, detail.Site)
	assert.Equal(t, "Baner Villa", detail.Site.SiteName)
	require.NotNil(t, detail.TermsTemplate)
	assert.Equal(t, "Standard", detail.TermsTemplate.TemplateName)

	require.Len(t, detail.Items, 2)
	require.NotNil(t, detail.Items[0].Product)
	assert.Nil(t, detail.Items[0].Site)
	assert.Nil(t, detail.Items[1].Product, "deleted product stays unresolved")
	assert.Equal(t, "Pillar Tap", detail.Items[1].Snapshot.ProductName)
	require.NotNil(t, detail.Items[1].Site)
	assert.Equal(t, "Wakad Tower", detail.Items[1].Site.SiteName)
}
