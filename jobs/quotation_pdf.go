package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/jag-erp/jag-erp/internal/jobs"
	"github.com/jag-erp/jag-erp/internal/sales/quotations"
	"github.com/jag-erp/jag-erp/internal/shared"
)

// DocumentSource loads the printable view of a quotation.
type DocumentSource interface {
	Document(ctx context.Context, id int64) (*quotations.Document, error)
}

// DocumentRenderer renders and caches a quotation PDF.
type DocumentRenderer interface {
	RenderQuotation(ctx context.Context, doc *quotations.Document) ([]byte, error)
}

// workerActor is the identity the worker uses to read quotations.
var workerActor = shared.Actor{Email: "worker@jag.internal", Role: shared.RoleAdmin}

// QuotationPDFJob pre-renders finalized quotations so the first download hits the cache.
type QuotationPDFJob struct {
	Documents DocumentSource
	Renderer  DocumentRenderer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewQuotationPDFJob wires dependencies for the warmup handler.
func NewQuotationPDFJob(documents DocumentSource, renderer DocumentRenderer, logger *slog.Logger, metrics *jobmetrics.Metrics) *QuotationPDFJob {
	return &QuotationPDFJob{Documents: documents, Renderer: renderer, Logger: logger, Metrics: metrics}
}

// Handle processes TaskQuotationPDFWarmup tasks.
func (j *QuotationPDFJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Documents == nil || j.Renderer == nil {
		return errors.New("quotation pdf warmup: handler not configured")
	}
	var payload QuotationPDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.QuotationID <= 0 {
		return fmt.Errorf("quotation pdf warmup: bad payload: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskQuotationPDFWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int64("quotation_id", payload.QuotationID))
	ctx = shared.ContextWithActor(ctx, workerActor)

	doc, err := j.Documents.Document(ctx, payload.QuotationID)
	if errors.Is(err, shared.ErrNotFound) {
		logger.Info("quotation gone, skipping warmup")
		return nil
	}
	if err != nil {
		return err
	}
	if !doc.Final {
		logger.Info("quotation is a draft, skipping warmup")
		return nil
	}
	pdf, err := j.Renderer.RenderQuotation(ctx, doc)
	if err != nil {
		logger.Warn("warm quotation pdf", slog.Any("error", err))
		return err
	}
	j.Metrics.ObservePDF(len(pdf))
	logger.Info("quotation pdf warmed", slog.String("quotation_no", doc.QuotationNo), slog.Int("bytes", len(pdf)))
	return nil
}

func (j *QuotationPDFJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
