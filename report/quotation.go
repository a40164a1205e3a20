package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jag-erp/jag-erp/internal/sales/quotations"
	"github.com/jag-erp/jag-erp/web"
)

// PDFClient exposes the subset of the report client used by the renderer.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Recorder receives cache and conversion measurements.
type Recorder interface {
	PDFCache(hit bool)
	PDFRendered(elapsed time.Duration, err error)
}

// QuotationRenderer turns quotation documents into PDFs. Final quotations are
// cached by CacheKey; drafts are always rendered fresh.
type QuotationRenderer struct {
	tpl      *template.Template
	client   PDFClient
	cache    *PDFCache
	recorder Recorder
	logger   *slog.Logger
}

// RendererConfig wires the renderer collaborators. Cache and Recorder are optional.
type RendererConfig struct {
	Client   PDFClient
	Cache    *PDFCache
	Recorder Recorder
	Logger   *slog.Logger
}

var indian = message.NewPrinter(language.MustParse("en-IN"))

func formatMoney(v float64) string {
	return indian.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

func formatQuantity(v float64) string {
	return indian.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// NewQuotationRenderer parses the quotation template.
func NewQuotationRenderer(cfg RendererConfig) (*QuotationRenderer, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("quotation renderer: pdf client required")
	}
	funcMap := template.FuncMap{
		"money":    formatMoney,
		"quantity": formatQuantity,
		"percent": func(v float64) string {
			return indian.Sprint(number.Decimal(v, number.MaxFractionDigits(2))) + "%"
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02-01-2006")
		},
		"datePtr": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return ""
			}
			return t.Format("02-01-2006")
		},
		"nonZero": func(v float64) bool { return v != 0 },
	}
	tpl, err := template.New("quotation.html").Funcs(funcMap).ParseFS(web.Templates, "templates/reports/quotation.html")
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &QuotationRenderer{tpl: tpl, client: cfg.Client, cache: cfg.Cache, recorder: cfg.Recorder, logger: logger}, nil
}

// RenderHTML executes the quotation template.
func (r *QuotationRenderer) RenderHTML(doc *quotations.Document) (string, error) {
	buf := &bytes.Buffer{}
	if err := r.tpl.Execute(buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderQuotation returns the PDF for doc, consulting the cache for final
// quotations. Cache failures are logged and never fail the render.
func (r *QuotationRenderer) RenderQuotation(ctx context.Context, doc *quotations.Document) ([]byte, error) {
	if r == nil || r.tpl == nil || r.client == nil {
		return nil, fmt.Errorf("quotation renderer not initialised")
	}
	key := doc.CacheKey()
	logger := r.logger.With(slog.String("quotation_no", doc.QuotationNo))
	if doc.Final {
		pdf, hit, err := r.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("pdf cache read", slog.Any("error", err))
		}
		if r.recorder != nil {
			r.recorder.PDFCache(hit)
		}
		if hit {
			return pdf, nil
		}
	}

	html, err := r.RenderHTML(doc)
	if err != nil {
		return nil, fmt.Errorf("execute quotation template: %w", err)
	}
	start := time.Now()
	pdf, err := r.client.RenderHTML(ctx, html)
	if r.recorder != nil {
		r.recorder.PDFRendered(time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	if doc.Final {
		if err := r.cache.Set(ctx, key, pdf); err != nil {
			logger.Warn("pdf cache write", slog.Any("error", err))
		}
	}
	return pdf, nil
}
