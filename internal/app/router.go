package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jag-erp/jag-erp/internal/auth"
	"github.com/jag-erp/jag-erp/internal/masterdata/products"
	"github.com/jag-erp/jag-erp/internal/masterdata/salespersons"
	"github.com/jag-erp/jag-erp/internal/masterdata/sites"
	"github.com/jag-erp/jag-erp/internal/masterdata/terms"
	"github.com/jag-erp/jag-erp/internal/observability"
	"github.com/jag-erp/jag-erp/internal/platform/httpx"
	"github.com/jag-erp/jag-erp/internal/sales/customers"
	"github.com/jag-erp/jag-erp/internal/sales/quotations"
	"github.com/jag-erp/jag-erp/jobs"
	"github.com/jag-erp/jag-erp/report"
)

// HealthCheck probes a dependency; a non-nil error marks the service degraded.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
	Tokens  *auth.Tokens
	Health  map[string]HealthCheck

	AuthHandler        *auth.Handler
	CustomerHandler    *customers.Handler
	ProductHandler     *products.Handler
	SiteHandler        *sites.Handler
	SalespersonHandler *salespersons.Handler
	TermsHandler       *terms.Handler
	QuotationHandler   *quotations.Handler
	ReportHandler      *report.Handler
	JobsHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router. Everything under /api except login
// requires a bearer token.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthHandler(params.Health))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.Tokens.RequireBearer)

			params.AuthHandler.MountProtected(r)
			if params.CustomerHandler != nil {
				params.CustomerHandler.MountRoutes(r)
			}
			if params.ProductHandler != nil {
				params.ProductHandler.MountRoutes(r, auth.RequireAdmin)
			}
			if params.SiteHandler != nil {
				params.SiteHandler.MountRoutes(r)
			}
			if params.SalespersonHandler != nil {
				params.SalespersonHandler.MountRoutes(r, auth.RequireAdmin)
			}
			if params.TermsHandler != nil {
				params.TermsHandler.MountRoutes(r, auth.RequireAdmin)
			}
			if params.QuotationHandler != nil {
				params.QuotationHandler.MountRoutes(r, PDFRateLimit(params.Config))
			}
			if params.ReportHandler != nil {
				r.With(auth.RequireAdmin).Route("/reports", params.ReportHandler.MountRoutes)
			}
			if params.JobsHandler != nil {
				r.With(auth.RequireAdmin).Route("/jobs", params.JobsHandler.MountRoutes)
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok"}
		components := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = err.Error()
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				continue
			}
			components[name] = "ok"
		}
		if len(components) > 0 {
			body["components"] = components
		}
		httpx.JSON(w, status, body)
	}
}
