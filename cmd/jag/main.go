package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jag-erp/jag-erp/cmd/jag/cli"
	"github.com/jag-erp/jag-erp/internal/app"
	"github.com/jag-erp/jag-erp/internal/auth"
	"github.com/jag-erp/jag-erp/internal/masterdata/products"
	"github.com/jag-erp/jag-erp/internal/masterdata/salespersons"
	"github.com/jag-erp/jag-erp/internal/masterdata/sites"
	"github.com/jag-erp/jag-erp/internal/masterdata/terms"
	"github.com/jag-erp/jag-erp/internal/observability"
	"github.com/jag-erp/jag-erp/internal/platform/cache"
	"github.com/jag-erp/jag-erp/internal/platform/db"
	"github.com/jag-erp/jag-erp/internal/sales/customers"
	"github.com/jag-erp/jag-erp/internal/sales/quotations"
	"github.com/jag-erp/jag-erp/internal/shared"
	"github.com/jag-erp/jag-erp/jobs"
	"github.com/jag-erp/jag-erp/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := cli.Migrate(os.Args[2:], cfg.PGDSN, os.Stdout, logger, nil); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns, ApplicationName: "jag-api"})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	redisOpts, err := cache.Options(cfg.RedisAddr)
	if err != nil {
		return err
	}
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Without Redis the PDF cache and warmup queue are disabled.
		logger.Warn("redis unavailable", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	tokens, err := auth.NewTokens(cfg.AuthSecret, "jag", cfg.AuthTokenTTL)
	if err != nil {
		return err
	}
	authService := auth.NewService(auth.NewRepository(pool), tokens, logger)

	auditLogger := shared.NewAuditLogger(pool)

	customerService := customers.NewService(customers.NewRepository(pool))
	productService := products.NewService(products.NewRepository(pool))
	siteService := sites.NewService(sites.NewRepository(pool), customerService)
	salespersonService := salespersons.NewService(salespersons.NewRepository(pool))
	termsService := terms.NewService(terms.NewRepository(pool))

	var warmer quotations.PDFWarmer
	var pdfCache *report.PDFCache
	var jobsHandler *jobs.Handler
	if redisClient != nil {
		asynqOpt := jobs.RedisOpt(redisOpts)
		jobClient := jobs.NewClient(asynqOpt)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		inspector := asynq.NewInspector(asynqOpt)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		warmer = jobClient
		pdfCache = report.NewPDFCache(redisClient, cfg.PDFCacheTTL)
		jobsHandler = jobs.NewHandler(inspector, logger)
	}

	quotationService := quotations.NewService(
		quotations.NewRepository(pool, cfg.QuotationPrefix),
		quotations.Dependencies{
			Customers: customerService,
			Products:  productService,
			Sites:     siteService,
			Terms:     termsService,
			Audit:     auditLogger,
			Warmer:    warmer,
			Recorder:  metrics,
			Logger:    logger,
		},
		quotations.Config{
			Prefix:          cfg.QuotationPrefix,
			SellerHomeState: cfg.SellerHomeState,
			Seller: quotations.Seller{
				Name:    cfg.SellerName,
				Address: cfg.SellerAddress,
				GSTIN:   cfg.SellerGSTIN,
				State:   cfg.SellerHomeState,
			},
			Location: loc,
		},
	)

	gotenberg := report.NewClient(cfg.GotenbergURL)
	renderer, err := report.NewQuotationRenderer(report.RendererConfig{
		Client:   gotenberg,
		Cache:    pdfCache,
		Recorder: metrics,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("init quotation renderer: %w", err)
	}

	health := map[string]app.HealthCheck{
		"postgres": pool.Ping,
	}
	if redisClient != nil {
		health["redis"] = pdfCache.Ping
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		Tokens:             tokens,
		Health:             health,
		AuthHandler:        auth.NewHandler(logger, authService),
		CustomerHandler:    customers.NewHandler(logger, customerService),
		ProductHandler:     products.NewHandler(logger, productService),
		SiteHandler:        sites.NewHandler(logger, siteService),
		SalespersonHandler: salespersons.NewHandler(logger, salespersonService),
		TermsHandler:       terms.NewHandler(logger, termsService),
		QuotationHandler:   quotations.NewHandler(logger, quotationService, renderer),
		ReportHandler:      report.NewHandler(gotenberg, logger),
		JobsHandler:        jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
