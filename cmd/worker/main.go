package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jag-erp/jag-erp/internal/app"
	jobmetrics "github.com/jag-erp/jag-erp/internal/jobs"
	"github.com/jag-erp/jag-erp/internal/masterdata/products"
	"github.com/jag-erp/jag-erp/internal/masterdata/sites"
	"github.com/jag-erp/jag-erp/internal/masterdata/terms"
	"github.com/jag-erp/jag-erp/internal/platform/cache"
	"github.com/jag-erp/jag-erp/internal/platform/db"
	"github.com/jag-erp/jag-erp/internal/sales/customers"
	"github.com/jag-erp/jag-erp/internal/sales/quotations"
	"github.com/jag-erp/jag-erp/jobs"
	"github.com/jag-erp/jag-erp/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 4, ApplicationName: "jag-worker"})
	if err != nil {
		return err
	}
	defer pool.Close()

	redisOpts, err := cache.Options(cfg.RedisAddr)
	if err != nil {
		return err
	}
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	customerService := customers.NewService(customers.NewRepository(pool))
	quotationService := quotations.NewService(
		quotations.NewRepository(pool, cfg.QuotationPrefix),
		quotations.Dependencies{
			Customers: customerService,
			Products:  products.NewService(products.NewRepository(pool)),
			Sites:     sites.NewService(sites.NewRepository(pool), customerService),
			Terms:     terms.NewService(terms.NewRepository(pool)),
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

	renderer, err := report.NewQuotationRenderer(report.RendererConfig{
		Client: report.NewClient(cfg.GotenbergURL),
		Cache:  report.NewPDFCache(redisClient, cfg.PDFCacheTTL),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	pdfJob := jobs.NewQuotationPDFJob(quotationService, renderer, logger, jobmetrics.NewMetrics(nil))

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: jobs.RedisOpt(redisOpts),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskQuotationPDFWarmup, Handler: pdfJob.Handle},
		},
	})
	if err != nil {
		return err
	}
	logger.Info("worker started", slog.String("queue", jobs.QueueDefault))
	return worker.Run(ctx)
}
