package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/format"
	"ecommerce-dashboard/internal/middleware"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/server"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	pageTitle     = "E-commerce Dashboard"
)

// dashboardPage renders the page shell with the date inputs bounded by the
// loaded dataset.
func dashboardPage(dashboard *services.Dashboard, currency string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		props := templates.PageProps{Title: pageTitle, Currency: currency}
		if bounds, err := dashboard.Bounds(); err == nil {
			props.Bounds, props.HasData = bounds, true
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := templates.Dashboard(props).Render(ctx, w); err != nil {
			logger.Error("render dashboard", "error", err, "request_id", observability.GetRequestID(r.Context()))
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// newHandler wires the routes behind the middleware chain.
func newHandler(cfg *config.Config, dashboard *services.Dashboard, money *format.Money, logger *slog.Logger) http.Handler {
	srv := server.NewServer(dashboard, money, cfg.Dashboard.TopN, logger, &server.TemplateHandlers{
		Dashboard: dashboardPage(dashboard, money.Currency(), logger),
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Tracing(logger),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)
	return chain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"csv_file", cfg.Dataset.CSVFile,
		"currency", cfg.Dashboard.Currency,
		"locale", cfg.Dashboard.Locale,
	)

	money, err := format.NewMoney(cfg.Dashboard.Currency, cfg.Dashboard.Locale)
	if err != nil {
		logger.Error("invalid currency settings", "error", err)
		os.Exit(1)
	}

	dashboard, err := services.NewDashboard(services.Options{
		ViewCacheSize: cfg.Dashboard.ViewCacheSize,
		CacheDir:      cfg.Dataset.CacheDir,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to create dashboard", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.LoadTimeout)
	start := time.Now()
	err = dashboard.LoadFromCSV(ctx, cfg.Dataset.CSVFile)
	cancel()
	if err != nil {
		logger.Error("failed to load CSV data", "error", err)
		os.Exit(1)
	}
	stats := dashboard.Stats()
	logger.Info("dataset loaded", "records", stats.Records, "duration", time.Since(start))

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, dashboard, money, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		s := dashboard.Stats()
		logger.Info("dashboard stopping",
			"recomputes", s.Recomputes,
			"cache_hits", s.CacheHits,
			"cache_misses", s.CacheMisses,
		)
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
