package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sales-insights/internal/config"
	"sales-insights/internal/loader"
	"sales-insights/internal/middleware"
	"sales-insights/internal/models"
	"sales-insights/internal/observability"
	"sales-insights/internal/server"
	"sales-insights/internal/services"
	"sales-insights/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	loadTimeout   = 30 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

// dashboardPage renders the full page with every filter option selected.
func dashboardPage(d *services.Dashboard, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Cache-Control", cacheMaxAge)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Dashboard(d.Table().Source(), d.DefaultView(ctx)).Render(ctx, w); err != nil {
			logger.ErrorContext(ctx, "render dashboard", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// newHandler assembles routes and middleware. metrics may be nil.
func newHandler(cfg *config.Config, d *services.Dashboard, metrics *observability.Metrics, tracing *observability.Tracing, logger *slog.Logger) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardPage(d, logger),
	}
	if metrics != nil {
		templateHandlers.Metrics = metrics.Handler()
	}

	srv := server.NewServer(d, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	chain := []middleware.Middleware{
		middleware.Route(),
		middleware.Recovery(logger),
		middleware.RequestID(),
	}
	if metrics != nil {
		chain = append(chain, middleware.Metrics(metrics))
	}
	chain = append(chain,
		middleware.Tracing(tracing.Tracer()),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middleware.Chain(chain...)(srv)
}

func violations(q models.QualityReport) map[string]int {
	out := make(map[string]int, len(q.Issues))
	for _, issue := range q.Issues {
		out[string(issue.Code)] = issue.Rows
	}
	return out
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
		"source", cfg.Data.Source,
	)

	tracing, err := observability.NewTracing(cfg.Telemetry, nil, logger)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	var metrics *observability.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	loadCtx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	table, err := loader.NewCache(cfg.Data.Table, logger).Get(loadCtx, cfg.Data.Source)
	cancel()
	if err != nil {
		logger.Error("failed to load sales data", "error", err)
		os.Exit(1)
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithTracer(tracing.Tracer()),
	}
	if metrics != nil {
		opts = append(opts, services.WithRecorder(metrics))
	}
	dashboard := services.NewDashboard(table, opts...)

	quality := dashboard.Quality()
	if !quality.OK() {
		logger.Warn("data quality issues detected", "issues", quality.Messages())
	}
	if metrics != nil {
		metrics.SetDataset(table.Len(), violations(quality))
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, dashboard, metrics, tracing, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("flushing traces")
		return tracing.Shutdown(ctx)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
