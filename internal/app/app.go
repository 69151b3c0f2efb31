package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/storefront-cart/internal/catalog"
	"github.com/utafrali/storefront-cart/internal/config"
	"github.com/utafrali/storefront-cart/internal/event"
	handler "github.com/utafrali/storefront-cart/internal/handler/http"
	"github.com/utafrali/storefront-cart/internal/notify"
	"github.com/utafrali/storefront-cart/internal/store"
	"github.com/utafrali/storefront-cart/pkg/health"
	"github.com/utafrali/storefront-cart/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront-cart/pkg/kafka"
	"github.com/utafrali/storefront-cart/pkg/tracing"
)

// ServiceName identifies the cart service in traces and logs.
const ServiceName = "cart-service"

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	closeStorage   func()
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// Store metrics are registered with the default Prometheus registry.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	return newApp(cfg, logger, prometheus.DefaultRegisterer)
}

func newApp(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Open the persisted cart.
	storage, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	// HTTP client with circuit breaker for the stock and catalog services.
	cbCfg := cfg.CircuitBreaker("cart-downstream")
	cbClient := httpclient.NewCircuitBreakerClient(httpclient.New(cfg.HTTPClient()), cbCfg, logger).
		WithFallback(catalog.CircuitOpenFallback("storefront backend"))
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeoutSecs),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)
	client := catalog.NewClient(cbClient, cfg.StockServiceURL, cfg.CatalogServiceURL, logger)

	recorder := notify.NewRecorder(cfg.NotificationHistory)
	notifier := notify.Multi{notify.NewLogNotifier(logger), recorder}

	boundary := cfg.Boundary()
	cartStore := store.NewCartStore(storage, client, client, notifier, logger, store.Options{
		Boundary: boundary,
		Metrics:  store.NewMetrics(reg),
		Tracer:   tracing.Tracer("github.com/utafrali/storefront-cart/internal/store"),
	})
	logger.Info("cart store configured",
		slog.String("stock_boundary", string(boundary)),
		slog.String("storage", cfg.Storage),
	)

	// Optional cart.updated events.
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(cfg.Kafka(), logger)
		publisher := event.NewPublisher(producer, cfg.StorageKey, logger)
		cartStore.Subscribe(publisher.OnCommit)
		logger.Info("kafka producer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Bool("async", cfg.KafkaAsync),
		)
	}

	cartStore.Initialize(ctx)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("storage", storage.Ping)

	// HTTP router.
	router := handler.NewRouter(cartStore, recorder, healthHandler, logger, handler.RouterConfig{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		closeStorage:   closeStorage,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Handler returns the HTTP handler of the service.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Kafka producer (flush events from drained requests)
// 3. Tracer
// 4. Storage connections
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.closeStorage()

	a.logger.Info("application shutdown complete")
	return nil
}
