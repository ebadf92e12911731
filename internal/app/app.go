// Package app wires the commerce hub API server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/commerce-hub/db"
	"github.com/xenking/commerce-hub/internal/domain/checkout"
	"github.com/xenking/commerce-hub/internal/domain/product"
	"github.com/xenking/commerce-hub/internal/handler"
	"github.com/xenking/commerce-hub/internal/session"
	"github.com/xenking/commerce-hub/internal/storage/memory"
	"github.com/xenking/commerce-hub/internal/storage/postgres"
	"github.com/xenking/commerce-hub/pkg/health"
	"github.com/xenking/commerce-hub/pkg/httpmiddleware"
)

const serviceName = "commerce-hub"

// catalog is the product.Repository the server reads from, plus a cheap
// reachability probe for readiness.
type catalog interface {
	product.Repository
	health.Pinger
}

// memoryCatalog adapts the embedded catalog to the catalog interface.
type memoryCatalog struct{ *memory.Catalog }

func (memoryCatalog) Ping(context.Context) error { return nil }

// openCatalog serves the Postgres catalog when a database is configured and
// the embedded seed catalog otherwise. The returned func releases resources.
func openCatalog(ctx context.Context, lg *zap.Logger, cfg *Config) (catalog, func(), error) {
	if cfg.DatabaseURL == "" {
		c, err := memory.LoadCatalog(db.Products)
		if err != nil {
			return nil, nil, errors.Wrap(err, "load embedded catalog")
		}
		lg.Info("Serving embedded catalog")
		return memoryCatalog{c}, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "run migrations")
	}
	lg.Info("Serving Postgres catalog")
	return postgres.NewCatalogRepository(pool), pool.Close, nil
}

// Run creates all dependencies, starts the HTTP server and the background
// workers, and handles graceful shutdown.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	products, closeCatalog, err := openCatalog(ctx, lg, cfg)
	if err != nil {
		return err
	}
	defer closeCatalog()

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("catalog", 5*time.Second, health.PingCheck(products))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	svc, err := checkout.NewService(products, m.MeterProvider().Meter(serviceName))
	if err != nil {
		return errors.Wrap(err, "create checkout service")
	}
	sessions := session.NewStore(cfg.Session.TTL)
	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})
	h := handler.New(handler.Config{ImageBaseURL: cfg.ImageBaseURL}, products, svc, sessions)

	router := chi.NewRouter()
	router.Use(
		httpmiddleware.LogRequests(handler.RoutePattern),
		httpmiddleware.Labeler(handler.RoutePattern),
	)
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)
	router.Mount("/api", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Instrument(serviceName, m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORS.Origins,
				AllowHeaders: []string{"Content-Type", httpmiddleware.SessionHeader, httpmiddleware.RequestIDHeader},
				MaxAge:       86400,
			}),
			limiter.Middleware(),
		),
	}

	workers, wctx := errgroup.WithContext(ctx)
	workers.Go(func() error { return healthSvc.Run(wctx, 10*time.Second) })
	workers.Go(func() error { return sessions.Run(wctx, cfg.Session.SweepInterval) })
	workers.Go(func() error { return limiter.Run(wctx) })
	workers.Go(func() error {
		<-wctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()
		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		return server.Shutdown(shutdownCtx)
	})
	workers.Go(func() error {
		healthSvc.SetReady(true)
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return workers.Wait()
}
