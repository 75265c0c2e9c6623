package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/fairwaylab/swingcoach/internal/cache"
	"github.com/fairwaylab/swingcoach/internal/config"
	"github.com/fairwaylab/swingcoach/internal/entitlement"
	"github.com/fairwaylab/swingcoach/internal/grpc/client"
	"github.com/fairwaylab/swingcoach/internal/http/handlers/entitlement/access"
	"github.com/fairwaylab/swingcoach/internal/http/middlewarectx"
	"github.com/fairwaylab/swingcoach/internal/lib/jwt"
	"github.com/fairwaylab/swingcoach/internal/lib/sl"
	"github.com/fairwaylab/swingcoach/internal/metrics"
	"github.com/fairwaylab/swingcoach/internal/migrations"
	"github.com/fairwaylab/swingcoach/internal/plans"
	"github.com/fairwaylab/swingcoach/internal/rabbitmq"
	"github.com/fairwaylab/swingcoach/internal/ratelimit"
	"github.com/fairwaylab/swingcoach/internal/services/admin"
	"github.com/fairwaylab/swingcoach/internal/services/auth"
	"github.com/fairwaylab/swingcoach/internal/services/payment"
	"github.com/fairwaylab/swingcoach/internal/services/subscription"
	"github.com/fairwaylab/swingcoach/internal/storage/repository"
)

type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *repository.Storage
	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.api.New"

	secret, insecure, err := cfg.JWTSecret()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if insecure {
		logger.Warn("JWT secret is not set, using the insecure development key")
	}
	table, err := cfg.EntitlementTable()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dsn, err := cfg.StorageDSN()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db, err := repository.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	limiter, err := app.newLimiter(ctx, cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	catalog := plans.Default()
	resolver := entitlement.NewResolver(table, catalog)
	authService := auth.NewService(db, jwt.NewJWTMaker(secret, cfg.JWT.TokenTTL), m, logger)
	activator := subscription.New(db, catalog, logger)
	ledger := payment.New(db, activator, catalog, app.newPublisher(cfg), m, logger)
	gateway := admin.New(ledger, db, logger)

	var verifier middlewarectx.Verifier = authService
	var authorizer access.Authorizer
	if cfg.GRPCAuthAddress != "" {
		tokenClient, err := client.NewTokenClient(cfg.GRPCAuthAddress)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, tokenClient.Close)
		verifier = tokenClient
		authorizer = tokenClient
		logger.Info("verifying tokens through the token service", slog.String("address", cfg.GRPCAuthAddress))
	}

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Log:          logger,
		Auth:         authService,
		Verifier:     verifier,
		Ledger:       ledger,
		Subscription: activator,
		Admin:        gateway,
		Resolver:     resolver,
		Authorizer:   authorizer,
		Catalog:      catalog,
		Limiter:      limiter,
		Metrics:      m,
		MetricsPage:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Health:       db,
	})

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return app, nil
}

// newLimiter выбирает общий лимитер в redis или локальный в памяти.
func (a *App) newLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, error) {
	if !cfg.Redis.Enabled() {
		a.logger.Info("redis is not configured, using in-process rate limiter")
		return ratelimit.NewLocal(cfg.RateLimit.Requests, cfg.RateLimit.Window), nil
	}
	c, err := cache.InitServer(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, c.Close)
	return ratelimit.NewWindow(c, cfg.RateLimit.Requests, cfg.RateLimit.Window), nil
}

// newPublisher подключает брокер событий. Без брокера журнал работает без публикации.
func (a *App) newPublisher(cfg *config.Config) payment.Publisher {
	if !cfg.RabbitMQ.Enabled() {
		a.logger.Info("rabbitmq is not configured, payment events are not published")
		return nil
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		a.logger.Error("failed to connect to rabbitmq, payment events are not published", sl.Err(err))
		return nil
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.PaymentQueues(cfg.RabbitMQ.Queue))
	if err != nil {
		a.logger.Error("failed to set up rabbitmq channel", sl.Err(err))
		_ = conn.Close()
		return nil
	}
	a.closers = append(a.closers, ch.Close, conn.Close)
	go a.watchConnection(conn)
	return rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange)
}

func (a *App) watchConnection(conn *amqp.Connection) {
	if err := <-conn.NotifyClose(make(chan *amqp.Error, 1)); err != nil {
		a.logger.Error("rabbitmq connection closed", slog.String("reason", err.Reason))
	}
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to release resource", sl.Err(err))
		}
	}
	a.closers = nil
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close storage", sl.Err(err))
	}
}
