// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/wordcoach/wordcoach/adapters/clock"
	wchttp "github.com/wordcoach/wordcoach/adapters/http"
	"github.com/wordcoach/wordcoach/adapters/idgen"
	"github.com/wordcoach/wordcoach/adapters/memory"
	"github.com/wordcoach/wordcoach/adapters/metrics"
	"github.com/wordcoach/wordcoach/adapters/payment"
	"github.com/wordcoach/wordcoach/adapters/sqlite"
	"github.com/wordcoach/wordcoach/app"
	"github.com/wordcoach/wordcoach/config"
	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/domain/plan"
	"github.com/wordcoach/wordcoach/ports"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	// Services
	Customers     *app.CustomerService
	Subscriptions *app.SubscriptionService
	Analytics     *app.AnalyticsService
	Changes       *app.PlanChangeService

	provider ports.PaymentProvider
}

// New creates and initializes the application: logger, database, stores,
// payment provider, services, HTTP server, in that order.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)
	logger.Info().
		Str("billing_mode", cfg.Billing.Mode).
		Msg("initializing wordcoach")

	a := &App{Logger: logger, Config: cfg}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	a.DB = db

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	} else {
		// Services still count; the scrape endpoint is just not exposed.
		a.Metrics = metrics.NewWithRegistry(noopRegisterer{})
	}

	clk := clock.Real{}

	inner, err := newProvider(cfg, clk)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init payment provider: %w", err)
	}
	provider := metrics.WrapProvider(inner, a.Metrics)
	a.provider = provider

	users := sqlite.NewUserStore(db)
	usageStore := sqlite.NewUsageStore(db)

	a.Customers = app.NewCustomerService(users, provider, a.Metrics, logger)
	a.Subscriptions = app.NewSubscriptionService(
		users, provider, a.Customers, a.Metrics, cfg.Billing.DefaultPriceID, logger)
	a.Analytics = app.NewAnalyticsService(a.Subscriptions, usageStore, clk, idgen.UUID{}, logger)
	a.Changes = app.NewPlanChangeService(
		users, provider, a.Subscriptions, a.Metrics, clk,
		cfg.Billing.PaymentMethodMaxAttempts, cfg.Billing.PaymentMethodRetryDelay, logger)

	handler := wchttp.NewHandler(wchttp.Deps{
		Subscriptions: a.Subscriptions,
		Analytics:     a.Analytics,
		Changes:       a.Changes,
		Metrics:       a.Metrics,
		Logger:        logger,
	})

	a.HTTPServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return a, nil
}

// newProvider builds the configured payment provider. Memory mode seeds the
// built-in tier catalog so local development works without any provider
// account.
func newProvider(cfg *config.Config, clk ports.Clock) (ports.PaymentProvider, error) {
	switch cfg.Billing.Mode {
	case "stripe":
		return payment.NewStripeProvider(payment.StripeConfig{
			SecretKey: cfg.Billing.StripeKey,
		})
	default:
		p := memory.NewProvider(clk)
		for _, tier := range plan.Builtin(cfg.Billing.DefaultPriceID) {
			productID := "prod_" + tier.ID
			p.SeedProduct(billing.Product{
				ID:        productID,
				Name:      tier.Name,
				WordLimit: tier.WordsPerMonth,
			})
			p.SeedPrice(billing.Price{
				ID:        tier.PriceID,
				ProductID: productID,
				Amount:    tier.PriceMonthly,
				Currency:  "usd",
				Interval:  billing.IntervalMonth,
			})
		}
		return p, nil
	}
}

// Run starts the HTTP server and blocks until interrupt or server error.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("http server shutdown error")
	}
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// noopRegisterer swallows metric registration when the endpoint is disabled.
type noopRegisterer struct{}

func (noopRegisterer) Register(prometheus.Collector) error  { return nil }
func (noopRegisterer) MustRegister(...prometheus.Collector) {}
func (noopRegisterer) Unregister(prometheus.Collector) bool { return true }
