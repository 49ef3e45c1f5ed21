package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "crmdash/api/v1"
	"crmdash/database"
	analyticsapp "crmdash/internal/analytics/application"
	"crmdash/internal/auth"
	"crmdash/internal/config"
	customersinfra "crmdash/internal/customers/infrastructure"
	exportapp "crmdash/internal/export/application"
	forecastsapp "crmdash/internal/forecasts/application"
	forecastsinfra "crmdash/internal/forecasts/infrastructure"
	issuesinfra "crmdash/internal/issues/infrastructure"
	"crmdash/internal/jobs"
	"crmdash/internal/logger"
	ordersinfra "crmdash/internal/orders/infrastructure"
	sharedinfra "crmdash/internal/shared/infrastructure"
	"crmdash/internal/store"
)

func main() {
	if err := run(); err != nil {
		logger.Default().WithError(err).Fatal("server stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel)
	rlog := logger.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	a := newApp(cfg, client)
	defer a.Close()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rlog.Infof("listening on %s (store=%s, auth=%s)", server.Addr, cfg.StoreType, cfg.AuthMode)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	rlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore sélectionne le store configuré. Le mock n'est jamais un repli en cas d'erreur.
func openStore(ctx context.Context, cfg *config.Config) (store.Client, error) {
	switch cfg.StoreType {
	case config.StorePostgres:
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store.WithRetry(store.NewSQLClient(db), cfg.StoreMaxRetries), nil
	case config.StoreREST:
		return store.WithRetry(store.NewRESTClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey), cfg.StoreMaxRetries), nil
	case config.StoreMock:
		m := store.NewMemoryClient()
		if err := m.LoadDir(cfg.MockDataPath); err != nil {
			return nil, fmt.Errorf("load mock data: %w", err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown STORE_TYPE %q", cfg.StoreType)
}

// app regroupe le handler HTTP et les ressources à libérer à l'arrêt
type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			logger.Default().WithError(err).Warn("close failed")
		}
	}
}

// newApp assemble repositories, services et routeur autour de client
func newApp(cfg *config.Config, client store.Client) *app {
	a := &app{}

	forecastRepo := forecastsinfra.NewForecastRepository(client, cfg.FetchRowCap)
	readers := analyticsapp.Readers{
		Orders:    ordersinfra.NewOrderQueryRepository(client, cfg.FetchRowCap),
		Customers: customersinfra.NewCustomerQueryRepository(client, cfg.FetchRowCap),
		Forecasts: forecastRepo,
		Issues:    issuesinfra.NewIssueQueryRepository(client, cfg.FetchRowCap),
	}

	opts := []analyticsapp.Option{analyticsapp.WithWorkers(cfg.Workers)}
	if cfg.ReportCacheTTL > 0 {
		reportCache := sharedinfra.NewShardedCache[any](16, time.Minute)
		a.closers = append(a.closers, func() error { reportCache.Close(); return nil })
		opts = append(opts, analyticsapp.WithCache(reportCache, cfg.ReportCacheTTL))
	}
	reports := analyticsapp.NewReportService(readers, client, cfg.FetchRowCap, opts...)

	var publisher forecastsinfra.Publisher = forecastsinfra.NoopPublisher{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher = forecastsinfra.NewKafkaPublisher(brokers, cfg.KafkaTopic)
	}
	a.closers = append(a.closers, publisher.Close)

	var verifier auth.Verifier
	if cfg.AuthMode == config.AuthMock {
		verifier = auth.NewMockVerifier()
	} else {
		tokenCache := sharedinfra.NewShardedCache[*auth.Identity](16, time.Minute)
		a.closers = append(a.closers, func() error { tokenCache.Close(); return nil })
		verifier = auth.NewJWTVerifier(cfg.SupabaseJWTSecret, tokenCache)
	}

	if !cfg.WorkflowConfigured() {
		logger.Default().Warn("GITHUB_TOKEN/GITHUB_OWNER/GITHUB_REPO not set: forecast job dispatch will answer 500")
	}
	dispatcher := jobs.NewDispatcher(jobs.WorkflowConfig{
		Token:    cfg.GitHubToken,
		Owner:    cfg.GitHubOwner,
		Repo:     cfg.GitHubRepo,
		Workflow: cfg.GitHubWorkflow,
		Ref:      cfg.GitHubRef,
	}, nil)

	handlers := v1.NewHandlers(
		reports,
		forecastsapp.NewForecastService(forecastRepo, publisher),
		exportapp.NewExportService(reports),
		dispatcher,
		jobs.NewRunner(cfg.ForecastRunnerURL, nil),
	)
	a.handler = v1.NewRouter(handlers, verifier, cfg.RequestTimeout)
	return a
}
