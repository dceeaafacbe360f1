package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/backoffice-api/internal/config"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/repository/mongo"
	"github.com/jwalitptl/backoffice-api/internal/worker"
	"github.com/jwalitptl/backoffice-api/pkg/logger"
	"github.com/jwalitptl/backoffice-api/pkg/metrics"
)

// The worker runs audit retention outside the API process. Deployments that
// use it set audit.embedded_worker to false on the API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New(logger.Config{})
		l.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Console: cfg.Log.Console}).
		With().Str("service", "audit-worker").Logger()

	if cfg.Database.Driver != config.DriverMongo {
		log.Fatal().Str("driver", cfg.Database.Driver).Msg("the audit worker needs a shared mongo store")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(cfg.Monitoring.Namespace, registry)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	db, err := mongo.Connect(connectCtx, mongo.Config{
		URI:            cfg.Database.URI,
		Name:           cfg.Database.Name,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	cancelConnect()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	store := repository.NewStore(db, m)

	retention := worker.NewAuditRetentionWorker(store, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval, log)
	if !retention.Enabled() {
		log.Warn().Msg("audit.retention_days is 0, nothing to do")
	}

	srv := setupHealthCheck(cfg.Monitoring.WorkerAddr, store, registry, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutting down...")
		cancel()
	}()

	retention.Start(ctx)
	<-ctx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}
	if err := db.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to close database")
	}
}

func setupHealthCheck(addr string, store *repository.Store, registry *prometheus.Registry, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
	return srv
}
