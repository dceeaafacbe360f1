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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/backoffice-api/internal/cache"
	"github.com/jwalitptl/backoffice-api/internal/config"
	"github.com/jwalitptl/backoffice-api/internal/email"
	analyticsHandler "github.com/jwalitptl/backoffice-api/internal/handler/analytics"
	auditHandler "github.com/jwalitptl/backoffice-api/internal/handler/audit"
	chatHandler "github.com/jwalitptl/backoffice-api/internal/handler/chat"
	complianceHandler "github.com/jwalitptl/backoffice-api/internal/handler/compliance"
	crmHandler "github.com/jwalitptl/backoffice-api/internal/handler/crm"
	"github.com/jwalitptl/backoffice-api/internal/handler/health"
	hrHandler "github.com/jwalitptl/backoffice-api/internal/handler/hr"
	legalHandler "github.com/jwalitptl/backoffice-api/internal/handler/legal"
	marketingHandler "github.com/jwalitptl/backoffice-api/internal/handler/marketing"
	promHandler "github.com/jwalitptl/backoffice-api/internal/handler/prometheus"
	settingsHandler "github.com/jwalitptl/backoffice-api/internal/handler/settings"
	userHandler "github.com/jwalitptl/backoffice-api/internal/handler/user"
	"github.com/jwalitptl/backoffice-api/internal/middleware"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/repository/memory"
	"github.com/jwalitptl/backoffice-api/internal/repository/mongo"
	"github.com/jwalitptl/backoffice-api/internal/router"
	"github.com/jwalitptl/backoffice-api/internal/service/analytics"
	"github.com/jwalitptl/backoffice-api/internal/service/audit"
	"github.com/jwalitptl/backoffice-api/internal/service/chat"
	"github.com/jwalitptl/backoffice-api/internal/service/compliance"
	"github.com/jwalitptl/backoffice-api/internal/service/crm"
	"github.com/jwalitptl/backoffice-api/internal/service/hr"
	"github.com/jwalitptl/backoffice-api/internal/service/legal"
	"github.com/jwalitptl/backoffice-api/internal/service/marketing"
	"github.com/jwalitptl/backoffice-api/internal/service/settings"
	"github.com/jwalitptl/backoffice-api/internal/service/user"
	"github.com/jwalitptl/backoffice-api/internal/worker"
	"github.com/jwalitptl/backoffice-api/pkg/httputil"
	"github.com/jwalitptl/backoffice-api/pkg/logger"
	"github.com/jwalitptl/backoffice-api/pkg/messaging"
	"github.com/jwalitptl/backoffice-api/pkg/messaging/redis"
	"github.com/jwalitptl/backoffice-api/pkg/metrics"
	"github.com/jwalitptl/backoffice-api/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		l := logger.New(logger.Config{})
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Console: cfg.Log.Console})
	validator.Register()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(cfg.Monitoring.Namespace, registry)

	// Initialize database
	db, err := openDatabase(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()
	store := repository.NewStore(db, m)

	// Event publisher
	publisher := newPublisher(cfg, m, log)
	defer publisher.Close()

	mailer := email.New(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	aggregates := cache.New(cfg.API.CacheTTL, m)

	// Initialize services
	auditSvc := audit.NewService(store)
	auditor := audit.NewLogger(auditSvc)
	analyticsSvc := analytics.NewService(store, aggregates)
	userSvc := user.NewService(store, auditor)
	crmSvc := crm.NewService(store, auditor)
	settingsSvc := settings.NewService(store, publisher, aggregates, auditor)
	complianceSvc := compliance.NewService(store, publisher, auditor)
	hrSvc := hr.NewService(store, mailer, publisher, auditor)
	legalSvc := legal.NewService(store, mailer, publisher, auditor)
	chatSvc := chat.NewService(store)
	marketingSvc := marketing.NewService(store, aggregates)

	// Initialize middleware and handlers
	responder := httputil.NewResponder(cfg.API.ExposeErrorDetails)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, cfg.JWT.Issuer, responder)

	r := router.NewRouter(authMiddleware, responder, m, router.Handlers{
		Health:     health.NewHandler(store),
		Audit:      auditHandler.NewHandler(auditSvc, responder),
		Analytics:  analyticsHandler.NewHandler(analyticsSvc, responder),
		Users:      userHandler.NewHandler(userSvc, responder),
		CRM:        crmHandler.NewHandler(crmSvc, responder),
		Settings:   settingsHandler.NewHandler(settingsSvc, responder),
		Compliance: complianceHandler.NewHandler(complianceSvc, responder),
		HR:         hrHandler.NewHandler(hrSvc, responder),
		Legal:      legalHandler.NewHandler(legalSvc, responder),
		Chat:       chatHandler.NewHandler(chatSvc, responder),
		Marketing:  marketingHandler.NewHandler(marketingSvc, responder),
		Metrics:    promHandler.New(registry).Handler(),
	}, router.Config{
		Mode:           cfg.Server.Mode,
		CORS:           middleware.DefaultCORSConfig(cfg.Security.AllowedOrigins),
		Security:       middleware.DefaultSecurityConfig(),
		SizeLimit:      middleware.DefaultSizeLimitConfig(),
		RequestTimeout: cfg.Server.RequestTimeout,
		MetricsPath:    cfg.Monitoring.MetricsPath,
	})
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.Audit.EmbeddedWorker {
		retention := worker.NewAuditRetentionWorker(store, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval, log)
		go retention.Start(ctx)
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Str("driver", cfg.Database.Driver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func openDatabase(cfg *config.Config, log zerolog.Logger) (repository.Database, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn().Msg("using the in-memory store, data is lost on exit")
		return memory.New(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancel()
	db, err := mongo.Connect(ctx, mongo.Config{
		URI:            cfg.Database.URI,
		Name:           cfg.Database.Name,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}
	return db, nil
}

func newPublisher(cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) messaging.Publisher {
	if cfg.Redis.URL == "" {
		log.Info().Msg("no redis url configured, domain events are discarded")
		return messaging.Nop{}
	}
	p, err := redis.NewPublisher(redis.Config{
		URL:          cfg.Redis.URL,
		Channel:      cfg.Redis.Channel,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, m, log)
	if err != nil {
		log.Error().Err(err).Msg("event broker unavailable, domain events are discarded")
		return messaging.Nop{}
	}
	return p
}
