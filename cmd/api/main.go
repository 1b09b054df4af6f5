// @title Event Participation API
// @version 1.0
// @description Capacity-bounded event participation with waitlist promotion.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"eventparticipation/config"
	_ "eventparticipation/docs"
	"eventparticipation/internal/adapters/auth"
	"eventparticipation/internal/adapters/cache"
	"eventparticipation/internal/adapters/email"
	"eventparticipation/internal/adapters/i18n"
	"eventparticipation/internal/adapters/messaging"
	"eventparticipation/internal/delivery/events"
	deliveryhttp "eventparticipation/internal/delivery/http"
	"eventparticipation/internal/delivery/http/controllers"
	"eventparticipation/internal/domain"
	"eventparticipation/internal/metrics"
	"eventparticipation/internal/repository/memory"
	"eventparticipation/internal/repository/postgres"
	"eventparticipation/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// storage groups the persistence ports, backed by Postgres or process memory.
type storage struct {
	catalog       domain.EventCatalog
	participation domain.ParticipationRepository
	sinks         services.MultiSink
	ledger        domain.NotificationLedger
	directory     domain.RecipientDirectory
	close         func() error
}

func openStorage(cfg *config.Config, logger *slog.Logger) (*storage, error) {
	if cfg.DBUrl == "" {
		logger.Warn("DATABASE_URL not set; using in-memory storage")
		catalog, err := seedCatalog(cfg.SeedEventsFile, logger)
		if err != nil {
			return nil, err
		}
		return &storage{
			catalog:       catalog,
			participation: memory.NewParticipationStore(),
			ledger:        memory.NewNotificationLedger(),
			close:         func() error { return nil },
		}, nil
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DBUrl, logger); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &storage{
		catalog:       postgres.NewEventRepository(db),
		participation: postgres.NewParticipationRepository(db),
		sinks:         services.MultiSink{postgres.NewNotificationRepository(db)},
		ledger:        postgres.NewNotificationClaimRepository(db),
		directory:     postgres.NewUserRepository(db),
		close:         db.Close,
	}, nil
}

func seedCatalog(path string, logger *slog.Logger) (*memory.EventCatalog, error) {
	if path == "" {
		logger.Warn("SEED_EVENTS_FILE not set; in-memory catalog is empty")
		return memory.NewEventCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed events: %w", err)
	}
	defer f.Close()
	catalog, err := memory.LoadEventCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("load seed events: %w", err)
	}
	logger.Info("seeded in-memory catalog", "file", path)
	return catalog, nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.close() }()

	var redisClient *redis.Client
	var statsCache domain.StatisticsCache
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = redisClient.Close() }()
		statsCache = cache.NewStatisticsCache(redisClient)
	}

	var busClient redis.UniversalClient
	if redisClient != nil {
		busClient = redisClient
	}
	bus, err := messaging.NewBus(messaging.Config{
		Backend:       cfg.BusBackend,
		ConsumerGroup: cfg.BusConsumerGroup,
		MaxRetries:    cfg.BusMaxRetries,
	}, busClient, logger)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheus(registry, "eventparticipation")

	sinks := append(store.sinks, messaging.NewNotificationPublisher(bus.Publisher))
	if store.directory != nil {
		mailer, err := email.NewMailer(email.MailerConfig{
			Provider:    cfg.EmailProvider,
			FromAddress: cfg.EmailFromAddress,
			FromName:    cfg.EmailFromName,
			SES: email.SESConfig{
				Region:          cfg.AWSRegion,
				AccessKeyID:     cfg.AWSAccessKeyID,
				SecretAccessKey: cfg.AWSSecretAccessKey,
			},
		}, logger)
		if err != nil {
			return err
		}
		sinks = append(sinks, email.NewSink(store.directory, email.NewTemplateRenderer(), mailer, logger))
	}

	translator := i18n.NewTranslator(cfg.DefaultLocale, logger)
	dispatcher := services.NewNotificationDispatcher(sinks, translator, cfg.DefaultLocale, cfg.NotifyQueueSize, cfg.NotifyWorkers, recorder, logger)

	participationSvc := services.NewParticipationService(store.catalog, store.participation, dispatcher, store.ledger, statsCache, recorder, logger, cfg.RequestTimeout)
	statisticsSvc := services.NewStatisticsService(store.catalog, store.participation, statsCache, cfg.StatsCacheTTL, logger, cfg.RequestTimeout)

	eventsRouter, err := bus.NewRouter()
	if err != nil {
		return err
	}
	cancelled := &events.EventCancelledHandler{Logger: logger, Service: participationSvc}
	cancelled.Register(eventsRouter, bus.Subscriber, messaging.TopicEventCancelled)

	handler := deliveryhttp.NewRouter(deliveryhttp.RouterConfig{
		Participation:  controllers.NewParticipationController(logger, participationSvc),
		Statistics:     controllers.NewStatisticsController(logger, statisticsSvc),
		Verifier:       auth.NewJWTVerifier(cfg.JWTSecret),
		Gatherer:       registry,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		if err := eventsRouter.Run(ctx); err != nil {
			errCh <- fmt.Errorf("events router: %w", err)
		}
	}()
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	if err := eventsRouter.Close(); err != nil {
		logger.Error("events router close", "err", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("notification queue not drained", "err", err)
	}
	return runErr
}
