package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"karenta/internal/api"
	"karenta/internal/config"
	"karenta/internal/database"
	"karenta/internal/domain"
	"karenta/internal/events"
	"karenta/internal/export"
	"karenta/internal/google"
	"karenta/internal/logging"
	"karenta/internal/mail"
	"karenta/internal/metrics"
	"karenta/internal/models"
	"karenta/internal/notify"
	"karenta/internal/repository"
	"karenta/internal/service"
	"karenta/internal/storage"
	"karenta/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	vehicles, err := loadVehicleCatalog(cfg, &logger)
	if err != nil {
		return err
	}
	pickupPoints, err := loadPickupPoints(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	if err := db.SeedVehicles(context.Background(), vehicles); err != nil {
		logger.Error().Err(err).Msg("seed vehicles")
		return err
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewEventBus()
	subscribeBookingEvents(bus, &logger)
	mailer := initMailer(cfg, &logger)
	sheets := initGoogleSheets(cfg, &logger)
	notifier := initNotifier(cfg, &logger)

	syncWorker := worker.NewSyncQueueWorker(db, mailer, sheets, redisClient, worker.RetryPolicy{}, &logger)
	go syncWorker.Start(ctx)

	reminders := worker.NewReminderScheduler(db, syncWorker, cfg.Booking.ReminderTime, &logger)
	go reminders.Start(ctx)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	sessionTTL := time.Duration(cfg.Booking.SessionTTLSeconds) * time.Second
	if sessionTTL <= 0 {
		sessionTTL = models.DefaultSessionTTL * time.Second
	}
	sessionRepo := buildSessionRepo(redisClient, sessionTTL, &logger)

	sessions := service.NewSessionService(
		sessionRepo,
		cfg.Booking.RateLimitRequests,
		time.Duration(cfg.Booking.RateLimitWindow)*time.Second,
		&logger,
	)
	bookings := service.NewBookingService(db, sessionRepo, bus, syncWorker, notifier, cfg.Booking.MaxAdvanceDays, &logger)
	declines := service.NewDeclineService(db, bus, syncWorker, notifier, &logger)
	vehicleSvc := service.NewVehicleService(db, pickupPoints, &logger)
	customers := service.NewCustomerService(db, &logger)

	proofs, err := storage.NewProofStore(cfg.Storage.ProofDir, cfg.Storage.PublicBaseURL, models.MaxProofSizeBytes, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("init proof storage")
		return err
	}
	exporter := export.NewExporter(db, cfg.Exports.Path, &logger)

	httpServer := api.NewServer(cfg.API, api.Deps{
		Sessions:  sessions,
		Bookings:  bookings,
		Declines:  declines,
		Vehicles:  vehicleSvc,
		Customers: customers,
		Proofs:    proofs,
		Exporter:  exporter,
	}, &logger)

	startMetrics(ctx, cfg, &logger)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()
	logger.Info().Int("port", cfg.API.Port).Msg("booking API started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("booking API stopped")
	return nil
}

func subscribeBookingEvents(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(ev *events.Event) error {
		metrics.IncBookingEvent(ev.Type)

		var payload events.BookingEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}

		logger.Info().
			Str("event", ev.Type).
			Int64("booking_id", payload.BookingID).
			Str("booking_number", payload.BookingNumber).
			Str("status", payload.Status).
			Msg("booking event")
		return nil
	}

	bus.Subscribe(events.EventBookingCreated, handler)
	bus.Subscribe(events.EventBookingConfirmed, handler)
	bus.Subscribe(events.EventBookingDeclined, handler)
	bus.Subscribe(events.EventBookingRefunded, handler)
	bus.Subscribe(events.EventBookingCompleted, handler)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "api-main")

	return cfg, logger, closer, nil
}

func loadVehicleCatalog(cfg *config.Config, logger *zerolog.Logger) ([]models.Vehicle, error) {
	path := cfg.Catalogs.VehiclesPath
	if path == "" {
		path = "configs/vehicles.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("read vehicle catalog")
		return nil, err
	}

	var catalog struct {
		Vehicles []models.Vehicle `yaml:"vehicles"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("parse vehicle catalog")
		return nil, err
	}
	return catalog.Vehicles, nil
}

func loadPickupPoints(cfg *config.Config, logger *zerolog.Logger) ([]models.PickupPoint, error) {
	path := cfg.Catalogs.PickupPointsPath
	if path == "" {
		path = "configs/pickup_points.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("read pickup point catalog")
		return nil, err
	}

	var catalog struct {
		PickupPoints []models.PickupPoint `yaml:"pickup_points"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("parse pickup point catalog")
		return nil, err
	}
	return catalog.PickupPoints, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// buildSessionRepo prefers Redis with an in-memory fallback; without Redis
// sessions live only in process memory.
func buildSessionRepo(redisClient *redis.Client, ttl time.Duration, logger *zerolog.Logger) domain.SessionRepository {
	memory := repository.NewMemorySessionRepository(ttl)
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisSessionRepository(redisClient, ttl)
	return repository.NewFailoverSessionRepository(primary, memory, logger)
}

func initMailer(cfg *config.Config, logger *zerolog.Logger) domain.Mailer {
	if !cfg.Mail.Enabled || cfg.Mail.FunctionURL == "" {
		logger.Warn().Msg("mail disabled, booking emails will be skipped")
		return mail.Noop{}
	}
	return mail.NewClient(cfg.Mail, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) domain.SheetsWriter {
	if cfg.Google.CredentialsFile == "" || cfg.Google.BookingsSpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.BookingsSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) domain.Notifier {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" || cfg.Telegram.ManagersChat == 0 {
		return notify.Noop{}
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return notify.Noop{}
	}
	bot.Debug = cfg.Telegram.Debug

	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier connected")
	return notify.NewTelegramNotifier(bot, cfg.Telegram.ManagersChat, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
