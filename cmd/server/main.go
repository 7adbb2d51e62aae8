package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tablebook/internal/api"
	"tablebook/internal/cache"
	"tablebook/internal/config"
	"tablebook/internal/database"
	"tablebook/internal/domain"
	"tablebook/internal/events"
	"tablebook/internal/export"
	"tablebook/internal/logging"
	"tablebook/internal/metrics"
	"tablebook/internal/models"
	"tablebook/internal/notify"
	"tablebook/internal/rules"
	"tablebook/internal/service"
	"tablebook/internal/sheets"
	"tablebook/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
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
		defer func() { _ = closer.Close() }()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	hours, err := rules.ParseHours(cfg.Restaurant.OpeningTime, cfg.Restaurant.ClosingTime, cfg.Restaurant.ClosedWeekday)
	if err != nil {
		return fmt.Errorf("restaurant hours: %w", err)
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	dayCache := initDayCache(redisClient, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewEventBus()

	sheetsService := initGoogleSheets(cfg, &logger)
	var syncWorker *worker.SyncWorker
	if sheetsService != nil {
		workerLogger := logger.With().Str("component", "sync-worker").Logger()
		syncWorker = worker.NewSyncWorker(db, sheetsService, redisClient, worker.RetryPolicy{}, &workerLogger)
		go syncWorker.Start(ctx)
	}

	var enqueuer domain.SyncEnqueuer
	if syncWorker != nil {
		enqueuer = syncWorker
	}

	reservations := service.NewReservationService(db, dayCache, eventBus, enqueuer, hours, &logger)
	tables := service.NewTableService(db, dayCache, eventBus, enqueuer, &logger)

	startTelegram(ctx, cfg, eventBus, reservations, &logger)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	exporterLogger := logger.With().Str("component", "export").Logger()
	exporter := export.NewExporter(cfg.Exports.Path, &exporterLogger)

	httpServer := api.NewHTTPServer(cfg.Server, cfg.API, reservations, tables, exporter, &logger)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("server stopped")
	return nil
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
	logger := baseLogger.With().Str("component", "server").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := cache.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initDayCache prefers redis with an in-memory fallback; without redis the
// in-memory cache serves alone.
func initDayCache(redisClient *redis.Client, logger *zerolog.Logger) domain.DayCache {
	ttl := time.Duration(models.DayCacheTTL) * time.Second
	memory := cache.NewMemoryDayCache(ttl)
	if redisClient == nil {
		return memory
	}
	return cache.NewFailoverDayCache(cache.NewRedisDayCache(redisClient, ttl), memory, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *sheets.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.ReservationsSpreadsheetID == "" {
		return nil
	}

	sheetsService, err := sheets.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.ReservationsSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sheetsService.TestConnection(pingCtx); err != nil {
		logger.Warn().Err(err).Msg("google sheets unreachable, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func startTelegram(
	ctx context.Context,
	cfg *config.Config,
	bus *events.EventBus,
	reservations *service.ReservationService,
	logger *zerolog.Logger,
) {
	if !cfg.Telegram.Enabled {
		return
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}

	notifierLogger := logger.With().Str("component", "telegram").Logger()
	notifier := notify.NewTelegramNotifier(bot, cfg.Telegram.ManagerChatID, reservations, &notifierLogger)
	notifier.SubscribeAll(bus)
	notifier.StartDigest(ctx, cfg.Telegram.DigestTime)

	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier started")
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
