package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/playlog/internal/bgg"
	"github.com/playlog/internal/cache"
	"github.com/playlog/internal/config"
	"github.com/playlog/internal/handler"
	"github.com/playlog/internal/kafka"
	"github.com/playlog/internal/postgres"
	"github.com/playlog/internal/redis"
	"github.com/playlog/internal/repository"
	"github.com/playlog/internal/service"
	"github.com/playlog/internal/sheets"
	"github.com/playlog/internal/tabular"
	"github.com/playlog/internal/websocket"
	"github.com/playlog/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadDotEnv(*envPath); err != nil {
		bootLogger.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		bootLogger.Warn("config file not found, using defaults", "path", *configPath)
		cfg = config.DefaultConfig()
	case err != nil:
		bootLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, storePing, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	responses, cachePing, closeCache, err := openCache(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	provider := bgg.NewBreakerProvider(bgg.NewClient(&cfg.BGG, logger), cfg.BGG.Breaker, logger)

	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	playRepo := repository.NewPlayRepository(store, responses, logger)
	collectionRepo := repository.NewCollectionRepository(
		store,
		responses,
		provider,
		repository.NewPacer(cfg.BGG.SyncDelay),
		logger,
	)

	playService := service.NewPlayService(playRepo, collectionRepo, wsHub, logger)
	collectionService := service.NewCollectionService(collectionRepo, provider, &cfg.Collection, wsHub, logger)
	statsService := service.NewStatsService(playService)

	syncWorker := worker.NewSyncWorker(collectionService, &cfg.Sync, logger)
	if cfg.Sync.Enabled {
		if err := syncWorker.Start(ctx); err != nil {
			return fmt.Errorf("starting sync worker: %w", err)
		}
	}

	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, playService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else if err := kafkaConsumer.Start(ctx); err != nil {
			logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
			kafkaConsumer.Stop()
			kafkaConsumer = nil
		}
	}

	httpHandler := handler.NewHandler(playService, collectionService, statsService, wsHub, cfg, logger)
	if storePing != nil {
		httpHandler.AddReadinessCheck(cfg.Store.Backend, storePing)
	}
	if cachePing != nil {
		httpHandler.AddReadinessCheck(cfg.Cache.Backend, cachePing)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			"port", cfg.Server.Port,
			"store", cfg.Store.Backend,
			"cache", cfg.Cache.Backend,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case runErr = <-serverErr:
	}

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	wsHub.Stop()

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	if err := syncWorker.Stop(); err != nil {
		logger.Error("failed to stop sync worker", "error", err)
	}

	logger.Info("server stopped")
	return runErr
}

// openStore connects the configured tabular backend. The returned pinger is
// nil for backends without a connectivity check.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (tabular.Store, handler.Pinger, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendSheets:
		logger.Info("connecting to Google Sheets", "spreadsheet_id", cfg.Sheets.SpreadsheetID)
		s, err := sheets.New(ctx, &cfg.Sheets, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to sheets: %w", err)
		}
		if err := s.EnsureHeaders(ctx, tabular.Plays, tabular.Collection); err != nil {
			return nil, nil, nil, fmt.Errorf("preparing sheets: %w", err)
		}
		return tabular.NewInstrumented(s, logger), nil, func() {}, nil

	case config.BackendPostgres:
		logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		s, err := postgres.NewStore(ctx, &cfg.Postgres, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := s.RunMigrations(ctx, tabular.Plays, tabular.Collection); err != nil {
			s.Close()
			return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		return tabular.NewInstrumented(s, logger), s, s.Close, nil

	default:
		logger.Warn("using in-memory store, data is lost on restart")
		return tabular.NewInstrumented(tabular.NewMemoryStore(tabular.Plays, tabular.Collection), logger), nil, func() {}, nil
	}
}

// openCache connects the configured response cache
func openCache(cfg *config.Config, logger *slog.Logger) (cache.Cache, handler.Pinger, func(), error) {
	if cfg.Cache.Backend != config.BackendRedis {
		return cache.NewMemory(cfg.Cache.TTL), nil, func() {}, nil
	}

	logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
	c, err := redis.NewCache(&cfg.Redis, cfg.Cache.TTL, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return c, c, func() {
		if err := c.Close(); err != nil {
			logger.Error("failed to close redis", "error", err)
		}
	}, nil
}
