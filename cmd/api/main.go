package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/critterbyte/arcade-api/src/app/highscores"
	"github.com/critterbyte/arcade-api/src/domain/score"
	"github.com/critterbyte/arcade-api/src/infra/memory"
	"github.com/critterbyte/arcade-api/src/infra/postgres"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	baseCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	shutdownTelemetry, err := setupTelemetry(baseCtx, "arcade-api", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTelemetry(ctx)
		}()
	}

	repo, healthCheck, closeStore, err := openStore(baseCtx, cfg)
	if err != nil {
		logger.Fatal("failed to open score store", zap.Error(err))
	}
	defer closeStore()

	highScoreService := highscores.NewService(repo)

	server := NewServer(ServerConfig{
		Logger:         logger,
		HighScores:     highScoreService,
		HealthCheck:    healthCheck,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("arcade API listening", zap.String("addr", cfg.HTTPAddress), zap.String("store", cfg.Store))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-baseCtx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStore builds the configured repository. Postgres is the durable default;
// memory keeps local development free of infrastructure.
func openStore(ctx context.Context, cfg Config) (score.Repository, func(context.Context) error, func(), error) {
	switch cfg.Store {
	case storeMemory:
		return memory.NewScoreRepository(), nil, func() {}, nil
	default:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		repo := postgres.NewScoreRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return repo, repo.Ping, pool.Close, nil
	}
}

func newLogger(cfg Config) *zap.Logger {
	if cfg.LogFile == "" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, zap.InfoLevel)
	return zap.New(core)
}
