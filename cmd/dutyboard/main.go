package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/nurser/dutyboard/internal/bootstrap"
	"github.com/nurser/dutyboard/internal/devseed"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting dutyboard service",
		"addr", cfg.HTTP.Addr,
		"auth_mode", cfg.Auth.Mode,
		"mongo_database", cfg.Mongo.Database,
		"dev", cfg.IsDev)

	db, disconnect, err := bootstrap.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := disconnect(context.Background()); cerr != nil {
			logger.Error("disconnect mongodb failed", "error", cerr)
		}
	}()

	// Redis backs the logout denylist. With revocation disabled the
	// service runs without it and tokens simply age out at their TTL.
	var redisClient redis.UniversalClient
	if cfg.Auth.RevocationEnabled {
		redisClient, err = bootstrap.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.Error("close redis failed", "error", cerr)
			}
		}()
	}

	services, err := bootstrap.BuildServices(bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if cfg.IsDev {
		if err := devseed.Run(ctx, db, logger); err != nil {
			logger.Warn("dev seed failed", "error", err)
		}
	}

	server := bootstrap.StartHTTPServer(&bootstrap.HTTPServerConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})

	<-ctx.Done()

	return bootstrap.ShutdownHTTPServer(bootstrap.ShutdownConfig{
		Context: context.Background(),
		Server:  server,
		Logger:  logger,
	})
}
