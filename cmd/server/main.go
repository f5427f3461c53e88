package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"anoa.com/devconnector/internal/config"
	"anoa.com/devconnector/internal/entity"
	"anoa.com/devconnector/internal/server"
	"anoa.com/devconnector/pkg/cache"
	"anoa.com/devconnector/pkg/database"
	"anoa.com/devconnector/pkg/logger"
	"github.com/meilisearch/meilisearch-go"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DSN(), !cfg.IsProduction())
	if err != nil {
		fatal("database connection failed", err)
	}
	if err := database.Migrate(db, &entity.User{}, &entity.Profile{}, &entity.Post{}); err != nil {
		fatal("migration failed", err)
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		fatal("redis connection failed", err)
	}
	if redisClient == nil {
		slog.Warn("REDIS_URL not set; rate limiting, github caching and notifications are disabled")
	} else {
		defer redisClient.Close()
	}

	var meiliClient meilisearch.ServiceManager
	if host := cfg.MeiliSearchHost; host != "" {
		if !strings.HasPrefix(host, "http") {
			host = "http://" + host + ":7700"
		}
		meiliClient = meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	} else {
		slog.Warn("MEILISEARCH_HOST not set; post search is disabled")
	}

	srv, err := server.NewServer(cfg, db, redisClient, meiliClient)
	if err != nil {
		fatal("failed to build server", err)
	}

	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		fatal("server exited with error", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
