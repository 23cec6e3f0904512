package main

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"degiro-returns/internal/config"
	"degiro-returns/internal/httpapi"
	"degiro-returns/internal/jobstore"
	"degiro-returns/internal/notify"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	jobs := jobstore.New(redisClient, cfg.JobTTL)

	notifier, err := notify.New(cfg.TelegramToken, chatIDOrZero(cfg.TelegramChat))
	if err != nil {
		logger.Warn("telegram notifier disabled", zap.Error(err))
	}

	srv := &httpapi.Server{
		Log:            logger,
		JWTSecret:      cfg.MustJWTSecret(),
		Jobs:           jobs,
		Notifier:       notifier,
		UploadMaxBytes: cfg.UploadMaxBytes,
	}

	logger.Info("starting server", zap.String("addr", cfg.ListenAddr))
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Router()); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func chatIDOrZero(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
