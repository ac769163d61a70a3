package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sportsconnect/messaging/internal/api"
	"github.com/sportsconnect/messaging/internal/auth"
	"github.com/sportsconnect/messaging/internal/cache"
	"github.com/sportsconnect/messaging/internal/config"
	"github.com/sportsconnect/messaging/internal/events"
	"github.com/sportsconnect/messaging/internal/logger"
	"github.com/sportsconnect/messaging/internal/repository"
	"github.com/sportsconnect/messaging/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(cfg.App.Env != "production")
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync()

	mc, err := repository.Connect(context.Background(), cfg.Mongo.URI)
	if err != nil {
		zlog.Fatalw("mongo connect", "err", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()

	db := mc.Database(cfg.Mongo.DB)
	svc := service.New(
		repository.NewMessageRepository(db),
		repository.NewUserRepository(db),
		repository.NewPostRepository(db),
		zlog,
	)

	var limiter *api.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		svc.WithCache(cache.NewConversationCache(rdb, cfg.App.CacheTTL()))
		if cfg.App.RateLimit > 0 {
			limiter = api.NewRateLimiter(rdb, "ratelimit:messages", cfg.App.RateLimit, time.Minute)
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, zlog)
		defer pub.Close()
		svc.WithPublisher(pub)
	}

	app := api.NewServer(svc, auth.NewValidator(cfg.JWT.Secret), limiter, zlog)

	go func() {
		if err := app.Listen(":" + cfg.App.PortString()); err != nil {
			zlog.Fatalw("server listen", "err", err)
		}
	}()
	zlog.Infow("messaging service started", "port", cfg.App.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	zlog.Info("messaging service stopped")
}
