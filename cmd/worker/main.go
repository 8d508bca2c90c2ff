package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/config"
	"github.com/gigmile/lending-service/internal/domain"
	"github.com/gigmile/lending-service/internal/infrastructure/logger"
	"github.com/gigmile/lending-service/internal/infrastructure/messaging"
	"github.com/gigmile/lending-service/internal/infrastructure/persistence"
	sqlrepository "github.com/gigmile/lending-service/internal/infrastructure/repository/mysql"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// The worker consumes notification requests, renders them and records one
// notification per channel.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := persistence.OpenMySQL(ctx, cfg.MySQL, log)
	if err != nil {
		log.Fatal("failed to connect to MySQL", zap.Error(err))
	}
	if err := persistence.Migrate(db); err != nil {
		log.Fatal("failed to auto-migrate schemas", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	log.Info("connected to Redis successfully")

	repos := sqlrepository.NewRepositories(db, redisClient, cfg.Cache, log)
	notificationService := service.NewNotificationService(repos.Customer, repos.Notification,
		cfg.Notification.Settings(), log)

	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("worker-%s-%d", hostname, os.Getpid())
	subscriber := messaging.NewRedisEventSubscriber(redisClient, log, cfg.Redis.ConsumerGroup, consumerName)

	if err := subscriber.Subscribe(ctx, domain.EventTypeNotificationRequested, notificationService.HandleNotificationRequested); err != nil {
		log.Fatal("failed to subscribe to events", zap.Error(err))
	}

	log.Info("worker started",
		zap.String("consumer", consumerName),
		zap.String("event_type", domain.EventTypeNotificationRequested),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("shutting down worker...")
		cancel()
	}()

	if err := subscriber.Start(ctx); err != nil {
		log.Info("worker stopped", zap.Error(err))
	}

	log.Info("worker exited")
}
