package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gigmile/lending-service/internal/application/command"
	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/config"
	"github.com/gigmile/lending-service/internal/infrastructure/logger"
	"github.com/gigmile/lending-service/internal/infrastructure/messaging"
	"github.com/gigmile/lending-service/internal/infrastructure/metrics"
	"github.com/gigmile/lending-service/internal/infrastructure/persistence"
	sqlrepository "github.com/gigmile/lending-service/internal/infrastructure/repository/mysql"
	redisrepository "github.com/gigmile/lending-service/internal/infrastructure/repository/redis"
	"github.com/gigmile/lending-service/internal/infrastructure/scheduler"
	"github.com/gigmile/lending-service/internal/infrastructure/scoring"
	"github.com/gigmile/lending-service/internal/interface/http/handler"
	"github.com/gigmile/lending-service/internal/interface/http/middleware"
	"github.com/gigmile/lending-service/internal/interface/http/router"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

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

	ctx := context.Background()

	db, err := persistence.OpenMySQL(ctx, cfg.MySQL, log)
	if err != nil {
		log.Fatal("failed to connect to MySQL", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get underlying sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := persistence.Migrate(db); err != nil {
		log.Fatal("failed to auto-migrate schemas", zap.Error(err))
	}
	log.Info("connected to MySQL successfully", zap.String("host", cfg.MySQL.Host))

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

	publisher := messaging.NewRedisEventPublisher(redisClient, log)
	trigger := service.NewNotificationTrigger(repos.Customer, repos.Product,
		messaging.NewStreamNotifier(publisher), cfg.Notification.Settings(), log)
	feeEngine := service.NewFeeEngine(repos.LoanFee, log)

	catalogueService := service.NewCatalogueService(repos.Customer, repos.Product, log)
	loanService := service.NewLoanService(repos.Transactor, repos.Customer, repos.Product, repos.Loan,
		repos.Installment, repos.LoanFee, repos.Payment, feeEngine, trigger, log)
	paymentService := service.NewPaymentService(repos.Transactor, repos.Loan, repos.Installment,
		repos.Payment, trigger, log)
	lifecycleService := service.NewLifecycleService(repos.Transactor, repos.Loan, repos.Installment,
		repos.Product, feeEngine, trigger, redisrepository.NewRedisBatchLocker(redisClient), cfg.Batch.LockTTL, log)
	scoringService := service.NewScoringService(repos.Customer, scoring.NewClient(cfg.Scoring, nil, log), log)

	dispatcher := command.NewDispatcher(log)
	command.RegisterLoanHandlers(dispatcher, loanService, paymentService, lifecycleService)

	routerOpts := router.Options{}
	var commands handler.Dispatcher = dispatcher
	if cfg.Metrics.Enabled {
		m := metrics.New()
		commands = metrics.NewInstrumentedDispatcher(dispatcher, m)
		routerOpts.Metrics = m.Handler()
		routerOpts.MetricsPath = cfg.Metrics.Path
	}

	jobs, err := scheduler.JobsFromConfig(cfg.Batch)
	if err != nil {
		log.Fatal("invalid batch schedule", zap.Error(err))
	}
	batchDefaults := make(map[command.Operation]int, len(jobs))
	for _, job := range jobs {
		batchDefaults[job.Operation] = job.ThresholdDays
	}

	var batchScheduler *scheduler.Scheduler
	if cfg.Batch.Enabled {
		batchScheduler = scheduler.New(jobs, cfg.Batch.CheckInterval, commands, log)
		if err := batchScheduler.Start(ctx); err != nil {
			log.Fatal("failed to start batch scheduler", zap.Error(err))
		}
	}

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
		defer limiter.Stop()
		routerOpts.Limiter = limiter
	}

	handlers := handler.NewHandlers(handler.Dependencies{
		Catalogue:     catalogueService,
		Loans:         loanService,
		Scoring:       scoringService,
		Dispatcher:    commands,
		BatchDefaults: batchDefaults,
	}, log)
	r := router.NewRouter(handlers, routerOpts, log)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("starting server", zap.String("address", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if batchScheduler != nil {
		if err := batchScheduler.Stop(shutdownCtx); err != nil {
			log.Error("batch scheduler did not stop cleanly", zap.Error(err))
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
