package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/config"
	"github.com/distributed-fraud-detection/fraud-detection/shared/events"
	"github.com/distributed-fraud-detection/fraud-detection/shared/logging"
	"github.com/distributed-fraud-detection/fraud-detection/shared/metrics"
	"github.com/distributed-fraud-detection/fraud-detection/shared/middleware"
	sharedredis "github.com/distributed-fraud-detection/fraud-detection/shared/redis"
	txcmd "github.com/distributed-fraud-detection/fraud-detection/transaction-service/internal/command"
	"github.com/distributed-fraud-detection/fraud-detection/transaction-service/internal/handler"
	txqry "github.com/distributed-fraud-detection/fraud-detection/transaction-service/internal/query"
	"github.com/distributed-fraud-detection/fraud-detection/transaction-service/internal/ratelimit"
	"github.com/distributed-fraud-detection/fraud-detection/transaction-service/internal/repository"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("8081")
	if err != nil {
		panic(err)
	}
	log := logging.Must(cfg.LogLevel, cfg.LogFormat).Named("transaction-service")
	defer func() { _ = log.Sync() }()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}

	redis, err := sharedredis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redis.Close()

	publisher := events.NewPublisher(redis.Client, cfg.Partitions)
	limiter := ratelimit.New(sharedredis.NewRedisCounter(redis.Client, cfg.RateLimitWindow), cfg.RateLimitPerMinute)

	// CQRS: write repo, read repo
	writeRepo := repository.NewTransactionWriteRepository(db)
	readRepo := repository.NewTransactionReadRepository(db, redis.Client, log)

	commandSvc := txcmd.NewTransactionCommandService(
		writeRepo, readRepo, limiter, publisher,
		sharedredis.NewProcessedMarker(redis.Client, "transaction-service"), log,
	)
	querySvc := txqry.NewTransactionQueryService(readRepo)
	transactionHandler := handler.NewTransactionHandler(commandSvc, querySvc)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(log), metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api")
	{
		api.POST("/transactions", transactionHandler.CreateTransaction)
		api.GET("/transactions/:transactionId", transactionHandler.GetTransaction)
		api.GET("/users/:userId/transactions", transactionHandler.ListUserTransactions)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		err := events.ConsumeTopic(ctx, redis.Client, events.GroupConfig{
			Topic:      events.FraudDecisionMade,
			Group:      "transaction-service",
			Consumer:   cfg.ConsumerName,
			Partitions: cfg.Partitions,
			Handler:    events.Handle(commandSvc.HandleFraudDecision),
			Logger:     log,
		})
		if err != nil {
			log.Error("decision consumer stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("transaction service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}
