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

	notifycmd "github.com/distributed-fraud-detection/fraud-detection/notification-service/internal/command"
	"github.com/distributed-fraud-detection/fraud-detection/notification-service/internal/handler"
	"github.com/distributed-fraud-detection/fraud-detection/notification-service/internal/repository"
	"github.com/distributed-fraud-detection/fraud-detection/shared/config"
	"github.com/distributed-fraud-detection/fraud-detection/shared/events"
	"github.com/distributed-fraud-detection/fraud-detection/shared/logging"
	"github.com/distributed-fraud-detection/fraud-detection/shared/metrics"
	"github.com/distributed-fraud-detection/fraud-detection/shared/middleware"
	sharedredis "github.com/distributed-fraud-detection/fraud-detection/shared/redis"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("8084")
	if err != nil {
		panic(err)
	}
	log := logging.Must(cfg.LogLevel, cfg.LogFormat).Named("notification-service")
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

	repo := repository.NewNotificationRepository(db)
	svc := notifycmd.NewNotificationCommandService(
		repo, sharedredis.NewProcessedMarker(redis.Client, "notification-service"), log,
	)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(log), metrics.Middleware())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())
	router.GET("/api/notifications", handler.NewNotificationHandler(repo).ListNotifications)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		err := events.ConsumeTopic(ctx, redis.Client, events.GroupConfig{
			Topic:      events.FraudDecisionMade,
			Group:      "notification-service",
			Consumer:   cfg.ConsumerName,
			Partitions: cfg.Partitions,
			Handler:    events.Handle(svc.HandleFraudDecision),
			Logger:     log,
		})
		if err != nil {
			log.Error("decision consumer stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("notification service starting", zap.String("port", cfg.Port))
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
