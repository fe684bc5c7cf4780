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

	riskcmd "github.com/distributed-fraud-detection/fraud-detection/risk-engine/internal/command"
	"github.com/distributed-fraud-detection/fraud-detection/risk-engine/internal/handler"
	"github.com/distributed-fraud-detection/fraud-detection/risk-engine/internal/repository"
	"github.com/distributed-fraud-detection/fraud-detection/risk-engine/internal/scoring"
	"github.com/distributed-fraud-detection/fraud-detection/shared/config"
	"github.com/distributed-fraud-detection/fraud-detection/shared/events"
	"github.com/distributed-fraud-detection/fraud-detection/shared/logging"
	"github.com/distributed-fraud-detection/fraud-detection/shared/metrics"
	"github.com/distributed-fraud-detection/fraud-detection/shared/middleware"
	sharedredis "github.com/distributed-fraud-detection/fraud-detection/shared/redis"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load("8082")
	if err != nil {
		panic(err)
	}
	log := logging.Must(cfg.LogLevel, cfg.LogFormat).Named("risk-engine")
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

	counter := sharedredis.NewRedisCounter(redis.Client, cfg.RateLimitWindow)
	contextCache := sharedredis.NewRiskContextCache(redis.Client, counter)
	profiles := repository.NewRiskProfileRepository(db)
	engine := scoring.NewEngine(scoring.DefaultFactors(factorConfig(cfg.Risk))...)

	svc := riskcmd.NewRiskCommandService(
		engine, contextCache, profiles,
		events.NewPublisher(redis.Client, cfg.Partitions),
		sharedredis.NewProcessedMarker(redis.Client, "risk-engine"),
		log,
	)
	riskHandler := handler.NewRiskHandler(profiles, contextCache)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(log), metrics.Middleware())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())
	router.GET("/api/risk/profiles/:userId", riskHandler.GetProfile)
	router.GET("/api/risk/high-risk-transactions", riskHandler.HighRiskTransactions)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return events.ConsumeTopic(gctx, redis.Client, events.GroupConfig{
			Topic:      events.TransactionCreated,
			Group:      "risk-engine",
			Consumer:   cfg.ConsumerName,
			Partitions: cfg.Partitions,
			Handler:    events.Handle(svc.HandleTransactionCreated),
			Logger:     log,
		})
	})
	g.Go(func() error {
		return events.ConsumeTopic(gctx, redis.Client, events.GroupConfig{
			Topic:      events.FraudDecisionMade,
			Group:      "risk-engine",
			Consumer:   cfg.ConsumerName,
			Partitions: cfg.Partitions,
			Handler:    events.Handle(svc.HandleFraudDecision),
			Logger:     log,
		})
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("risk engine starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	if err := g.Wait(); err != nil {
		log.Error("consumer stopped", zap.Error(err))
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}

func factorConfig(r config.RiskThresholds) scoring.FactorConfig {
	return scoring.FactorConfig{
		HighAmount:            r.HighAmount,
		MediumAmount:          r.MediumAmount,
		AmountHighWeight:      r.AmountHighWeight,
		AmountMediumWeight:    r.AmountMediumWeight,
		AmountBaseWeight:      r.AmountBaseWeight,
		LocationRiskyWeight:   r.LocationRiskyWeight,
		LocationBaseWeight:    r.LocationBaseWeight,
		MerchantRiskyWeight:   r.MerchantRiskyWeight,
		MerchantBaseWeight:    r.MerchantBaseWeight,
		FrequencyHigh:         r.FrequencyHigh,
		FrequencyMedium:       r.FrequencyMedium,
		FrequencyHighWeight:   r.FrequencyHighWeight,
		FrequencyMediumWeight: r.FrequencyMediumWeight,
		FraudPerIncident:      r.FraudPerIncident,
		FraudCap:              r.FraudCap,
	}
}
