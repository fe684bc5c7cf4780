package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/api-gateway/internal/gateway"
	"github.com/distributed-fraud-detection/fraud-detection/shared/config"
	"github.com/distributed-fraud-detection/fraud-detection/shared/logging"
	"github.com/distributed-fraud-detection/fraud-detection/shared/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("8080")
	if err != nil {
		panic(err)
	}
	log := logging.Must(cfg.LogLevel, cfg.LogFormat).Named("api-gateway")
	defer func() { _ = log.Sync() }()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gateway.NewRouter(gateway.Upstreams{
		Transactions:  cfg.TransactionServiceURL,
		Risk:          cfg.RiskEngineURL,
		Decisions:     cfg.DecisionServiceURL,
		Notifications: cfg.NotificationServiceURL,
		Analytics:     cfg.AnalyticsServiceURL,
	},
		gateway.NewProxy(&http.Client{Timeout: 30 * time.Second}, log),
		middleware.AuthMiddleware([]byte(cfg.JWTSecret)),
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("api gateway starting", zap.String("port", cfg.Port))
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
