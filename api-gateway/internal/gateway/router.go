// Package gateway is the single HTTP entry point in front of the stages.
package gateway

import (
	"net/http"

	"github.com/distributed-fraud-detection/fraud-detection/shared/metrics"
	"github.com/distributed-fraud-detection/fraud-detection/shared/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Upstreams struct {
	Transactions  string
	Risk          string
	Decisions     string
	Notifications string
	Analytics     string
}

// NewRouter maps public routes onto their owning service. auth guards the
// analyst and operator routes.
func NewRouter(up Upstreams, proxy *Proxy, auth gin.HandlerFunc, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(log), metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "api-gateway"})
	})
	router.GET("/metrics", metrics.Handler())

	// Ingestion
	router.POST("/api/transactions", proxy.To(up.Transactions))
	router.GET("/api/transactions/:transactionId", proxy.To(up.Transactions))
	router.GET("/api/users/:userId/transactions", proxy.To(up.Transactions))

	// Scoring
	router.GET("/api/risk/profiles/:userId", proxy.To(up.Risk))
	router.GET("/api/risk/high-risk-transactions", auth, proxy.To(up.Risk))

	// Cases
	router.GET("/api/fraud-cases", proxy.To(up.Decisions))
	router.GET("/api/fraud-cases/:caseId", proxy.To(up.Decisions))
	router.GET("/api/fraud-cases/transaction/:transactionId", proxy.To(up.Decisions))
	router.PUT("/api/fraud-cases/:caseId/review", auth, proxy.To(up.Decisions))

	router.GET("/api/notifications", proxy.To(up.Notifications))

	// Analytics
	router.GET("/api/analytics/daily-summary", proxy.To(up.Analytics))
	router.POST("/api/analytics/run-batch", auth, proxy.To(up.Analytics))

	return router
}
