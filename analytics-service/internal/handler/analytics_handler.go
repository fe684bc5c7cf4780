package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/distributed-fraud-detection/fraud-detection/shared/cqrs"
	"github.com/distributed-fraud-detection/fraud-detection/shared/middleware"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/gin-gonic/gin"
)

type Rollup interface {
	ParseDate(value string) (time.Time, error)
	Run(ctx context.Context, date time.Time) (*models.AggregatedMetric, error)
	Summary(ctx context.Context, days int) ([]models.AggregatedMetric, error)
}

type AnalyticsHandler struct {
	rollup Rollup
}

func NewAnalyticsHandler(rollup Rollup) *AnalyticsHandler {
	return &AnalyticsHandler{rollup: rollup}
}

func (h *AnalyticsHandler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api/analytics")
	api.GET("/daily-summary", h.DailySummary)
	api.POST("/run-batch", h.RunBatch)
}

func (h *AnalyticsHandler) DailySummary(c *gin.Context) {
	q := cqrs.DailySummaryQuery{Days: 14}
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			middleware.RespondWithError(c, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		q.Days = days
	}

	metrics, err := h.rollup.Summary(c.Request.Context(), q.Days)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// RunBatch rolls up ?date=YYYY-MM-DD, or yesterday when omitted.
func (h *AnalyticsHandler) RunBatch(c *gin.Context) {
	cmd := cqrs.RunRollupCommand{Date: c.Query("date")}
	date, err := h.rollup.ParseDate(cmd.Date)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	metric, err := h.rollup.Run(c.Request.Context(), date)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "COMPLETED", "metric": metric})
}
