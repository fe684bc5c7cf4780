package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/distributed-fraud-detection/fraud-detection/shared/middleware"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/gin-gonic/gin"
)

type ProfileReader interface {
	GetByUser(ctx context.Context, userID string) (*models.RiskProfile, error)
}

type HotListReader interface {
	HighRiskTransactions(ctx context.Context, limit int64) ([]string, error)
}

type RiskHandler struct {
	profiles ProfileReader
	hotList  HotListReader
}

func NewRiskHandler(profiles ProfileReader, hotList HotListReader) *RiskHandler {
	return &RiskHandler{profiles: profiles, hotList: hotList}
}

func (h *RiskHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.GetByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// HighRiskTransactions lists the newest HIGH-level transaction ids.
func (h *RiskHandler) HighRiskTransactions(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit <= 0 {
		middleware.RespondWithError(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	ids, err := h.hotList.HighRiskTransactions(c.Request.Context(), limit)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactionIds": ids})
}
