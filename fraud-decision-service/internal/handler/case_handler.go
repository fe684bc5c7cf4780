package handler

import (
	"context"
	"net/http"

	"github.com/distributed-fraud-detection/fraud-detection/shared/cqrs"
	"github.com/distributed-fraud-detection/fraud-detection/shared/middleware"
	"github.com/distributed-fraud-detection/fraud-detection/shared/models"
	"github.com/distributed-fraud-detection/fraud-detection/shared/utils"
	"github.com/gin-gonic/gin"
)

type CaseCommander interface {
	ReviewCase(context.Context, cqrs.ReviewCaseCommand) (*models.FraudCase, error)
}

type CaseQuerier interface {
	GetCase(context.Context, cqrs.GetCaseQuery) (*models.FraudCase, error)
	GetCaseByTransaction(context.Context, cqrs.GetCaseByTransactionQuery) (*models.FraudCase, error)
	ListCases(context.Context, cqrs.ListCasesQuery) (*models.CasePage, error)
}

type CaseHandler struct {
	commands CaseCommander
	queries  CaseQuerier
}

// ReviewCaseRequest carries the analyst action; the reviewer comes from the token.
type ReviewCaseRequest struct {
	Action string `json:"action" validate:"required,max=16"`
}

func NewCaseHandler(commands CaseCommander, queries CaseQuerier) *CaseHandler {
	return &CaseHandler{commands: commands, queries: queries}
}

// RegisterRoutes mounts the case endpoints. auth guards the review route.
func (h *CaseHandler) RegisterRoutes(r gin.IRouter, auth gin.HandlerFunc) {
	cases := r.Group("/api/fraud-cases")
	cases.GET("", h.ListCases)
	cases.GET("/:caseId", h.GetCase)
	cases.GET("/transaction/:transactionId", h.GetCaseByTransaction)
	cases.PUT("/:caseId/review", auth, h.ReviewCase)
}

func (h *CaseHandler) ListCases(c *gin.Context) {
	page, size := utils.ParsePage(c.Query("page"), c.Query("size"))
	result, err := h.queries.ListCases(c.Request.Context(), cqrs.ListCasesQuery{Page: page, Size: size})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CaseHandler) GetCase(c *gin.Context) {
	fc, err := h.queries.GetCase(c.Request.Context(), cqrs.GetCaseQuery{CaseID: c.Param("caseId")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}

func (h *CaseHandler) GetCaseByTransaction(c *gin.Context) {
	fc, err := h.queries.GetCaseByTransaction(c.Request.Context(), cqrs.GetCaseByTransactionQuery{
		TransactionID: c.Param("transactionId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}

func (h *CaseHandler) ReviewCase(c *gin.Context) {
	reviewer, ok := middleware.GetUserID(c)
	if !ok || reviewer == "" {
		middleware.RespondWithError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req ReviewCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	fc, err := h.commands.ReviewCase(c.Request.Context(), cqrs.ReviewCaseCommand{
		CaseID:     c.Param("caseId"),
		Action:     req.Action,
		ReviewedBy: reviewer,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}
