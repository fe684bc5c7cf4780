package middleware

import (
	"errors"
	"net/http"

	"github.com/distributed-fraud-detection/fraud-detection/shared/apperrors"
	"github.com/gin-gonic/gin"
)

const unexpectedErrorMessage = "An unexpected error occurred"

// RespondWithAppError maps an error kind onto its HTTP status. Anything
// outside the known kinds becomes a 500 without internal detail.
func RespondWithAppError(c *gin.Context, err error) {
	var rle *apperrors.RateLimitError
	switch {
	case errors.As(err, &rle):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"message": "Too many transactions, please retry later",
			"count":   rle.Count,
			"limit":   rle.Limit,
		})
	case errors.Is(err, apperrors.ErrValidation):
		RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrInvalidTransition):
		RespondWithError(c, http.StatusConflict, err.Error())
	default:
		_ = c.Error(err)
		RespondWithError(c, http.StatusInternalServerError, unexpectedErrorMessage)
	}
}
