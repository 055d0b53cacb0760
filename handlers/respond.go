package handlers

import (
	"errors"
	"net/http"

	"therapia/services/booking"
	"therapia/services/dispute"
	"therapia/services/ledger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeServiceError maps a service failure to an HTTP response. Unclassified
// errors become 500s with the detail kept out of the body.
func writeServiceError(c *gin.Context, err error) {
	var be *booking.Error
	if errors.As(err, &be) {
		body := gin.H{"error": be.Message, "code": string(be.Code)}
		if be.Status != "" {
			body["currentStatus"] = string(be.Status)
		}
		c.JSON(httpStatusFor(be.Code), body)
		return
	}

	switch {
	case errors.Is(err, ledger.ErrActivePackageExists),
		errors.Is(err, ledger.ErrTherapistUnavailable),
		errors.Is(err, dispute.ErrNotCompleted),
		errors.Is(err, dispute.ErrWindowClosed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, dispute.ErrAlreadyDisputed), errors.Is(err, dispute.ErrNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, dispute.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func httpStatusFor(code booking.ErrorCode) int {
	switch code {
	case booking.CodeValidation:
		return http.StatusUnprocessableEntity
	case booking.CodeNotFound:
		return http.StatusNotFound
	case booking.CodeUnauthorized:
		return http.StatusForbidden
	case booking.CodeStateConflict, booking.CodeSlotConflict:
		return http.StatusConflict
	case booking.CodeDeadline:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
