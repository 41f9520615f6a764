package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/ff-sovereignty/internal/api/shared/errors"
	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/logger"
)

// rejectionStatus maps engine rejection codes to HTTP statuses
var rejectionStatus = map[domain.Code]int{
	domain.CodeNotFound:          http.StatusNotFound,
	domain.CodeConflict:          http.StatusConflict,
	domain.CodeTooLow:            http.StatusConflict,
	domain.CodeAuctionNotActive:  http.StatusConflict,
	domain.CodeAlreadyActive:     http.StatusConflict,
	domain.CodeStaleState:        http.StatusConflict,
	domain.CodeProtected:         http.StatusConflict,
	domain.CodeInsufficientFunds: http.StatusPaymentRequired,
	domain.CodeRateLimited:       http.StatusTooManyRequests,
	domain.CodeExternalService:   http.StatusServiceUnavailable,
	domain.CodeForbidden:         http.StatusForbidden,
	domain.CodeInvalidRequest:    http.StatusBadRequest,
}

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusUnprocessableEntity, apierrors.NewValidationError(message))
}

// respondUnauthorized responds with an unauthorized error
func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, apierrors.NewUnauthorizedError("Authentication required"))
}

// respondInternalError responds with an internal server error and logs the cause
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.ErrorCtx(c.Request.Context(), err, fields...)
	c.JSON(http.StatusInternalServerError, apierrors.NewInternalError(message))
}

// respondError responds with the status matching the error. Engine rejections
// keep their code and structured data; anything else is an internal error.
func respondError(c *gin.Context, err error, message string) {
	if rej, ok := domain.AsRejection(err); ok {
		status, known := rejectionStatus[rej.Code]
		if !known {
			status = http.StatusInternalServerError
		}

		apiErr := apierrors.FromRejection(rej)
		if apiErr.RetryAfterSeconds != nil {
			c.Header("Retry-After", strconv.FormatInt(*apiErr.RetryAfterSeconds, 10))
		}
		if status >= http.StatusInternalServerError {
			logger.ErrorCtx(c.Request.Context(), err, zap.String("path", c.Request.URL.Path))
		}
		c.JSON(status, apiErr)
		return
	}

	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case apierrors.ErrCodeValidationFailed:
			c.JSON(http.StatusUnprocessableEntity, apiErr)
		case apierrors.ErrCodeBadRequest:
			c.JSON(http.StatusBadRequest, apiErr)
		default:
			c.JSON(http.StatusInternalServerError, apiErr)
		}
		return
	}

	respondInternalError(c, err, message, zap.String("path", c.Request.URL.Path))
}
