package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/infrastructure/logging"
	"github.com/bivex/stripe-gateway/internal/interfaces/http/response"
	"go.uber.org/zap"
)

// respondError translates domain errors into HTTP responses. Gateway error
// messages are safe to surface; everything else responds with a generic
// message and the detail stays in the logs.
func respondError(c *gin.Context, err error) {
	var validationErr *domainErrors.ValidationError
	var gatewayErr *domainErrors.GatewayError

	switch {
	case errors.As(err, &validationErr) || errors.Is(err, domainErrors.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case domainErrors.IsNotFound(err) ||
		errors.Is(err, domainErrors.ErrTransactionNotFound) ||
		errors.Is(err, domainErrors.ErrSubscriptionNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, domainErrors.ErrSubscriptionCancelled):
		response.Conflict(c, "subscription has been cancelled")
	case errors.Is(err, domainErrors.ErrLockNotAcquired):
		response.Conflict(c, "another operation on this resource is in progress")
	case domainErrors.IsConflict(err) ||
		errors.Is(err, domainErrors.ErrDuplicateMethodID) ||
		errors.Is(err, domainErrors.ErrDuplicateRefund):
		response.Conflict(c, err.Error())
	case errors.As(err, &gatewayErr):
		response.BadGateway(c, gatewayErr.Message)
	default:
		logging.CaptureError("unhandled request error", err,
			zap.String("path", c.FullPath()),
		)
		response.InternalError(c, "Internal server error")
	}
}
