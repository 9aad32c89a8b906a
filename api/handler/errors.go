package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loadwire/loadwire/models"
)

// respondError maps a LoadError to the right HTTP status and writes a
// structured JSON error body.
func respondError(c *gin.Context, err error) {
	le := models.AsLoadError(err)
	c.JSON(statusFor(le.Code), gin.H{"error": le.ToDetail()})
}

// statusFor translates error codes to HTTP status codes.
func statusFor(code string) int {
	switch code {
	case models.ErrCodeInvalidInput, models.ErrCodeSelectorNotFound:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeBlockedTarget:
		return http.StatusForbidden // 403
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeCircuitOpen, models.ErrCodePoolExhausted, models.ErrCodeBrowserGone:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeNavTimeout, models.ErrCodeSelectorTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavFailed, models.ErrCodeConnection:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
