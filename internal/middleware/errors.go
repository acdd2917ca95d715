package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/qhosting/cloudsms/internal/api"
)

// Common error codes used by middleware
const (
	ErrorCodeInternal          = "INTERNAL_ERROR"
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrorCodeRequestTimeout    = "REQUEST_TIMEOUT"
)

// Common error messages used by middleware
const (
	ErrorMessageInternal          = "An internal error occurred"
	ErrorMessageRateLimitExceeded = "Too many requests"
	ErrorMessageRequestTimeout    = "Request timeout"
)

// WriteError renders the api.ErrorResponse envelope shared by every error
// the service returns.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	ts := time.Now()
	render.Status(r, statusCode)
	render.JSON(w, r, api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		Timestamp: &ts,
	})
}
