// Package handlers provides the HTTP handler implementations for the
// public API.
//
// This file defines the standard response utilities used across all
// endpoints. Every failure returns an ErrorResponse whose `error` field is
// a stable, human-safe message; rate-limit rejections additionally carry a
// client-facing `message` and numeric `retryAfter`.
//
// Example error response:
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "error": "Track is already in the queue"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-jukebox-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// RequestID correlates server logs with client-side errors.
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Error is the stable, human-readable failure description.
	Error string `json:"error" example:"Track is already in the queue"`
	// Message carries additional client guidance where relevant.
	Message string `json:"message,omitempty" example:"You can add up to 5 songs per 10 minutes"`
	// RetryAfter is the whole seconds until the caller may retry (429 only).
	RetryAfter int `json:"retryAfter,omitempty" example:"418"`
}

// fail aborts the request with a structured error. Server errors (>= 500)
// are logged with the request-scoped logger.
func fail(c *gin.Context, status int, errMsg string) {
	failWith(c, status, ErrorResponse{Error: errMsg})
}

// failWith is fail with a caller-built envelope; the request id is always
// filled in from the response headers.
func failWith(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = c.Writer.Header().Get("X-Request-ID")

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("error", resp.Error).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail(), for router-level fallbacks.
func Fail(c *gin.Context, status int, errMsg string) { fail(c, status, errMsg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
