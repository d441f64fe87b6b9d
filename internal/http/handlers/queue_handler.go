// Queue HTTP handlers.
//
// This file exposes the queue endpoints:
//   - GET  /api/queue   (upstream queue + local ledger)
//   - POST /api/queue   (the admission pipeline)
//
// POST responses always carry the X-RateLimit-* headers describing the
// caller's submission window, whether or not the request was admitted.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-jukebox-backend/internal/domain"
	"github.com/tbourn/go-jukebox-backend/internal/http/middleware"
	"github.com/tbourn/go-jukebox-backend/internal/services"
)

// AddTrackRequest is the JSON payload for a queue submission.
type AddTrackRequest struct {
	// TrackURI is the provider playback URI ("spotify:track:<id>").
	TrackURI string `json:"trackUri" example:"spotify:track:4uLU6hMCjMI75M1A2tKUQC"`
	// Track carries the display metadata recorded in the local ledger.
	Track domain.Track `json:"track"`
}

// AddTrackResponse is the JSON envelope for an admitted submission.
type AddTrackResponse struct {
	Success   bool             `json:"success"`
	QueueItem domain.QueueItem `json:"queueItem"`
	// RateLimitRemaining is the caller's quota left after this admission.
	RateLimitRemaining int `json:"rateLimitRemaining"`
}

// QueueResponse holds the two independent queue views.
type QueueResponse struct {
	SpotifyQueue []domain.Track     `json:"spotifyQueue"`
	LocalQueue   []domain.QueueItem `json:"localQueue"`
}

// setRateHeaders writes the standard quota headers. Reset is the window
// expiry in unix seconds, rounded up.
func setRateHeaders(c *gin.Context, limit, remaining int, resetAt time.Time) {
	if remaining < 0 {
		remaining = 0
	}
	reset := resetAt.Unix()
	if resetAt.Nanosecond() > 0 {
		reset++
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
}

// GetQueue godoc
// @ID          getQueue
// @Summary     List the upstream playback queue and the local ledger
// @Tags        queue
// @Produce     json
// @Success     200 {object} QueueResponse
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /queue [get]
func (h *Handlers) GetQueue(c *gin.Context) {
	spotifyQueue, localQueue, err := h.queue.Queues(c.Request.Context())
	switch {
	case err == nil:
		ok(c, http.StatusOK, QueueResponse{SpotifyQueue: spotifyQueue, LocalQueue: localQueue})
	case errors.Is(err, services.ErrNotAuthenticated):
		fail(c, http.StatusUnauthorized, "Host not authenticated with Spotify")
	default:
		fail(c, http.StatusInternalServerError, "Failed to fetch queue")
	}
}

// AddToQueue godoc
// @ID          addToQueue
// @Summary     Submit a track through the admission pipeline
// @Tags        queue
// @Accept      json
// @Produce     json
// @Param       request body AddTrackRequest true "submission"
// @Success     201 {object} AddTrackResponse
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     409 {object} ErrorResponse
// @Failure     429 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /queue [post]
func (h *Handlers) AddToQueue(c *gin.Context) {
	clientID := middleware.ClientIDFrom(c)

	// Advertise the caller's window up front; refined below on admission
	// or rejection.
	quota := h.queue.Quota(clientID)
	setRateHeaders(c, quota.Limit, quota.Remaining, quota.ResetAt)

	var req AddTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Track information required")
		return
	}

	adm, err := h.queue.Add(c.Request.Context(), clientID, req.TrackURI, req.Track)
	if err == nil {
		setRateHeaders(c, adm.Limit, adm.Remaining, adm.ResetAt)
		ok(c, http.StatusCreated, AddTrackResponse{
			Success:            true,
			QueueItem:          adm.Item,
			RateLimitRemaining: adm.Remaining,
		})
		return
	}

	var rl *services.RateLimitError
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		fail(c, http.StatusUnauthorized, "Host not authenticated with Spotify")
	case errors.Is(err, services.ErrInvalidTrackURI):
		fail(c, http.StatusBadRequest, "Invalid track URI")
	case errors.Is(err, services.ErrTrackInfoRequired):
		fail(c, http.StatusBadRequest, "Track information required")
	case errors.Is(err, services.ErrDuplicateTrack):
		fail(c, http.StatusConflict, "Track is already in the queue")
	case errors.As(err, &rl):
		setRateHeaders(c, rl.Limit, rl.Remaining, rl.ResetAt)
		c.Header("Retry-After", strconv.Itoa(rl.RetryAfter))
		failWith(c, http.StatusTooManyRequests, ErrorResponse{
			Error:      "Rate limit exceeded",
			Message:    fmt.Sprintf("You can add up to %d songs per %s", rl.Limit, h.rateWindow),
			RetryAfter: rl.RetryAfter,
		})
	default:
		fail(c, http.StatusInternalServerError, "Failed to add to Spotify queue")
	}
}
