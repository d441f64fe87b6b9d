// Search and playback HTTP handlers.
//
// This file exposes the provider-backed read endpoints:
//   - GET /api/search?q=       (track search)
//   - GET /api/now-playing     (current playback snapshot)
//   - GET /api/state           (combined snapshot for polling clients)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-jukebox-backend/internal/domain"
	"github.com/tbourn/go-jukebox-backend/internal/services"
)

// SearchResponse is the JSON envelope for search results.
type SearchResponse struct {
	Tracks []domain.Track `json:"tracks"`
}

// Search godoc
// @ID          searchTracks
// @Summary     Search tracks on the upstream provider
// @Tags        player
// @Produce     json
// @Param       q query string true "free-text query, at least 2 characters"
// @Success     200 {object} SearchResponse
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /search [get]
func (h *Handlers) Search(c *gin.Context) {
	tracks, err := h.player.Search(c.Request.Context(), c.Query("q"))
	switch {
	case err == nil:
		ok(c, http.StatusOK, SearchResponse{Tracks: tracks})
	case errors.Is(err, services.ErrQueryTooShort):
		fail(c, http.StatusBadRequest, "Query must be at least 2 characters")
	case errors.Is(err, services.ErrNotAuthenticated):
		fail(c, http.StatusUnauthorized, "Host not authenticated with Spotify")
	default:
		fail(c, http.StatusInternalServerError, "Failed to search tracks")
	}
}

// NowPlaying godoc
// @ID          nowPlaying
// @Summary     Current playback snapshot
// @Tags        player
// @Produce     json
// @Success     200 {object} domain.NowPlaying
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /now-playing [get]
func (h *Handlers) NowPlaying(c *gin.Context) {
	np, err := h.player.NowPlaying(c.Request.Context())
	switch {
	case err == nil:
		ok(c, http.StatusOK, np)
	case errors.Is(err, services.ErrNotAuthenticated):
		fail(c, http.StatusUnauthorized, "Host not authenticated with Spotify")
	default:
		fail(c, http.StatusInternalServerError, "Failed to fetch now playing")
	}
}

// State godoc
// @ID          state
// @Summary     Combined now-playing and queue snapshot for polling
// @Tags        player
// @Produce     json
// @Success     200 {object} services.State
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /state [get]
func (h *Handlers) State(c *gin.Context) {
	st, err := h.player.State(c.Request.Context())
	switch {
	case err == nil:
		ok(c, http.StatusOK, st)
	case errors.Is(err, services.ErrNotAuthenticated):
		fail(c, http.StatusUnauthorized, "Host not authenticated with Spotify")
	default:
		fail(c, http.StatusInternalServerError, "Failed to fetch state")
	}
}
