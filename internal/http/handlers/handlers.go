// Package handlers – wiring and service contracts.
//
// Handlers are transport-thin: they parse and validate inputs, delegate to
// application services, and translate typed service errors into HTTP
// responses. They depend on abstract service interfaces so transport
// concerns stay separate from business logic.
package handlers

import (
	"context"

	"github.com/tbourn/go-jukebox-backend/internal/domain"
	"github.com/tbourn/go-jukebox-backend/internal/ratelimit"
	"github.com/tbourn/go-jukebox-backend/internal/services"
)

// AuthManager exposes the host credential lifecycle to the auth endpoints.
// Implemented by auth.Manager.
type AuthManager interface {
	// Configured reports whether the app credentials are present.
	Configured() bool
	// IsAuthenticated reports whether a host credential is installed.
	IsAuthenticated() bool
	// RedirectURL returns the configured OAuth callback URL.
	RedirectURL() string
	// AuthCodeURL builds the upstream authorization URL.
	AuthCodeURL(state string) string
	// Exchange performs the one-time authorization-code exchange.
	Exchange(ctx context.Context, code string) error
}

// PlayerService exposes provider-backed reads.
//
// Implementations must be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PlayerService interface {
	// Search returns tracks matching a free-text query.
	Search(ctx context.Context, query string) ([]domain.Track, error)
	// NowPlaying returns the host's playback snapshot.
	NowPlaying(ctx context.Context) (domain.NowPlaying, error)
	// State returns the combined polling snapshot.
	State(ctx context.Context) (*services.State, error)
}

// QueueService exposes the admission pipeline and queue views.
//
// Implementations must be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type QueueService interface {
	// Quota returns the caller's current window without consuming it.
	Quota(clientID string) ratelimit.Decision
	// Add runs the admission pipeline for one submission.
	Add(ctx context.Context, clientID, trackURI string, track domain.Track) (*services.Admission, error)
	// Queues returns the upstream queue alongside the local ledger.
	Queues(ctx context.Context) ([]domain.Track, []domain.QueueItem, error)
}

// Handlers groups the HTTP endpoints for auth, search, playback, and the
// queue.
type Handlers struct {
	auth   AuthManager
	player PlayerService
	queue  QueueService

	// rateWindow is the configured submission window, used only to phrase
	// the 429 guidance message.
	rateWindow string
}

// New constructs a Handlers instance bound to the given services.
// rateWindow is the human form of the submission window, e.g. "10 minutes".
func New(auth AuthManager, player PlayerService, queue QueueService, rateWindow string) *Handlers {
	return &Handlers{auth: auth, player: player, queue: queue, rateWindow: rateWindow}
}
