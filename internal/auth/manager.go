// Package auth holds the single shared host credential and manages its
// lifecycle: the one-time authorization-code exchange, transparent refresh
// ahead of expiry, and explicit logout.
//
// The manager is the only writer of the Credential. Concurrent requests that
// observe a stale token do not race refreshes against each other: refresh
// calls are coalesced through singleflight so one network call serves every
// waiter per expiry event.
package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-jukebox-backend/internal/domain"
)

// Scopes is the fixed permission set requested from the host during login.
var Scopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
}

// SpotifyEndpoint is the production Spotify accounts service.
var SpotifyEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.spotify.com/authorize",
	TokenURL:  "https://accounts.spotify.com/api/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

var (
	// ErrNotConfigured is returned when the host app credentials (client
	// id/secret/redirect URI) are missing from the environment.
	ErrNotConfigured = errors.New("spotify credentials not configured")

	// ErrNoCredential is returned when no host has authenticated yet, or
	// after an explicit logout.
	ErrNoCredential = errors.New("no host credential")
)

// DefaultSkew is how long before the reported expiry a token is treated as
// stale. It absorbs clock drift and in-flight request latency.
const DefaultSkew = 60 * time.Second

// Config carries the construction parameters for a Manager.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint defaults to SpotifyEndpoint when zero. Tests point it at a
	// local token server.
	Endpoint oauth2.Endpoint

	// HTTPClient, when set, is used for all token-endpoint traffic
	// (installed via oauth2.HTTPClient). Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Skew overrides DefaultSkew when > 0.
	Skew time.Duration
}

// Manager owns the process-wide host Credential. Safe for concurrent use.
type Manager struct {
	cfg  *oauth2.Config
	skew time.Duration

	httpClient *http.Client

	mu   sync.RWMutex
	cred *domain.Credential

	refreshGroup singleflight.Group

	// now is injectable for tests.
	now func() time.Time
}

// NewManager constructs a Manager. A Manager built from empty credentials
// is still usable for IsAuthenticated checks; operations that need the app
// credentials return ErrNotConfigured.
func NewManager(c Config) *Manager {
	ep := c.Endpoint
	if ep.AuthURL == "" && ep.TokenURL == "" {
		ep = SpotifyEndpoint
	}
	skew := c.Skew
	if skew <= 0 {
		skew = DefaultSkew
	}
	return &Manager{
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     ep,
			Scopes:       Scopes,
		},
		skew:       skew,
		httpClient: c.HTTPClient,
		now:        time.Now,
	}
}

// Configured reports whether the host app credentials are present.
func (m *Manager) Configured() bool {
	return m.cfg.ClientID != "" && m.cfg.ClientSecret != "" && m.cfg.RedirectURL != ""
}

// RedirectURL returns the configured OAuth callback URL.
func (m *Manager) RedirectURL() string { return m.cfg.RedirectURL }

// AuthCodeURL builds the upstream authorization URL for the host login
// redirect. show_dialog forces the account picker so a shared machine can
// switch hosts.
func (m *Manager) AuthCodeURL(state string) string {
	return m.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// IsAuthenticated reports whether a host credential is currently installed.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred != nil
}

// Exchange performs the one-time authorization-code exchange and installs
// the resulting credential. On any failure the prior state is untouched.
func (m *Manager) Exchange(ctx context.Context, code string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	tok, err := m.cfg.Exchange(m.httpCtx(ctx), code)
	if err != nil {
		log.Error().Err(err).Msg("authorization code exchange failed")
		return err
	}

	m.install(tok, "")
	log.Info().Time("expires_at", tok.Expiry).Msg("host authenticated with spotify")
	return nil
}

// Refresh exchanges the stored refresh token for a new access token. The
// provider may omit a refresh token from the response; the prior one is
// kept in that case. On any failure no state is mutated.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	cred := m.cred
	m.mu.RUnlock()

	if cred == nil {
		return ErrNoCredential
	}
	if !m.Configured() {
		return ErrNotConfigured
	}

	ts := m.cfg.TokenSource(m.httpCtx(ctx), &oauth2.Token{RefreshToken: cred.RefreshToken})
	tok, err := ts.Token()
	if err != nil {
		log.Error().Err(err).Msg("token refresh failed")
		return err
	}

	m.install(tok, cred.RefreshToken)
	log.Info().Time("expires_at", tok.Expiry).Msg("token refreshed")
	return nil
}

// ValidAccessToken returns an access token that is fresh for at least the
// configured skew, refreshing first when needed. Concurrent callers that
// hit the stale path share a single refresh call.
//
// Callers must treat an error as "not authenticated", not as fatal.
func (m *Manager) ValidAccessToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	cred := m.cred
	m.mu.RUnlock()

	if cred == nil {
		return "", ErrNoCredential
	}

	if m.fresh(cred) {
		return cred.AccessToken, nil
	}

	// Coalesce concurrent refreshes. The closure re-checks freshness so a
	// caller that queued behind a completed refresh does not trigger a
	// second one.
	_, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		m.mu.RLock()
		cur := m.cred
		m.mu.RUnlock()
		if cur == nil {
			return nil, ErrNoCredential
		}
		if m.fresh(cur) {
			return nil, nil
		}
		return nil, m.Refresh(ctx)
	})
	if err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return "", ErrNoCredential
	}
	return m.cred.AccessToken, nil
}

// Logout clears the credential. Not wired to any route in the current API
// surface; it exists for host-side resets and tests.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.cred = nil
	m.mu.Unlock()
}

// fresh reports whether cred is still inside its expiry minus skew.
func (m *Manager) fresh(cred *domain.Credential) bool {
	return m.now().Before(cred.ExpiresAt.Add(-m.skew))
}

// install replaces the credential wholesale. fallbackRefresh is used when
// the provider response omitted a refresh token.
func (m *Manager) install(tok *oauth2.Token, fallbackRefresh string) {
	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = fallbackRefresh
	}

	m.mu.Lock()
	m.cred = &domain.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    tok.Expiry,
	}
	m.mu.Unlock()
}

// httpCtx routes oauth2's token-endpoint traffic through the configured
// HTTP client.
func (m *Manager) httpCtx(ctx context.Context) context.Context {
	if m.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}
