package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-jukebox-backend/internal/domain"
	"github.com/tbourn/go-jukebox-backend/internal/http/middleware"
	"github.com/tbourn/go-jukebox-backend/internal/queue"
	"github.com/tbourn/go-jukebox-backend/internal/ratelimit"
	"github.com/tbourn/go-jukebox-backend/internal/services"
	"github.com/tbourn/go-jukebox-backend/internal/spotify"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuthManager implements AuthManager for transport tests.
type fakeAuthManager struct {
	configured    bool
	authenticated bool
	redirectURL   string
	exchangeErr   error
	exchangedCode string
}

func (f *fakeAuthManager) Configured() bool      { return f.configured }
func (f *fakeAuthManager) IsAuthenticated() bool { return f.authenticated }
func (f *fakeAuthManager) RedirectURL() string   { return f.redirectURL }
func (f *fakeAuthManager) AuthCodeURL(state string) string {
	return "https://accounts.spotify.com/authorize?state=" + state
}
func (f *fakeAuthManager) Exchange(ctx context.Context, code string) error {
	f.exchangedCode = code
	return f.exchangeErr
}

// fakeGateway implements services.Gateway so the handlers run over the real
// service and limiter wiring.
type fakeGateway struct {
	searchTracks []domain.Track
	searchErr    error
	nowPlaying   domain.NowPlaying
	enqueueErr   error
	queueTracks  []domain.Track
	queueErr     error
}

func (f *fakeGateway) Search(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	return f.searchTracks, f.searchErr
}

func (f *fakeGateway) NowPlaying(ctx context.Context) (domain.NowPlaying, error) {
	return f.nowPlaying, nil
}

func (f *fakeGateway) Enqueue(ctx context.Context, trackURI string) error {
	return f.enqueueErr
}

func (f *fakeGateway) Queue(ctx context.Context) ([]domain.Track, error) {
	return f.queueTracks, f.queueErr
}

type authState bool

func (a authState) IsAuthenticated() bool { return bool(a) }

type fixture struct {
	router  *gin.Engine
	auth    *fakeAuthManager
	gateway *fakeGateway
	ledger  *queue.Ledger
	limiter *ratelimit.Limiter
}

func newFixture(authenticated bool) *fixture {
	am := &fakeAuthManager{
		configured:    true,
		authenticated: authenticated,
		redirectURL:   "http://localhost:3001/api/auth/callback",
	}
	gw := &fakeGateway{}
	ledger := queue.NewLedger()
	limiter := ratelimit.New(5, 10*time.Minute)

	player := services.NewPlayerService(authState(authenticated), gw, ledger)
	queueSvc := services.NewQueueService(authState(authenticated), gw, ledger, limiter)
	h := New(am, player, queueSvc, "10 minutes")

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ClientIdentity())
	api := r.Group("/api")
	{
		api.GET("/auth/login", h.Login)
		api.GET("/auth/callback", h.Callback)
		api.GET("/auth/status", h.Status)
		api.GET("/search", h.Search)
		api.GET("/now-playing", h.NowPlaying)
		api.GET("/state", h.State)
		api.GET("/queue", h.GetQueue)
		api.POST("/queue", h.AddToQueue)
	}

	return &fixture{router: r, auth: am, gateway: gw, ledger: ledger, limiter: limiter}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("X-Client-ID", "test-client")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}

const validURI = "spotify:track:4uLU6hMCjMI75M1A2tKUQC"

func addBody(id string) string {
	return `{"trackUri": "spotify:track:` + id + `", "track": {"id": "` + id + `", "name": "Song ` + id + `", "artist": "Artist"}}`
}

func TestLogin_Redirects(t *testing.T) {
	f := newFixture(false)

	w := f.do(http.MethodGet, "/api/auth/login", "")
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, "https://accounts.spotify.com/authorize?state=") {
		t.Fatalf("location = %q", loc)
	}
	if strings.TrimPrefix(loc, "https://accounts.spotify.com/authorize?state=") == "" {
		t.Fatal("state parameter is empty")
	}
}

func TestLogin_Unconfigured(t *testing.T) {
	f := newFixture(false)
	f.auth.configured = false

	w := f.do(http.MethodGet, "/api/auth/login", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := decodeError(t, w).Error; got != "Spotify credentials not configured" {
		t.Fatalf("error = %q", got)
	}
}

func TestCallback(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		exchangeErr  error
		wantStatus   int
		wantLocation string
		wantError    string
	}{
		{
			name:         "success",
			target:       "/api/auth/callback?code=abc",
			wantStatus:   http.StatusFound,
			wantLocation: "/admin?success=true",
		},
		{
			name:       "upstream error param",
			target:     "/api/auth/callback?error=access_denied",
			wantStatus: http.StatusBadRequest,
			wantError:  "Spotify auth error: access_denied",
		},
		{
			name:       "missing code",
			target:     "/api/auth/callback",
			wantStatus: http.StatusBadRequest,
			wantError:  "No authorization code received",
		},
		{
			name:         "exchange failure",
			target:       "/api/auth/callback?code=abc",
			exchangeErr:  context.DeadlineExceeded,
			wantStatus:   http.StatusFound,
			wantLocation: "/admin?error=auth_failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(false)
			f.auth.exchangeErr = tt.exchangeErr

			w := f.do(http.MethodGet, tt.target, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantLocation != "" {
				if got := w.Header().Get("Location"); got != tt.wantLocation {
					t.Fatalf("location = %q, want %q", got, tt.wantLocation)
				}
			}
			if tt.wantError != "" {
				if got := decodeError(t, w).Error; got != tt.wantError {
					t.Fatalf("error = %q, want %q", got, tt.wantError)
				}
			}
		})
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(true)

	w := f.do(http.MethodGet, "/api/auth/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Authenticated {
		t.Fatal("authenticated = false")
	}
	if resp.RedirectURI != "http://localhost:3001/api/auth/callback" {
		t.Fatalf("redirectUri = %q", resp.RedirectURI)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(true)
	f.gateway.searchTracks = []domain.Track{{ID: "a", Name: "A"}}

	w := f.do(http.MethodGet, "/api/search?q=daft+punk", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tracks) != 1 || resp.Tracks[0].ID != "a" {
		t.Fatalf("tracks = %+v", resp.Tracks)
	}
}

func TestSearch_ShortQuery(t *testing.T) {
	f := newFixture(true)

	w := f.do(http.MethodGet, "/api/search?q=a", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decodeError(t, w).Error; got != "Query must be at least 2 characters" {
		t.Fatalf("error = %q", got)
	}
}

func TestSearch_NotAuthenticated(t *testing.T) {
	f := newFixture(false)

	w := f.do(http.MethodGet, "/api/search?q=daft+punk", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if got := decodeError(t, w).Error; got != "Host not authenticated with Spotify" {
		t.Fatalf("error = %q", got)
	}
}

func TestSearch_UpstreamFailure(t *testing.T) {
	f := newFixture(true)
	f.gateway.searchErr = &spotify.APIError{Status: 502, Body: "bad gateway"}

	w := f.do(http.MethodGet, "/api/search?q=daft+punk", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := decodeError(t, w).Error; got != "Failed to search tracks" {
		t.Fatalf("error = %q", got)
	}
}

func TestNowPlaying(t *testing.T) {
	f := newFixture(true)
	track := domain.Track{ID: "abc", Name: "Song"}
	f.gateway.nowPlaying = domain.NowPlaying{Track: &track, IsPlaying: true, ProgressMS: 420}

	w := f.do(http.MethodGet, "/api/now-playing", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp domain.NowPlaying
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Track == nil || resp.Track.ID != "abc" || resp.ProgressMS != 420 {
		t.Fatalf("snapshot = %+v", resp)
	}
}

func TestState(t *testing.T) {
	f := newFixture(true)
	f.gateway.queueTracks = []domain.Track{{ID: "up1"}}
	f.ledger.Append(domain.Track{ID: "local1", Name: "Local"}, "1b2c3d4e")

	w := f.do(http.MethodGet, "/api/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp services.State
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.SpotifyQueue) != 1 || len(resp.LocalQueue) != 1 {
		t.Fatalf("state = %+v", resp)
	}
}

func TestGetQueue(t *testing.T) {
	f := newFixture(true)
	f.gateway.queueTracks = []domain.Track{{ID: "up1"}, {ID: "up2"}}
	f.ledger.Append(domain.Track{ID: "local1", Name: "Local"}, "1b2c3d4e")

	w := f.do(http.MethodGet, "/api/queue", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp QueueResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.SpotifyQueue) != 2 || len(resp.LocalQueue) != 1 {
		t.Fatalf("queue = %+v", resp)
	}
}

func TestGetQueue_NotAuthenticated(t *testing.T) {
	f := newFixture(false)

	w := f.do(http.MethodGet, "/api/queue", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAddToQueue_Created(t *testing.T) {
	f := newFixture(true)

	w := f.do(http.MethodPost, "/api/queue", `{"trackUri": "`+validURI+`", "track": {"id": "4uLU6hMCjMI75M1A2tKUQC", "name": "One More Time", "artist": "Daft Punk"}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp AddTrackResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.QueueItem.Track.ID != "4uLU6hMCjMI75M1A2tKUQC" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.RateLimitRemaining != 4 {
		t.Fatalf("rateLimitRemaining = %d, want 4", resp.RateLimitRemaining)
	}
	if resp.QueueItem.AddedBy == "" || len(resp.QueueItem.AddedBy) != 8 {
		t.Fatalf("addedBy = %q, want 8-char digest", resp.QueueItem.AddedBy)
	}

	if got := w.Header().Get("X-RateLimit-Limit"); got != "5" {
		t.Errorf("X-RateLimit-Limit = %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "4" {
		t.Errorf("X-RateLimit-Remaining = %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Reset"); got == "" {
		t.Error("X-RateLimit-Reset missing")
	}
}

func TestAddToQueue_MalformedBody(t *testing.T) {
	f := newFixture(true)

	w := f.do(http.MethodPost, "/api/queue", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decodeError(t, w).Error; got != "Track information required" {
		t.Fatalf("error = %q", got)
	}
}

func TestAddToQueue_InvalidURI(t *testing.T) {
	f := newFixture(true)

	w := f.do(http.MethodPost, "/api/queue", `{"trackUri": "spotify:album:4uLU6hMCjMI75M1A2tKUQC", "track": {"id": "x", "name": "X"}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decodeError(t, w).Error; got != "Invalid track URI" {
		t.Fatalf("error = %q", got)
	}
}

func TestAddToQueue_Duplicate(t *testing.T) {
	f := newFixture(true)

	if w := f.do(http.MethodPost, "/api/queue", addBody("4uLU6hMCjMI75M1A2tKUQC")); w.Code != http.StatusCreated {
		t.Fatalf("first add status = %d", w.Code)
	}
	w := f.do(http.MethodPost, "/api/queue", addBody("4uLU6hMCjMI75M1A2tKUQC"))
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if got := decodeError(t, w).Error; got != "Track is already in the queue" {
		t.Fatalf("error = %q", got)
	}
}

func TestAddToQueue_RateLimited(t *testing.T) {
	f := newFixture(true)

	ids := []string{
		"4uLU6hMCjMI75M1A2tKUQ0",
		"4uLU6hMCjMI75M1A2tKUQ1",
		"4uLU6hMCjMI75M1A2tKUQ2",
		"4uLU6hMCjMI75M1A2tKUQ3",
		"4uLU6hMCjMI75M1A2tKUQ4",
	}
	for i, id := range ids {
		if w := f.do(http.MethodPost, "/api/queue", addBody(id)); w.Code != http.StatusCreated {
			t.Fatalf("add %d status = %d, body %s", i, w.Code, w.Body.String())
		}
	}

	w := f.do(http.MethodPost, "/api/queue", addBody("4uLU6hMCjMI75M1A2tKUQ5"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}

	resp := decodeError(t, w)
	if resp.Error != "Rate limit exceeded" {
		t.Fatalf("error = %q", resp.Error)
	}
	if resp.Message != "You can add up to 5 songs per 10 minutes" {
		t.Fatalf("message = %q", resp.Message)
	}
	if resp.RetryAfter <= 0 {
		t.Fatalf("retryAfter = %d, want > 0", resp.RetryAfter)
	}
	if got := w.Header().Get("Retry-After"); got == "" {
		t.Error("Retry-After header missing")
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
	if f.ledger.Len() != 5 {
		t.Fatalf("ledger len = %d, rejected track must not be recorded", f.ledger.Len())
	}
}

func TestAddToQueue_RateLimitIsPerClient(t *testing.T) {
	f := newFixture(true)

	ids := []string{
		"4uLU6hMCjMI75M1A2tKUQ0",
		"4uLU6hMCjMI75M1A2tKUQ1",
		"4uLU6hMCjMI75M1A2tKUQ2",
		"4uLU6hMCjMI75M1A2tKUQ3",
		"4uLU6hMCjMI75M1A2tKUQ4",
	}
	for _, id := range ids {
		f.do(http.MethodPost, "/api/queue", addBody(id))
	}

	// A different client still has a full window.
	req := httptest.NewRequest(http.MethodPost, "/api/queue", strings.NewReader(addBody("4uLU6hMCjMI75M1A2tKUQ5")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", "other-client")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 for fresh client", w.Code)
	}
}

func TestAddToQueue_NotAuthenticated(t *testing.T) {
	f := newFixture(false)

	w := f.do(http.MethodPost, "/api/queue", addBody("4uLU6hMCjMI75M1A2tKUQC"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAddToQueue_UpstreamFailure(t *testing.T) {
	f := newFixture(true)
	f.gateway.enqueueErr = &spotify.APIError{Status: 502, Body: "bad gateway"}

	w := f.do(http.MethodPost, "/api/queue", addBody("4uLU6hMCjMI75M1A2tKUQC"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := decodeError(t, w).Error; got != "Failed to add to Spotify queue" {
		t.Fatalf("error = %q", got)
	}
	if f.ledger.Len() != 0 {
		t.Fatal("failed enqueue recorded in ledger")
	}

	// The failed attempt did not consume quota.
	f.gateway.enqueueErr = nil
	w = f.do(http.MethodPost, "/api/queue", addBody("4uLU6hMCjMI75M1A2tKUQC"))
	if w.Code != http.StatusCreated {
		t.Fatalf("retry status = %d, want 201", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "4" {
		t.Fatalf("X-RateLimit-Remaining = %q, want 4", got)
	}
}
