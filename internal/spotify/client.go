// Package spotify is the provider gateway: a thin typed wrapper translating
// local track/queue abstractions to and from the Spotify Web API
// (https://developer.spotify.com/documentation/web-api).
//
// The gateway owns the HTTP boundary. Upstream 204 responses map to empty
// results, non-2xx responses map to *APIError carrying status and body, and
// a missing host credential maps to ErrNotAuthenticated. Nothing in this
// package panics on upstream misbehavior.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-jukebox-backend/internal/domain"
)

const (
	// DefaultBaseURL is the production Spotify Web API root.
	DefaultBaseURL = "https://api.spotify.com/v1"

	// DefaultTimeout bounds every upstream call so a wedged provider
	// surfaces as an upstream failure instead of a hung request.
	DefaultTimeout = 8 * time.Second

	// DefaultSearchLimit is the number of results returned when the
	// caller does not specify one.
	DefaultSearchLimit = 10
)

var (
	// ErrNotAuthenticated is returned when no valid access token is
	// available for an upstream call.
	ErrNotAuthenticated = errors.New("not authenticated with spotify")

	// ErrInvalidTrackURI is returned for playback URIs that do not match
	// the spotify:track:<22 alnum> shape. Validation happens before any
	// upstream call.
	ErrInvalidTrackURI = errors.New("invalid track URI")
)

var trackURIRe = regexp.MustCompile(`^spotify:track:[a-zA-Z0-9]{22}$`)

// ValidTrackURI reports whether uri is a well-formed Spotify track URI.
func ValidTrackURI(uri string) bool {
	return trackURIRe.MatchString(uri)
}

// APIError is a non-2xx upstream response. It is fatal for the call that
// produced it, never for the process.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("spotify api error: %d - %s", e.Status, e.Body)
}

// TokenSource yields a currently-valid bearer token. Implemented by the
// auth.Manager.
type TokenSource interface {
	ValidAccessToken(ctx context.Context) (string, error)
}

// Client talks to the Spotify Web API on behalf of the host credential.
// Safe for concurrent use.
type Client struct {
	// Tokens supplies the bearer credential for every call.
	Tokens TokenSource
	// BaseURL defaults to DefaultBaseURL. Tests point it at a local server.
	BaseURL string
	// HTTPClient defaults to a client with DefaultTimeout.
	HTTPClient *http.Client
}

// NewClient constructs a Client with production defaults.
func NewClient(tokens TokenSource) *Client {
	return &Client{
		Tokens:     tokens,
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

//
// Upstream response shapes (Spotify Web API)
//

type apiImage struct {
	URL string `json:"url"`
}

type apiArtist struct {
	Name string `json:"name"`
}

type apiAlbum struct {
	Name   string     `json:"name"`
	Images []apiImage `json:"images"`
}

type apiTrack struct {
	ID         string      `json:"id"`
	URI        string      `json:"uri"`
	Name       string      `json:"name"`
	Artists    []apiArtist `json:"artists"`
	Album      apiAlbum    `json:"album"`
	DurationMS int         `json:"duration_ms"`
}

type searchResponse struct {
	Tracks struct {
		Items []apiTrack `json:"items"`
	} `json:"tracks"`
}

type nowPlayingResponse struct {
	Item       *apiTrack `json:"item"`
	IsPlaying  bool      `json:"is_playing"`
	ProgressMS int       `json:"progress_ms"`
}

type queueResponse struct {
	Queue []apiTrack `json:"queue"`
}

// transformTrack flattens the upstream track shape into the local one:
// artists join to a single display string and only the first album image
// is kept.
func transformTrack(t apiTrack) domain.Track {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	art := ""
	if len(t.Album.Images) > 0 {
		art = t.Album.Images[0].URL
	}
	return domain.Track{
		ID:         t.ID,
		URI:        t.URI,
		Name:       t.Name,
		Artist:     strings.Join(names, ", "),
		Album:      t.Album.Name,
		AlbumArt:   art,
		DurationMS: t.DurationMS,
	}
}

// Search returns up to limit tracks matching query. limit values < 1 use
// DefaultSearchLimit.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	if limit < 1 {
		limit = DefaultSearchLimit
	}
	q := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {strconv.Itoa(limit)},
	}

	var resp searchResponse
	found, err := c.do(ctx, http.MethodGet, "/search", q, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.Track{}, nil
	}

	tracks := make([]domain.Track, 0, len(resp.Tracks.Items))
	for _, t := range resp.Tracks.Items {
		tracks = append(tracks, transformTrack(t))
	}
	return tracks, nil
}

// NowPlaying returns the host's current playback state. A 204 (nothing
// playing) or a response without an item maps to the empty snapshot.
func (c *Client) NowPlaying(ctx context.Context) (domain.NowPlaying, error) {
	var resp nowPlayingResponse
	found, err := c.do(ctx, http.MethodGet, "/me/player/currently-playing", nil, &resp)
	if err != nil {
		return domain.NowPlaying{}, err
	}
	if !found || resp.Item == nil {
		return domain.NowPlaying{}, nil
	}

	track := transformTrack(*resp.Item)
	return domain.NowPlaying{
		Track:      &track,
		IsPlaying:  resp.IsPlaying,
		ProgressMS: resp.ProgressMS,
	}, nil
}

// Enqueue appends a track to the host's playback queue. The URI shape is
// validated before any network traffic.
func (c *Client) Enqueue(ctx context.Context, trackURI string) error {
	if !ValidTrackURI(trackURI) {
		return ErrInvalidTrackURI
	}
	q := url.Values{"uri": {trackURI}}
	_, err := c.do(ctx, http.MethodPost, "/me/player/queue", q, nil)
	return err
}

// Queue lists the upstream playback queue.
func (c *Client) Queue(ctx context.Context) ([]domain.Track, error) {
	var resp queueResponse
	found, err := c.do(ctx, http.MethodGet, "/me/player/queue", nil, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.Track{}, nil
	}

	tracks := make([]domain.Track, 0, len(resp.Queue))
	for _, t := range resp.Queue {
		tracks = append(tracks, transformTrack(t))
	}
	return tracks, nil
}

// do issues one authenticated call. It reports found=false for 204
// responses, decodes 2xx bodies into out when non-nil, and returns
// *APIError for everything else.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) (found bool, err error) {
	token, err := c.Tokens.ValidAccessToken(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return true, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode spotify response: %w", err)
	}
	return true, nil
}
