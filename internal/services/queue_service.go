// Package services – QueueService
//
// This file implements the admission pipeline, the composed "add track"
// operation: authenticate → validate → dedupe → rate-check → upstream
// enqueue → local record → quota update. Each step short-circuits on
// failure, and quota is only consumed after the upstream enqueue succeeds,
// so a failed attempt never costs a client part of their window.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/tbourn/go-jukebox-backend/internal/domain"
	"github.com/tbourn/go-jukebox-backend/internal/identity"
	"github.com/tbourn/go-jukebox-backend/internal/queue"
	"github.com/tbourn/go-jukebox-backend/internal/ratelimit"
	"github.com/tbourn/go-jukebox-backend/internal/spotify"
)

// AuthState reports whether a host credential is installed. Implemented by
// auth.Manager.
type AuthState interface {
	IsAuthenticated() bool
}

// Gateway is the provider boundary consumed by the services. Implemented
// by spotify.Client.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type Gateway interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Track, error)
	NowPlaying(ctx context.Context) (domain.NowPlaying, error)
	Enqueue(ctx context.Context, trackURI string) error
	Queue(ctx context.Context) ([]domain.Track, error)
}

// SubmissionLimiter is the fixed-window quota tracker keyed by hashed
// client identity. Implemented by ratelimit.Limiter.
type SubmissionLimiter interface {
	Check(key string) ratelimit.Decision
	Increment(key string) ratelimit.Decision
}

// Admission is the successful outcome of an Add call: the recorded ledger
// item plus the caller's quota after the increment.
type Admission struct {
	Item      domain.QueueItem
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// QueueService coordinates the local queue ledger, the submission limiter,
// and the provider gateway.
type QueueService struct {
	// Auth gates every operation on the presence of a host credential.
	Auth AuthState
	// Spotify is the upstream provider gateway.
	Spotify Gateway
	// Ledger is the local record of accepted submissions.
	Ledger *queue.Ledger
	// Limiter enforces per-client submission windows.
	Limiter SubmissionLimiter

	// now is injectable for tests.
	now func() time.Time
}

// NewQueueService wires a QueueService from its collaborators.
func NewQueueService(auth AuthState, gw Gateway, ledger *queue.Ledger, limiter SubmissionLimiter) *QueueService {
	return &QueueService{
		Auth:    auth,
		Spotify: gw,
		Ledger:  ledger,
		Limiter: limiter,
		now:     time.Now,
	}
}

// Quota returns the caller's current window state without consuming any of
// it. Handlers use it to emit X-RateLimit-* headers on every response.
func (s *QueueService) Quota(clientID string) ratelimit.Decision {
	return s.Limiter.Check(identity.Key(clientID))
}

// Add runs the full admission pipeline for one submission.
//
// clientID is the raw resolved identity; it is hashed before any storage.
// Errors: ErrNotAuthenticated, ErrInvalidTrackURI, ErrTrackInfoRequired,
// ErrDuplicateTrack, *RateLimitError, *UpstreamError.
func (s *QueueService) Add(ctx context.Context, clientID, trackURI string, track domain.Track) (*Admission, error) {
	if !s.Auth.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	if !spotify.ValidTrackURI(trackURI) {
		return nil, ErrInvalidTrackURI
	}
	if track.ID == "" || track.Name == "" {
		return nil, ErrTrackInfoRequired
	}

	if s.Ledger.Contains(track.ID) {
		return nil, ErrDuplicateTrack
	}

	key := identity.Key(clientID)
	d := s.Limiter.Check(key)
	if !d.Allowed {
		return nil, &RateLimitError{
			Limit:      d.Limit,
			Remaining:  0,
			ResetAt:    d.ResetAt,
			RetryAfter: d.RetryAfter(s.now()),
		}
	}

	if err := s.Spotify.Enqueue(ctx, trackURI); err != nil {
		if errors.Is(err, spotify.ErrNotAuthenticated) {
			return nil, ErrNotAuthenticated
		}
		if errors.Is(err, spotify.ErrInvalidTrackURI) {
			return nil, ErrInvalidTrackURI
		}
		// No local record and no quota charge for a failed enqueue.
		return nil, &UpstreamError{Op: "enqueue", Err: err}
	}

	item := s.Ledger.Append(track, identity.ShortKey(clientID))
	after := s.Limiter.Increment(key)

	return &Admission{
		Item:      item,
		Limit:     after.Limit,
		Remaining: after.Remaining,
		ResetAt:   after.ResetAt,
	}, nil
}

// Queues returns the upstream playback queue alongside the local ledger.
func (s *QueueService) Queues(ctx context.Context) (spotifyQueue []domain.Track, localQueue []domain.QueueItem, err error) {
	if !s.Auth.IsAuthenticated() {
		return nil, nil, ErrNotAuthenticated
	}

	spotifyQueue, err = s.Spotify.Queue(ctx)
	if err != nil {
		if errors.Is(err, spotify.ErrNotAuthenticated) {
			return nil, nil, ErrNotAuthenticated
		}
		return nil, nil, &UpstreamError{Op: "queue", Err: err}
	}

	return spotifyQueue, s.Ledger.List(), nil
}
