// Package services – PlayerService
//
// This file implements search and playback-state reads against the
// provider gateway, including the combined polling snapshot used by client
// UIs. Reads are fanned out concurrently where the original data sources
// are independent.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-jukebox-backend/internal/domain"
	"github.com/tbourn/go-jukebox-backend/internal/queue"
	"github.com/tbourn/go-jukebox-backend/internal/spotify"
)

// MinQueryLen is the minimum trimmed search query length.
const MinQueryLen = 2

// State is the combined snapshot served to polling clients.
type State struct {
	NowPlaying   domain.NowPlaying  `json:"nowPlaying"`
	SpotifyQueue []domain.Track     `json:"spotifyQueue"`
	LocalQueue   []domain.QueueItem `json:"localQueue"`
}

// PlayerService exposes provider-backed reads: track search, the current
// playback snapshot, and the combined polling state.
type PlayerService struct {
	Auth    AuthState
	Spotify Gateway
	Ledger  *queue.Ledger
}

// NewPlayerService wires a PlayerService from its collaborators.
func NewPlayerService(auth AuthState, gw Gateway, ledger *queue.Ledger) *PlayerService {
	return &PlayerService{Auth: auth, Spotify: gw, Ledger: ledger}
}

// Search returns up to spotify.DefaultSearchLimit tracks for query.
// The query is trimmed first; ErrQueryTooShort is returned before the
// authentication check so malformed requests fail cheaply.
func (s *PlayerService) Search(ctx context.Context, query string) ([]domain.Track, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinQueryLen {
		return nil, ErrQueryTooShort
	}
	if !s.Auth.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	tracks, err := s.Spotify.Search(ctx, query, spotify.DefaultSearchLimit)
	if err != nil {
		if errors.Is(err, spotify.ErrNotAuthenticated) {
			return nil, ErrNotAuthenticated
		}
		return nil, &UpstreamError{Op: "search", Err: err}
	}
	return tracks, nil
}

// NowPlaying returns the host's current playback snapshot.
func (s *PlayerService) NowPlaying(ctx context.Context) (domain.NowPlaying, error) {
	if !s.Auth.IsAuthenticated() {
		return domain.NowPlaying{}, ErrNotAuthenticated
	}

	np, err := s.Spotify.NowPlaying(ctx)
	if err != nil {
		if errors.Is(err, spotify.ErrNotAuthenticated) {
			return domain.NowPlaying{}, ErrNotAuthenticated
		}
		return domain.NowPlaying{}, &UpstreamError{Op: "now-playing", Err: err}
	}
	return np, nil
}

// State assembles the combined polling snapshot. The two upstream reads
// are independent and fetched concurrently; the local ledger snapshot is
// taken afterwards so it is at least as fresh as the upstream views.
func (s *PlayerService) State(ctx context.Context) (*State, error) {
	if !s.Auth.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	var (
		np    domain.NowPlaying
		queue []domain.Track
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		np, err = s.Spotify.NowPlaying(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		queue, err = s.Spotify.Queue(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, spotify.ErrNotAuthenticated) {
			return nil, ErrNotAuthenticated
		}
		return nil, &UpstreamError{Op: "state", Err: err}
	}

	return &State{
		NowPlaying:   np,
		SpotifyQueue: queue,
		LocalQueue:   s.Ledger.List(),
	}, nil
}
