package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-jukebox-backend/internal/domain"
	"github.com/tbourn/go-jukebox-backend/internal/queue"
	"github.com/tbourn/go-jukebox-backend/internal/spotify"
)

func newPlayerFixture(auth bool) (*PlayerService, *fakeGateway, *queue.Ledger) {
	gw := &fakeGateway{}
	ledger := queue.NewLedger()
	return NewPlayerService(fakeAuth{authenticated: auth}, gw, ledger), gw, ledger
}

func TestPlayerService_Search(t *testing.T) {
	svc, gw, _ := newPlayerFixture(true)
	gw.searchTracks = []domain.Track{{ID: "a"}, {ID: "b"}}

	tracks, err := svc.Search(context.Background(), "  daft punk  ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("len = %d, want 2", len(tracks))
	}
}

func TestPlayerService_Search_QueryTooShort(t *testing.T) {
	svc, _, _ := newPlayerFixture(true)

	for _, q := range []string{"", "a", "  a  ", " "} {
		if _, err := svc.Search(context.Background(), q); !errors.Is(err, ErrQueryTooShort) {
			t.Errorf("Search(%q) err = %v, want ErrQueryTooShort", q, err)
		}
	}
}

func TestPlayerService_Search_ShortQueryBeforeAuth(t *testing.T) {
	// Malformed queries are rejected even when no host is authenticated.
	svc, _, _ := newPlayerFixture(false)

	if _, err := svc.Search(context.Background(), "a"); !errors.Is(err, ErrQueryTooShort) {
		t.Fatalf("err = %v, want ErrQueryTooShort", err)
	}
	if _, err := svc.Search(context.Background(), "ab"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
}

func TestPlayerService_Search_UpstreamError(t *testing.T) {
	svc, gw, _ := newPlayerFixture(true)
	gw.searchErr = &spotify.APIError{Status: 502, Body: "bad gateway"}

	_, err := svc.Search(context.Background(), "daft punk")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
	if ue.Op != "search" {
		t.Fatalf("op = %q", ue.Op)
	}
}

func TestPlayerService_NowPlaying(t *testing.T) {
	svc, gw, _ := newPlayerFixture(true)
	track := domain.Track{ID: "abc", Name: "Song"}
	gw.nowPlaying = domain.NowPlaying{Track: &track, IsPlaying: true, ProgressMS: 420}

	np, err := svc.NowPlaying(context.Background())
	if err != nil {
		t.Fatalf("NowPlaying: %v", err)
	}
	if np.Track == nil || np.Track.ID != "abc" || !np.IsPlaying {
		t.Fatalf("snapshot = %+v", np)
	}
}

func TestPlayerService_NowPlaying_NotAuthenticated(t *testing.T) {
	svc, _, _ := newPlayerFixture(false)
	if _, err := svc.NowPlaying(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
}

func TestPlayerService_State(t *testing.T) {
	svc, gw, ledger := newPlayerFixture(true)
	track := domain.Track{ID: "abc"}
	gw.nowPlaying = domain.NowPlaying{Track: &track, IsPlaying: true}
	gw.queueTracks = []domain.Track{{ID: "up1"}}
	ledger.Append(domain.Track{ID: "local1", Name: "Local"}, "1b2c3d4e")

	st, err := svc.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.NowPlaying.Track == nil || st.NowPlaying.Track.ID != "abc" {
		t.Fatalf("nowPlaying = %+v", st.NowPlaying)
	}
	if len(st.SpotifyQueue) != 1 || st.SpotifyQueue[0].ID != "up1" {
		t.Fatalf("spotifyQueue = %+v", st.SpotifyQueue)
	}
	if len(st.LocalQueue) != 1 || st.LocalQueue[0].Track.ID != "local1" {
		t.Fatalf("localQueue = %+v", st.LocalQueue)
	}
}

func TestPlayerService_State_UpstreamError(t *testing.T) {
	svc, gw, _ := newPlayerFixture(true)
	gw.queueErr = &spotify.APIError{Status: 503, Body: "unavailable"}

	_, err := svc.State(context.Background())
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
}

func TestPlayerService_State_GatewayAuthErrorMapsThrough(t *testing.T) {
	svc, gw, _ := newPlayerFixture(true)
	gw.nowPlayingErr = spotify.ErrNotAuthenticated

	if _, err := svc.State(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
}
