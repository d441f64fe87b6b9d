package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-jukebox-backend/internal/domain"
	"github.com/tbourn/go-jukebox-backend/internal/identity"
	"github.com/tbourn/go-jukebox-backend/internal/queue"
	"github.com/tbourn/go-jukebox-backend/internal/ratelimit"
	"github.com/tbourn/go-jukebox-backend/internal/spotify"
)

type fakeAuth struct {
	authenticated bool
}

func (f fakeAuth) IsAuthenticated() bool { return f.authenticated }

type fakeGateway struct {
	searchTracks []domain.Track
	searchErr    error

	nowPlaying    domain.NowPlaying
	nowPlayingErr error

	enqueueErr   error
	enqueueCalls int
	enqueuedURIs []string

	queueTracks []domain.Track
	queueErr    error
}

func (f *fakeGateway) Search(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	return f.searchTracks, f.searchErr
}

func (f *fakeGateway) NowPlaying(ctx context.Context) (domain.NowPlaying, error) {
	return f.nowPlaying, f.nowPlayingErr
}

func (f *fakeGateway) Enqueue(ctx context.Context, trackURI string) error {
	f.enqueueCalls++
	f.enqueuedURIs = append(f.enqueuedURIs, trackURI)
	return f.enqueueErr
}

func (f *fakeGateway) Queue(ctx context.Context) ([]domain.Track, error) {
	return f.queueTracks, f.queueErr
}

const validURI = "spotify:track:4uLU6hMCjMI75M1A2tKUQC"

func validTrack() domain.Track {
	return domain.Track{
		ID:     "4uLU6hMCjMI75M1A2tKUQC",
		URI:    validURI,
		Name:   "One More Time",
		Artist: "Daft Punk",
	}
}

func newQueueFixture(auth bool) (*QueueService, *fakeGateway, *queue.Ledger, *ratelimit.Limiter) {
	gw := &fakeGateway{}
	ledger := queue.NewLedger()
	limiter := ratelimit.New(5, 10*time.Minute)
	svc := NewQueueService(fakeAuth{authenticated: auth}, gw, ledger, limiter)
	return svc, gw, ledger, limiter
}

func TestQueueService_Add(t *testing.T) {
	svc, gw, ledger, _ := newQueueFixture(true)

	adm, err := svc.Add(context.Background(), "203.0.113.9", validURI, validTrack())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if gw.enqueueCalls != 1 || gw.enqueuedURIs[0] != validURI {
		t.Fatalf("enqueue calls %d, uris %v", gw.enqueueCalls, gw.enqueuedURIs)
	}
	if adm.Limit != 5 || adm.Remaining != 4 {
		t.Fatalf("quota after add = %d/%d", adm.Remaining, adm.Limit)
	}
	if adm.Item.AddedBy != identity.ShortKey("203.0.113.9") {
		t.Fatalf("addedBy = %q", adm.Item.AddedBy)
	}
	if !ledger.Contains("4uLU6hMCjMI75M1A2tKUQC") {
		t.Fatal("ledger missing accepted track")
	}
}

func TestQueueService_Add_NotAuthenticated(t *testing.T) {
	svc, gw, _, _ := newQueueFixture(false)

	_, err := svc.Add(context.Background(), "c", validURI, validTrack())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
	if gw.enqueueCalls != 0 {
		t.Fatal("unauthenticated add must not reach the gateway")
	}
}

func TestQueueService_Add_InvalidURI(t *testing.T) {
	svc, gw, _, _ := newQueueFixture(true)

	_, err := svc.Add(context.Background(), "c", "spotify:album:4uLU6hMCjMI75M1A2tKUQC", validTrack())
	if !errors.Is(err, ErrInvalidTrackURI) {
		t.Fatalf("err = %v, want ErrInvalidTrackURI", err)
	}
	if gw.enqueueCalls != 0 {
		t.Fatal("invalid URI must not reach the gateway")
	}
}

func TestQueueService_Add_MissingTrackInfo(t *testing.T) {
	svc, _, _, _ := newQueueFixture(true)

	track := validTrack()
	track.Name = ""
	if _, err := svc.Add(context.Background(), "c", validURI, track); !errors.Is(err, ErrTrackInfoRequired) {
		t.Fatalf("err = %v, want ErrTrackInfoRequired", err)
	}

	track = validTrack()
	track.ID = ""
	if _, err := svc.Add(context.Background(), "c", validURI, track); !errors.Is(err, ErrTrackInfoRequired) {
		t.Fatalf("err = %v, want ErrTrackInfoRequired", err)
	}
}

func TestQueueService_Add_Duplicate(t *testing.T) {
	svc, gw, _, limiter := newQueueFixture(true)

	if _, err := svc.Add(context.Background(), "c", validURI, validTrack()); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	_, err := svc.Add(context.Background(), "c", validURI, validTrack())
	if !errors.Is(err, ErrDuplicateTrack) {
		t.Fatalf("err = %v, want ErrDuplicateTrack", err)
	}
	if gw.enqueueCalls != 1 {
		t.Fatalf("enqueue calls = %d, duplicate must not reach the gateway", gw.enqueueCalls)
	}
	// Rejected duplicates do not consume quota.
	if d := limiter.Check(identity.Key("c")); d.Remaining != 4 {
		t.Fatalf("remaining = %d, want 4", d.Remaining)
	}
}

func TestQueueService_Add_RateLimited(t *testing.T) {
	svc, gw, _, _ := newQueueFixture(true)

	ids := []string{
		"4uLU6hMCjMI75M1A2tKUQ0",
		"4uLU6hMCjMI75M1A2tKUQ1",
		"4uLU6hMCjMI75M1A2tKUQ2",
		"4uLU6hMCjMI75M1A2tKUQ3",
		"4uLU6hMCjMI75M1A2tKUQ4",
	}
	for _, id := range ids {
		track := domain.Track{ID: id, URI: "spotify:track:" + id, Name: "T"}
		if _, err := svc.Add(context.Background(), "c", track.URI, track); err != nil {
			t.Fatalf("Add %s: %v", id, err)
		}
	}

	track := validTrack()
	_, err := svc.Add(context.Background(), "c", validURI, track)
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("err = %v, want *RateLimitError", err)
	}
	if rle.Limit != 5 || rle.Remaining != 0 {
		t.Fatalf("rate limit error = %+v", rle)
	}
	if rle.RetryAfter <= 0 {
		t.Fatalf("retryAfter = %d, want > 0", rle.RetryAfter)
	}
	if gw.enqueueCalls != 5 {
		t.Fatalf("enqueue calls = %d, limited add must not reach the gateway", gw.enqueueCalls)
	}
}

func TestQueueService_Add_UpstreamFailureChargesNothing(t *testing.T) {
	svc, gw, ledger, limiter := newQueueFixture(true)
	gw.enqueueErr = &spotify.APIError{Status: 502, Body: "bad gateway"}

	_, err := svc.Add(context.Background(), "c", validURI, validTrack())
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
	if ledger.Len() != 0 {
		t.Fatal("failed enqueue must not be recorded")
	}
	if d := limiter.Check(identity.Key("c")); d.Remaining != 5 {
		t.Fatalf("remaining = %d, failed enqueue must not consume quota", d.Remaining)
	}
}

func TestQueueService_Add_GatewayAuthErrorMapsThrough(t *testing.T) {
	svc, gw, _, _ := newQueueFixture(true)
	gw.enqueueErr = spotify.ErrNotAuthenticated

	if _, err := svc.Add(context.Background(), "c", validURI, validTrack()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
}

func TestQueueService_Quota(t *testing.T) {
	svc, _, _, limiter := newQueueFixture(true)

	d := svc.Quota("203.0.113.9")
	if d.Limit != 5 || d.Remaining != 5 {
		t.Fatalf("quota = %d/%d", d.Remaining, d.Limit)
	}
	// Quota reads never consume.
	svc.Quota("203.0.113.9")
	if d := limiter.Check(identity.Key("203.0.113.9")); d.Remaining != 5 {
		t.Fatalf("remaining = %d after reads", d.Remaining)
	}
}

func TestQueueService_Queues(t *testing.T) {
	svc, gw, ledger, _ := newQueueFixture(true)
	gw.queueTracks = []domain.Track{{ID: "up1"}, {ID: "up2"}}
	ledger.Append(validTrack(), "1b2c3d4e")

	spotifyQueue, localQueue, err := svc.Queues(context.Background())
	if err != nil {
		t.Fatalf("Queues: %v", err)
	}
	if len(spotifyQueue) != 2 || len(localQueue) != 1 {
		t.Fatalf("spotify %d, local %d", len(spotifyQueue), len(localQueue))
	}
}

func TestQueueService_Queues_Errors(t *testing.T) {
	svc, gw, _, _ := newQueueFixture(true)
	gw.queueErr = &spotify.APIError{Status: 500, Body: "boom"}

	_, _, err := svc.Queues(context.Background())
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}

	svc, _, _, _ = newQueueFixture(false)
	if _, _, err := svc.Queues(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
}
