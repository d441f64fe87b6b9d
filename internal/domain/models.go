// Package domain defines the core data types shared across the jukebox
// services: tracks, queue submissions, playback snapshots, and the host
// credential. All state built from these types is memory-resident by design;
// nothing here survives a process restart.
package domain

import "time"

// Track is the service-local view of an upstream track. It is produced by
// the provider gateway from Spotify API responses and serialized as-is to
// API clients.
//
// Fields:
//   - ID: provider track identifier (22 alphanumeric characters).
//   - URI: provider playback URI ("spotify:track:<id>").
//   - Artist: display string of all artists, joined with ", ".
//   - AlbumArt: URL of the first album image, or "" when none exists.
//   - DurationMS: track length in milliseconds (wire name "duration").
type Track struct {
	ID         string `json:"id"`
	URI        string `json:"uri"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	AlbumArt   string `json:"albumArt"`
	DurationMS int    `json:"duration"`
}

// QueueItem is one accepted submission recorded in the local queue ledger.
//
// AddedBy is a short one-way digest of the submitter's network identity;
// raw identifiers are never stored or exposed.
type QueueItem struct {
	Track   Track     `json:"track"`
	AddedAt time.Time `json:"addedAt"`
	AddedBy string    `json:"addedBy"`
}

// NowPlaying is a transient snapshot of the host's playback state. It is
// derived from the upstream provider on each poll and never stored.
// Track is nil when nothing is playing.
type NowPlaying struct {
	Track      *Track `json:"track"`
	IsPlaying  bool   `json:"isPlaying"`
	ProgressMS int    `json:"progress"`
}

// Credential is the host's OAuth token pair. At most one Credential exists
// at a time; it is owned by the token lifecycle manager and replaced
// wholesale on refresh or exchange.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
