package ytdlp

import (
	"encoding/json"
	"time"
)

// Collection identifies one enumeration source: a channel username or a
// playlist id.
type Collection struct {
	Identifier string
	IsPlaylist bool
}

// Key returns the ledger identifier for the collection. Playlists carry a
// prefix so a channel and a playlist with the same name never share a
// cursor row.
func (c Collection) Key() string {
	if c.IsPlaylist {
		return "playlist_" + c.Identifier
	}
	return c.Identifier
}

// URL returns the enumeration URL for the collection.
func (c Collection) URL() string {
	if c.IsPlaylist {
		return "https://www.youtube.com/playlist?list=" + c.Identifier
	}
	return "https://www.youtube.com/@" + c.Identifier + "/videos"
}

// Descriptor is one enumerated item: the video id plus the raw metadata
// blob it came from.
type Descriptor struct {
	VideoID string
	Raw     json.RawMessage
}

// SubtitleOutcome reports which caption tracks a fetch obtained for one
// language. Both paths empty means nothing was obtained.
type SubtitleOutcome struct {
	ManualPath string
	AutoPath   string
}

// Obtained reports whether at least one caption track was fetched.
func (o SubtitleOutcome) Obtained() bool {
	return o.ManualPath != "" || o.AutoPath != ""
}

// MediaResult reports a successful media fetch.
type MediaResult struct {
	Path      string
	SizeBytes int64
}

// SizeMB returns the file size in megabytes.
func (r MediaResult) SizeMB() float64 {
	return float64(r.SizeBytes) / (1024 * 1024)
}

// MediaVariant is one rung of the escalation ladder: a complete fetch
// strategy described as data, so adding a fallback is a data change.
type MediaVariant struct {
	Name string

	// CookiesBrowser selects the browser cookie store; empty means no
	// cookies (paired with UserAgent).
	CookiesBrowser string
	UserAgent      string

	// AudioQuality applies when downloading audio ("0" best .. "9" worst).
	AudioQuality string
	// VideoFormat applies when downloading video (yt-dlp format selector).
	VideoFormat string

	// Request pacing flags, in seconds. Zero omits the flag.
	SleepRequests    int
	SleepInterval    int
	MaxSleepInterval int

	// Timeout bounds the invocation; zero falls back to the configured
	// media timeout. Cooldown is waited after this rung fails before the
	// next one is tried.
	Timeout  time.Duration
	Cooldown time.Duration
}
