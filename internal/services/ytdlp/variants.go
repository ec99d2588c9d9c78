package ytdlp

import "time"

// PrimaryVariant is the strategy used for normal downloads: the
// configured browser's cookies at best quality.
func PrimaryVariant(cookiesBrowser string) MediaVariant {
	return MediaVariant{
		Name:           "primary",
		CookiesBrowser: cookiesBrowser,
		AudioQuality:   "0",
		VideoFormat:    "best[height<=720]",
	}
}

// FallbackLadder is the ordered escalation ladder tried after a block
// signal: each rung varies credential source, quality target and request
// pacing, with an increasing cooldown after failure.
func FallbackLadder() []MediaVariant {
	return []MediaVariant{
		{
			Name:           "firefox cookies + best audio",
			CookiesBrowser: "firefox",
			AudioQuality:   "0",
			VideoFormat:    "best[height<=720]",
			Timeout:        120 * time.Second,
			Cooldown:       30 * time.Second,
		},
		{
			Name:           "chrome cookies + lower quality",
			CookiesBrowser: "chrome",
			AudioQuality:   "5",
			VideoFormat:    "best[height<=480]",
			Timeout:        120 * time.Second,
			Cooldown:       60 * time.Second,
		},
		{
			Name:             "no cookies + delays + worst quality",
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			SleepRequests:    3,
			SleepInterval:    10,
			MaxSleepInterval: 20,
			VideoFormat:      "worst",
			Timeout:          300 * time.Second,
		},
	}
}
