package models

import "time"

// Progress is the per-collection discovery cursor. LastVideoID is the
// watermark: the newest item known to have been fully discovered.
// Acquisition never reads this table; it scans the videos table instead.
type Progress struct {
	ChannelName  string `gorm:"primaryKey;column:channel_name"`
	LastVideoID  string
	TotalScraped int
	LastUpdated  time.Time
	Status       string
}

// TableName keeps compatibility with ledgers written by earlier versions.
func (Progress) TableName() string { return "scraping_progress" }
