package models

import (
	"encoding/json"
	"time"
)

// Video is the per-item ledger record. The video id is immutable once
// created; every other field only ever becomes more complete, except for
// the evaluator's completed -> partial downgrade on filesystem drift.
type Video struct {
	VideoID string `gorm:"primaryKey;column:video_id"`

	// Descriptive metadata captured at discovery time.
	Title              string
	DescriptionSnippet string
	PublishedTime      string
	LengthText         string
	ViewCountText      string
	ShortViewCountText string
	ThumbnailURL       string `gorm:"column:thumbnail_url"`
	ChannelVerified    bool
	ChannelName        string `gorm:"index"`

	// Raw serialized descriptor, kept for forward-compatible re-derivation.
	RawData string

	// Artifact locations.
	SubtitlePath      string
	AutoSubtitlePath  string
	SubtitleType      SubtitleKind
	SubtitleLanguages string // JSON array of requested languages
	AudioPath         string
	VideoPath         string
	DownloadStatus    string
	FileSizeMB        float64 `gorm:"column:file_size_mb"`

	// Granular completion tracking. MetadataCompleted is a pointer so that
	// rows created before granular tracking existed stay NULL and trigger
	// file-based initialization on first evaluation.
	MetadataCompleted  *bool
	SubtitlesCompleted string           // JSON map of language -> LangStatus
	MediaCompleted     bool
	ProcessingStatus   ProcessingStatus `gorm:"index"`
	LastProcessingStep string
	CompletionDetails  string // JSON map of free-form diagnostics

	// Timestamps. ScrapedAt is the first-seen time and drives acquisition
	// ordering.
	ScrapedAt            time.Time `gorm:"autoCreateTime;index"`
	SubtitleDownloadedAt *time.Time
	DownloadedAt         *time.Time
}

// TableName keeps the table compatible with ledgers written by earlier
// versions of the scraper.
func (Video) TableName() string { return "videos" }

// SubtitleStatuses decodes the per-language caption status map. A corrupt
// or empty column yields an empty map rather than an error, so stale rows
// fall back to file-based reconciliation.
func (v *Video) SubtitleStatuses() map[string]LangStatus {
	out := make(map[string]LangStatus)
	if v.SubtitlesCompleted == "" {
		return out
	}
	if err := json.Unmarshal([]byte(v.SubtitlesCompleted), &out); err != nil {
		return make(map[string]LangStatus)
	}
	return out
}

// Details decodes the free-form completion diagnostics map.
func (v *Video) Details() map[string]any {
	out := make(map[string]any)
	if v.CompletionDetails == "" {
		return out
	}
	if err := json.Unmarshal([]byte(v.CompletionDetails), &out); err != nil {
		return make(map[string]any)
	}
	return out
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
