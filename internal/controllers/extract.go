package controllers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/models"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/services/ytdlp"
)

// richText is a text field that may arrive as a plain string, a
// {"simpleText": ...} wrapper, or a {"runs": [{"text": ...}, ...]} list.
// Runs are concatenated with spaces.
type richText string

func (t *richText) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*t = richText(plain)
		return nil
	}

	var structured struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(data, &structured); err != nil {
		return err
	}
	if len(structured.Runs) > 0 {
		parts := make([]string, 0, len(structured.Runs))
		for _, run := range structured.Runs {
			parts = append(parts, run.Text)
		}
		*t = richText(strings.Join(parts, " "))
		return nil
	}
	*t = richText(structured.SimpleText)
	return nil
}

type thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type rawDescriptor struct {
	VideoID            string   `json:"videoId"`
	ID                 string   `json:"id"`
	Title              richText `json:"title"`
	DescriptionSnippet richText `json:"descriptionSnippet"`
	Description        richText `json:"description"`
	PublishedTimeText  richText `json:"publishedTimeText"`
	LengthText         richText `json:"lengthText"`
	ViewCountText      richText `json:"viewCountText"`
	ShortViewCountText richText `json:"shortViewCountText"`
	DurationSeconds    float64  `json:"duration"`
	Thumbnail          struct {
		Thumbnails []thumbnail `json:"thumbnails"`
	} `json:"thumbnail"`
	Thumbnails  []thumbnail `json:"thumbnails"`
	OwnerBadges []struct {
		MetadataBadgeRenderer struct {
			Style string `json:"style"`
		} `json:"metadataBadgeRenderer"`
	} `json:"ownerBadges"`
}

// extractVideo flattens a raw descriptor into a ledger record. The raw
// payload is kept verbatim so fields can be re-derived later if the
// extraction improves.
func extractVideo(d *ytdlp.Descriptor) *models.Video {
	video := &models.Video{
		VideoID: d.VideoID,
		RawData: string(d.Raw),
	}

	var raw rawDescriptor
	if err := json.Unmarshal(d.Raw, &raw); err != nil {
		// Keep at least the id and raw payload.
		return video
	}

	video.Title = string(raw.Title)
	video.DescriptionSnippet = string(raw.DescriptionSnippet)
	if video.DescriptionSnippet == "" {
		video.DescriptionSnippet = string(raw.Description)
	}
	video.PublishedTime = string(raw.PublishedTimeText)
	video.ViewCountText = string(raw.ViewCountText)
	video.ShortViewCountText = string(raw.ShortViewCountText)

	video.LengthText = string(raw.LengthText)
	if video.LengthText == "" && raw.DurationSeconds > 0 {
		video.LengthText = formatDuration(int(raw.DurationSeconds))
	}

	// Pick the maximum-area thumbnail among available resolutions.
	thumbs := raw.Thumbnail.Thumbnails
	if len(thumbs) == 0 {
		thumbs = raw.Thumbnails
	}
	bestArea := -1
	for _, t := range thumbs {
		if area := t.Width * t.Height; area > bestArea {
			bestArea = area
			video.ThumbnailURL = t.URL
		}
	}

	for _, badge := range raw.OwnerBadges {
		if badge.MetadataBadgeRenderer.Style == "BADGE_STYLE_TYPE_VERIFIED" {
			video.ChannelVerified = true
			break
		}
	}

	return video
}

// formatDuration renders seconds as YouTube-style duration text.
func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
