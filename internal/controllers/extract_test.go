package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/services/ytdlp"
)

func TestExtractVideoRunsShapedFields(t *testing.T) {
	raw := `{
		"videoId": "abc",
		"title": {"runs": [{"text": "Part one"}, {"text": "part two"}]},
		"lengthText": {"simpleText": "12:34"},
		"viewCountText": {"simpleText": "1,234 views"},
		"publishedTimeText": {"simpleText": "2 years ago"},
		"thumbnail": {"thumbnails": [
			{"url": "small.jpg", "width": 120, "height": 90},
			{"url": "big.jpg", "width": 640, "height": 480},
			{"url": "medium.jpg", "width": 320, "height": 180}
		]},
		"ownerBadges": [{"metadataBadgeRenderer": {"style": "BADGE_STYLE_TYPE_VERIFIED"}}]
	}`
	video := extractVideo(&ytdlp.Descriptor{VideoID: "abc", Raw: []byte(raw)})

	assert.Equal(t, "abc", video.VideoID)
	assert.Equal(t, "Part one part two", video.Title, "runs are joined with spaces")
	assert.Equal(t, "12:34", video.LengthText)
	assert.Equal(t, "1,234 views", video.ViewCountText)
	assert.Equal(t, "2 years ago", video.PublishedTime)
	assert.Equal(t, "big.jpg", video.ThumbnailURL, "largest-area thumbnail wins")
	assert.True(t, video.ChannelVerified)
	assert.JSONEq(t, raw, video.RawData)
}

func TestExtractVideoFlatFields(t *testing.T) {
	raw := `{
		"id": "xyz",
		"title": "Plain title",
		"description": "a description",
		"duration": 5025,
		"thumbnails": [{"url": "t.jpg", "width": 336, "height": 188}]
	}`
	video := extractVideo(&ytdlp.Descriptor{VideoID: "xyz", Raw: []byte(raw)})

	assert.Equal(t, "Plain title", video.Title)
	assert.Equal(t, "a description", video.DescriptionSnippet)
	assert.Equal(t, "1:23:45", video.LengthText, "duration seconds synthesize length text")
	assert.Equal(t, "t.jpg", video.ThumbnailURL)
	assert.False(t, video.ChannelVerified)
}

func TestExtractVideoShortDuration(t *testing.T) {
	video := extractVideo(&ytdlp.Descriptor{VideoID: "x", Raw: []byte(`{"duration": 754}`)})
	assert.Equal(t, "12:34", video.LengthText)
}

func TestExtractVideoMalformedPayload(t *testing.T) {
	video := extractVideo(&ytdlp.Descriptor{VideoID: "bad", Raw: []byte(`not json`)})
	assert.Equal(t, "bad", video.VideoID)
	assert.Equal(t, "not json", video.RawData)
	assert.Empty(t, video.Title)
}
