package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/models"
)

// ExportCSV writes the ledger to a CSV file, newest-first, matching the
// column set earlier exports used.
func ExportCSV(videos []*models.Video, outputFile string) error {
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"video_id", "title", "description_snippet", "published_time",
		"length_text", "view_count_text", "short_view_count_text",
		"thumbnail_url", "channel_verified", "channel_name",
		"subtitle_path", "subtitle_type", "auto_subtitle_path",
		"subtitle_languages", "audio_path", "video_path",
		"download_status", "file_size_mb", "processing_status",
		"subtitle_downloaded_at", "downloaded_at", "scraped_at",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	formatTime := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	for _, v := range videos {
		record := []string{
			v.VideoID, v.Title, v.DescriptionSnippet, v.PublishedTime,
			v.LengthText, v.ViewCountText, v.ShortViewCountText,
			v.ThumbnailURL, strconv.FormatBool(v.ChannelVerified), v.ChannelName,
			v.SubtitlePath, string(v.SubtitleType), v.AutoSubtitlePath,
			v.SubtitleLanguages, v.AudioPath, v.VideoPath,
			v.DownloadStatus, strconv.FormatFloat(v.FileSizeMB, 'f', 1, 64),
			string(v.ProcessingStatus),
			formatTime(v.SubtitleDownloadedAt), formatTime(v.DownloadedAt),
			v.ScrapedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
