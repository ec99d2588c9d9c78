package ytdlp

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

// FetchMedia downloads the media artifact for one video using one fetch
// variant. Incomplete leftovers from earlier runs are purged first; an
// already-present substantial file short-circuits the download. A
// downloaded file below the minimum size is deleted and reported as an
// IntegrityError, never as success.
func (c *Client) FetchMedia(ctx context.Context, videoID string, variant MediaVariant) (MediaResult, error) {
	if existing, ok := c.cleanAndFindExisting(videoID); ok {
		c.logger.WithFields(logrus.Fields{
			"video_id": videoID,
			"path":     existing.Path,
			"size_mb":  fmt.Sprintf("%.1f", existing.SizeMB()),
		}).Info("Found existing complete media file")
		return existing, nil
	}

	timeout := variant.Timeout
	if timeout == 0 {
		timeout = c.cfg.MediaTimeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := c.mediaArgs(videoID, variant)
	c.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"variant":  variant.Name,
	}).Info("Attempting media download")

	_, stderr, err := c.run(fetchCtx, args...)
	if err != nil {
		diagnostic := strings.TrimSpace(stderr)
		if diagnostic == "" {
			diagnostic = err.Error()
		}
		if c.classifier.IsGoneSignal(diagnostic) {
			return MediaResult{}, ErrVideoGone
		}
		if c.classifier.IsBlockSignal(diagnostic) {
			return MediaResult{}, &BlockError{Diagnostic: diagnostic}
		}
		return MediaResult{}, fmt.Errorf("media download failed for %s: %s", videoID, diagnostic)
	}

	result, ok := c.largestCompleteFile(videoID)
	if !ok {
		return MediaResult{}, fmt.Errorf("download reported success for %s but no file found", videoID)
	}
	if result.SizeBytes <= c.cfg.MinMediaSizeBytes {
		_ = os.Remove(result.Path)
		return MediaResult{}, &IntegrityError{Path: result.Path, SizeBytes: result.SizeBytes}
	}

	c.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"path":     result.Path,
		"size_mb":  fmt.Sprintf("%.1f", result.SizeMB()),
		"variant":  variant.Name,
	}).Info("Downloaded media")
	return result, nil
}

// mediaArgs translates a variant descriptor into a yt-dlp invocation.
func (c *Client) mediaArgs(videoID string, v MediaVariant) []string {
	args := []string{
		"--no-warnings",
		"--socket-timeout", "60",
		"--retries", "1",
		"--paths", c.layout.MediaDir(),
		"-o", videoID + ".%(ext)s",
	}

	if v.CookiesBrowser != "" {
		args = append(args, "--cookies-from-browser", v.CookiesBrowser)
	}
	if v.UserAgent != "" {
		args = append(args, "--user-agent", v.UserAgent)
	}
	if v.SleepRequests > 0 {
		args = append(args, "--sleep-requests", strconv.Itoa(v.SleepRequests))
	}
	if v.SleepInterval > 0 {
		args = append(args, "--sleep-interval", strconv.Itoa(v.SleepInterval))
	}
	if v.MaxSleepInterval > 0 {
		args = append(args, "--max-sleep-interval", strconv.Itoa(v.MaxSleepInterval))
	}

	if c.layout.AudioOnly {
		args = append(args, "-x", "--audio-format", "mp3")
		if v.AudioQuality != "" {
			args = append(args, "--audio-quality", v.AudioQuality)
		}
	} else if v.VideoFormat != "" {
		args = append(args, "--format", v.VideoFormat)
	}

	return append(args, watchURL(videoID))
}

// cleanAndFindExisting purges incomplete/undersized leftovers and returns
// a pre-existing complete file when one survives.
func (c *Client) cleanAndFindExisting(videoID string) (MediaResult, bool) {
	files, err := c.layout.MediaFiles(videoID)
	if err != nil {
		return MediaResult{}, false
	}

	var best MediaResult
	for _, f := range files {
		size := utils.FileSize(f)
		if utils.IsIncompleteFile(f) || size <= c.cfg.MinMediaSizeBytes {
			if err := os.Remove(f); err == nil {
				c.logger.WithField("file", f).Info("Cleaned up incomplete file")
			}
			continue
		}
		if size > best.SizeBytes {
			best = MediaResult{Path: f, SizeBytes: size}
		}
	}
	return best, best.Path != ""
}

// largestCompleteFile returns the largest non-temporary file for the
// video, if any.
func (c *Client) largestCompleteFile(videoID string) (MediaResult, bool) {
	files, err := c.layout.MediaFiles(videoID)
	if err != nil {
		return MediaResult{}, false
	}
	var best MediaResult
	for _, f := range files {
		if utils.IsIncompleteFile(f) {
			continue
		}
		if size := utils.FileSize(f); size > best.SizeBytes {
			best = MediaResult{Path: f, SizeBytes: size}
		}
	}
	return best, best.Path != ""
}
