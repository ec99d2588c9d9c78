package ytdlp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

// FetchSubtitles attempts to download the manual and auto caption tracks
// for one video and one language. An empty outcome with a nil error never
// happens: if nothing was obtained the last failure is returned so the
// caller can retry or mark the language not_available.
func (c *Client) FetchSubtitles(ctx context.Context, videoID, lang string) (SubtitleOutcome, error) {
	if err := os.MkdirAll(c.layout.SubtitleLangDir(lang), 0755); err != nil {
		return SubtitleOutcome{}, fmt.Errorf("failed to create subtitle directory: %w", err)
	}

	outcome := SubtitleOutcome{}
	manualFile := c.layout.ManualSubtitlePath(videoID, lang)
	autoFile := c.layout.AutoSubtitlePath(videoID, lang)

	var lastErr error

	if utils.NonEmptyFile(manualFile) {
		outcome.ManualPath = manualFile
	} else {
		if err := c.fetchSubtitleTrack(ctx, videoID, lang, false); err != nil {
			lastErr = err
		}
		if utils.NonEmptyFile(manualFile) {
			outcome.ManualPath = manualFile
			c.logger.WithFields(logrus.Fields{
				"video_id": videoID,
				"language": lang,
			}).Info("Downloaded manual subtitles")
		} else {
			removeEmpty(manualFile)
		}
	}

	if utils.NonEmptyFile(autoFile) {
		outcome.AutoPath = autoFile
	} else {
		if err := c.fetchSubtitleTrack(ctx, videoID, lang, true); err != nil {
			lastErr = err
		}
		if utils.NonEmptyFile(autoFile) {
			outcome.AutoPath = autoFile
			c.logger.WithFields(logrus.Fields{
				"video_id": videoID,
				"language": lang,
			}).Info("Downloaded auto subtitles")
		} else {
			removeEmpty(autoFile)
		}
	}

	if !outcome.Obtained() {
		if lastErr != nil {
			return outcome, lastErr
		}
		return outcome, fmt.Errorf("no %s captions available for %s", lang, videoID)
	}
	return outcome, nil
}

// fetchSubtitleTrack runs one caption invocation. auto selects
// auto-generated captions over manual ones.
func (c *Client) fetchSubtitleTrack(ctx context.Context, videoID, lang string, auto bool) error {
	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.SubtitleTimeout)
	defer cancel()

	subsFlag := "--write-subs"
	suffix := "manual"
	if auto {
		subsFlag = "--write-auto-subs"
		suffix = "auto"
	}

	args := []string{
		"--cookies-from-browser", c.cfg.CookiesBrowser,
		subsFlag,
		"--sub-lang", lang,
		"--sub-format", "srt",
		"--skip-download",
		"-o", c.layout.SubtitleLangDir(lang) + "/" + videoID + "_" + suffix + ".%(ext)s",
		watchURL(videoID),
	}

	_, stderr, err := c.run(fetchCtx, args...)
	if err == nil {
		return nil
	}
	if c.classifier.IsBlockSignal(stderr) {
		c.logger.WithFields(logrus.Fields{
			"video_id": videoID,
			"language": lang,
			"error":    strings.TrimSpace(stderr),
		}).Warn("Authentication error in subtitle download")
		return &BlockError{Diagnostic: strings.TrimSpace(stderr)}
	}
	return fmt.Errorf("subtitle download failed for %s/%s: %w", videoID, lang, err)
}

func removeEmpty(path string) {
	if info, err := os.Stat(path); err == nil && info.Size() == 0 {
		_ = os.Remove(path)
	}
}
