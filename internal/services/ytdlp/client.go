// Package ytdlp wraps the yt-dlp binary: it is both the enumeration
// collaborator (lazy flat-playlist listing) and the fetch collaborator
// (captions, media, existence probes) of the acquisition pipeline.
package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/config"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

// Client invokes yt-dlp for one collection's pipeline.
type Client struct {
	bin        string
	cfg        *config.Config
	layout     *utils.Layout
	classifier *Classifier
	logger     *logrus.Logger
}

// NewClient creates a yt-dlp client and verifies the binary responds.
func NewClient(cfg *config.Config, layout *utils.Layout, classifier *Classifier, logger *logrus.Logger) (*Client, error) {
	c := &Client{
		bin:        cfg.YtdlpPath,
		cfg:        cfg,
		layout:     layout,
		classifier: classifier,
		logger:     logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	version, _, err := c.run(ctx, "--version")
	if err != nil {
		return nil, fmt.Errorf("yt-dlp is not available (install it: pip install yt-dlp): %w", err)
	}
	logger.WithField("version", strings.TrimSpace(version)).Info("yt-dlp found")

	return c, nil
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// run executes yt-dlp with the given arguments under ctx and returns
// stdout and stderr. The stderr text is what block/gone classification
// inspects.
func (c *Client) run(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		// Timeouts are transient, never a block signal.
		return stdout.String(), stderr.String(), fmt.Errorf("yt-dlp timed out: %w", ctx.Err())
	}
	return stdout.String(), stderr.String(), err
}

// Probe performs a cheap existence check without downloading anything.
// It returns ErrVideoGone only on a definitive deletion signal; timeouts
// and ambiguous failures assume the video still exists.
func (c *Client) Probe(ctx context.Context, videoID string) error {
	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	args := []string{
		"--cookies-from-browser", c.cfg.CookiesBrowser,
		"--quiet",
		"--skip-download",
		"--print", "title",
		watchURL(videoID),
	}
	_, stderr, err := c.run(probeCtx, args...)
	if err == nil {
		return nil
	}
	if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
		c.logger.WithField("video_id", videoID).Warn("Probe timed out, assuming video exists")
		return nil
	}
	if c.classifier.IsGoneSignal(stderr) {
		c.logger.WithField("video_id", videoID).Info("Video is definitively deleted/unavailable")
		return ErrVideoGone
	}
	c.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"error":    strings.TrimSpace(stderr),
	}).Debug("Probe failed transiently, assuming video exists")
	return nil
}
