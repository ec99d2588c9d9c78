package controllers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/completion"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/config"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/models"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/services/ytdlp"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

const testMinSize = 1024

// fakeFetcher scripts the fetch collaborator. Successful fetches write
// real files so the completion evaluator sees them.
type fakeFetcher struct {
	layout *utils.Layout

	goneVideos       map[string]bool
	blockSubtitles   bool
	blockMedia       bool
	noSubtitles      bool
	cancelOnSubtitle context.CancelFunc

	probeCalls    int
	subtitleCalls int
	mediaCalls    int
}

func (f *fakeFetcher) Probe(ctx context.Context, videoID string) error {
	f.probeCalls++
	if f.goneVideos[videoID] {
		return ytdlp.ErrVideoGone
	}
	return nil
}

func (f *fakeFetcher) FetchSubtitles(ctx context.Context, videoID, lang string) (ytdlp.SubtitleOutcome, error) {
	f.subtitleCalls++
	if f.cancelOnSubtitle != nil {
		f.cancelOnSubtitle()
		return ytdlp.SubtitleOutcome{}, ctx.Err()
	}
	if f.blockSubtitles {
		return ytdlp.SubtitleOutcome{}, &ytdlp.BlockError{Diagnostic: "sign in to confirm"}
	}
	if f.noSubtitles {
		return ytdlp.SubtitleOutcome{}, nil
	}
	if err := os.MkdirAll(f.layout.SubtitleLangDir(lang), 0755); err != nil {
		return ytdlp.SubtitleOutcome{}, err
	}
	path := f.layout.ManualSubtitlePath(videoID, lang)
	if err := os.WriteFile(path, []byte("1\n00:00:01\nhi\n"), 0644); err != nil {
		return ytdlp.SubtitleOutcome{}, err
	}
	return ytdlp.SubtitleOutcome{ManualPath: path}, nil
}

func (f *fakeFetcher) FetchMedia(ctx context.Context, videoID string, variant ytdlp.MediaVariant) (ytdlp.MediaResult, error) {
	f.mediaCalls++
	if f.blockMedia {
		return ytdlp.MediaResult{}, &ytdlp.BlockError{Diagnostic: "too many requests"}
	}
	path := filepath.Join(f.layout.MediaDir(), videoID+".mp3")
	if err := os.WriteFile(path, make([]byte, testMinSize*2), 0644); err != nil {
		return ytdlp.MediaResult{}, err
	}
	return ytdlp.MediaResult{Path: path, SizeBytes: testMinSize * 2}, nil
}

type acquisitionFixture struct {
	ctrl    *AcquisitionController
	db      *models.Database
	fetcher *fakeFetcher
}

func newAcquisitionFixture(t *testing.T) *acquisitionFixture {
	t.Helper()
	layout, err := utils.NewLayout(t.TempDir(), "chan", true)
	require.NoError(t, err)
	db, err := models.NewDatabase(layout.DatabasePath())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		MaxRetries:        1,
		MinMediaSizeBytes: testMinSize,
	}
	logger := utils.NewLogger("error")
	fetcher := &fakeFetcher{layout: layout, goneVideos: map[string]bool{}}
	evaluator := completion.NewEvaluator(db, layout, testMinSize, logger)

	ctrl := NewAcquisitionController(db, fetcher, evaluator, cfg, true, logger)
	// Zero-cooldown ladder keeps the escalation path fast under test.
	ctrl.ladder = []ytdlp.MediaVariant{
		{Name: "fallback one"},
		{Name: "fallback two"},
	}
	return &acquisitionFixture{ctrl: ctrl, db: db, fetcher: fetcher}
}

func (f *acquisitionFixture) seedVideo(t *testing.T, id string) {
	t.Helper()
	done := true
	require.NoError(t, f.db.SaveVideo(&models.Video{
		VideoID:           id,
		MetadataCompleted: &done,
		ProcessingStatus:  models.StatusMetadataOnly,
	}))
}

func TestAcquireAllCompletesItem(t *testing.T) {
	f := newAcquisitionFixture(t)
	f.seedVideo(t, "a")

	summary, err := f.ctrl.AcquireAll(context.Background(), completion.Request{
		Languages: []string{"en"},
		Media:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)

	video, err := f.db.GetVideoByID("a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, video.ProcessingStatus)
	assert.True(t, video.MediaCompleted)
	assert.Equal(t, models.LangCompleted, video.SubtitleStatuses()["en"])
	assert.NotEmpty(t, video.SubtitlePath)
	assert.NotEmpty(t, video.AudioPath)
}

func TestAcquireAllMarksUnavailableCaptionsTerminal(t *testing.T) {
	f := newAcquisitionFixture(t)
	f.seedVideo(t, "a")
	f.fetcher.noSubtitles = true

	req := completion.Request{Languages: []string{"fa"}}
	_, err := f.ctrl.AcquireAll(context.Background(), req)
	require.NoError(t, err)

	video, err := f.db.GetVideoByID("a")
	require.NoError(t, err)
	assert.Equal(t, models.LangNotAvailable, video.SubtitleStatuses()["fa"])

	// A second pass never re-requests the language.
	calls := f.fetcher.subtitleCalls
	_, err = f.ctrl.AcquireAll(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, calls, f.fetcher.subtitleCalls)
}

func TestAcquireAllGoneVideo(t *testing.T) {
	f := newAcquisitionFixture(t)
	f.seedVideo(t, "a")
	f.fetcher.goneVideos["a"] = true

	summary, err := f.ctrl.AcquireAll(context.Background(), completion.Request{Media: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, f.fetcher.mediaCalls, "no download is attempted for a gone video")

	video, err := f.db.GetVideoByID("a")
	require.NoError(t, err)
	assert.Equal(t, "failed", video.DownloadStatus)
	assert.Equal(t, models.StatusPartial, video.ProcessingStatus)

	// A later pass never probes the gone video again.
	probes := f.fetcher.probeCalls
	_, err = f.ctrl.AcquireAll(context.Background(), completion.Request{Media: true})
	require.NoError(t, err)
	assert.Equal(t, probes, f.fetcher.probeCalls)
}

func TestAcquireAllCircuitBreaker(t *testing.T) {
	f := newAcquisitionFixture(t)
	f.seedVideo(t, "a")
	f.seedVideo(t, "b")
	f.fetcher.blockMedia = true

	summary, err := f.ctrl.AcquireAll(context.Background(), completion.Request{Media: true})
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Equal(t, 0, summary.Processed, "the run halts on the blocked item")

	// Primary attempt plus both fallback rungs, for the first item only.
	assert.Equal(t, 3, f.fetcher.mediaCalls)

	// The second item was never touched.
	video, err := f.db.GetVideoByID("b")
	require.NoError(t, err)
	assert.Equal(t, models.StatusMetadataOnly, video.ProcessingStatus)
	assert.Equal(t, "", video.DownloadStatus)
}

func TestAcquireAllSkipsCompletedItems(t *testing.T) {
	f := newAcquisitionFixture(t)
	f.seedVideo(t, "a")

	req := completion.Request{Media: true}
	_, err := f.ctrl.AcquireAll(context.Background(), req)
	require.NoError(t, err)
	mediaCalls := f.fetcher.mediaCalls

	summary, err := f.ctrl.AcquireAll(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, mediaCalls, f.fetcher.mediaCalls, "completed items trigger no remote calls")
	assert.Equal(t, 0, summary.Processed, "completed items drop out of the incomplete listing")
}

func TestAcquireAllInterruptLeavesCaptionStatusOpen(t *testing.T) {
	f := newAcquisitionFixture(t)
	f.seedVideo(t, "a")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.fetcher.cancelOnSubtitle = cancel

	_, err := f.ctrl.AcquireAll(ctx, completion.Request{Languages: []string{"en"}})
	assert.ErrorIs(t, err, context.Canceled)

	// The interrupted fetch must not be recorded as exhausted; the next
	// run retries the language.
	video, err := f.db.GetVideoByID("a")
	require.NoError(t, err)
	assert.NotEqual(t, models.LangNotAvailable, video.SubtitleStatuses()["en"])

	f.fetcher.cancelOnSubtitle = nil
	calls := f.fetcher.subtitleCalls
	_, err = f.ctrl.AcquireAll(context.Background(), completion.Request{Languages: []string{"en"}})
	require.NoError(t, err)
	assert.Greater(t, f.fetcher.subtitleCalls, calls)
	video, err = f.db.GetVideoByID("a")
	require.NoError(t, err)
	assert.Equal(t, models.LangCompleted, video.SubtitleStatuses()["en"])
}

func TestAcquireAllSubtitleBlockDoesNotEscalate(t *testing.T) {
	f := newAcquisitionFixture(t)
	f.seedVideo(t, "a")
	f.fetcher.blockSubtitles = true

	summary, err := f.ctrl.AcquireAll(context.Background(), completion.Request{Languages: []string{"en"}})
	require.NoError(t, err, "caption blocks are per-item failures, not run halts")
	assert.Equal(t, 1, summary.Processed)

	video, err := f.db.GetVideoByID("a")
	require.NoError(t, err)
	assert.Equal(t, models.LangNotAvailable, video.SubtitleStatuses()["en"])
}
