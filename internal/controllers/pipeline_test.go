package controllers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/completion"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/config"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/models"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

func newPipelineFixture(t *testing.T, ids []string) (*PipelineController, *models.Database, *fakeFetcher) {
	t.Helper()
	layout, err := utils.NewLayout(t.TempDir(), "chan", true)
	require.NoError(t, err)
	db, err := models.NewDatabase(layout.DatabasePath())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		MaxRetries:        1,
		CheckpointEvery:   10,
		MinMediaSizeBytes: testMinSize,
	}
	logger := utils.NewLogger("error")

	enum := &fakeEnumerator{ids: ids, failAfter: -1}
	fetcher := &fakeFetcher{layout: layout, goneVideos: map[string]bool{}}
	evaluator := completion.NewEvaluator(db, layout, testMinSize, logger)

	discovery := NewDiscoveryController(db, enum, cfg, logger)
	acquisition := NewAcquisitionController(db, fetcher, evaluator, cfg, true, logger)
	acquisition.ladder = nil
	return NewPipelineController(discovery, acquisition, logger), db, fetcher
}

func TestPipelineRunBothPhases(t *testing.T) {
	pipeline, db, _ := newPipelineFixture(t, []string{"A", "B"})

	summary, err := pipeline.Run(context.Background(), testCollection(), nil, completion.Request{
		Languages: []string{"en"},
		Media:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Discovered)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Succeeded)

	for _, id := range []string{"A", "B"} {
		video, err := db.GetVideoByID(id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, video.ProcessingStatus)
	}
}

func TestPipelineDiscoveryOnly(t *testing.T) {
	pipeline, db, fetcher := newPipelineFixture(t, []string{"A"})

	summary, err := pipeline.Run(context.Background(), testCollection(), nil, completion.Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Discovered)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 0, fetcher.probeCalls)

	video, err := db.GetVideoByID("A")
	require.NoError(t, err)
	assert.Equal(t, models.StatusMetadataOnly, video.ProcessingStatus)
}

func TestPipelineResumesAcrossRuns(t *testing.T) {
	pipeline, db, fetcher := newPipelineFixture(t, []string{"A", "B"})
	req := completion.Request{Languages: []string{"en"}}

	_, err := pipeline.Run(context.Background(), testCollection(), nil, req)
	require.NoError(t, err)
	subtitleCalls := fetcher.subtitleCalls

	// Running again discovers nothing new and re-fetches nothing.
	summary, err := pipeline.Run(context.Background(), testCollection(), nil, req)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Discovered)
	assert.Equal(t, subtitleCalls, fetcher.subtitleCalls)

	progress, err := db.GetProgress("chan")
	require.NoError(t, err)
	assert.Equal(t, "B", progress.LastVideoID)
}
