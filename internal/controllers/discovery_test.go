package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/config"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/models"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/services/ytdlp"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

// fakeEnumerator replays a fixed descriptor list, optionally failing
// after a number of items.
type fakeEnumerator struct {
	ids       []string
	failAfter int // -1 never fails
}

func (f *fakeEnumerator) Enumerate(ctx context.Context, col ytdlp.Collection) (ytdlp.Enumeration, error) {
	return &fakeEnumeration{ids: f.ids, failAfter: f.failAfter}, nil
}

type fakeEnumeration struct {
	ids       []string
	failAfter int
	pos       int
}

func (e *fakeEnumeration) Next() (*ytdlp.Descriptor, error) {
	if e.failAfter >= 0 && e.pos == e.failAfter {
		return nil, errors.New("listing aborted upstream")
	}
	if e.pos >= len(e.ids) {
		return nil, io.EOF
	}
	id := e.ids[e.pos]
	e.pos++
	raw := fmt.Sprintf(`{"videoId":%q,"title":"Video %s","lengthText":"12:00"}`, id, id)
	return &ytdlp.Descriptor{VideoID: id, Raw: []byte(raw)}, nil
}

func (e *fakeEnumeration) Close() error { return nil }

func newDiscoveryFixture(t *testing.T, ids []string, failAfter int) (*DiscoveryController, *models.Database) {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{CheckpointEvery: 2}
	logger := utils.NewLogger("error")
	enum := &fakeEnumerator{ids: ids, failAfter: failAfter}
	return NewDiscoveryController(db, enum, cfg, logger), db
}

func testCollection() ytdlp.Collection {
	return ytdlp.Collection{Identifier: "chan"}
}

func TestDiscoverFreshRun(t *testing.T) {
	ctrl, db := newDiscoveryFixture(t, []string{"A", "B", "C"}, -1)

	saved, err := ctrl.Discover(context.Background(), testCollection(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, saved)

	video, err := db.GetVideoByID("B")
	require.NoError(t, err)
	assert.Equal(t, "Video B", video.Title)
	assert.Equal(t, "chan", video.ChannelName)
	assert.Equal(t, models.StatusMetadataOnly, video.ProcessingStatus)
	require.NotNil(t, video.MetadataCompleted)
	assert.True(t, *video.MetadataCompleted)

	progress, err := db.GetProgress("chan")
	require.NoError(t, err)
	assert.Equal(t, "C", progress.LastVideoID, "cursor points at the last recorded item")
	assert.Equal(t, 3, progress.TotalScraped)
}

func TestDiscoverResumesFromCursor(t *testing.T) {
	ctrl, db := newDiscoveryFixture(t, []string{"A", "B", "C", "D", "E"}, -1)
	require.NoError(t, db.UpdateProgress("chan", "C", 3))

	saved, err := ctrl.Discover(context.Background(), testCollection(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, saved, "only items after the cursor are recorded")

	for _, id := range []string{"A", "B", "C"} {
		exists, err := db.VideoExists(id)
		require.NoError(t, err)
		assert.False(t, exists, "%s is before the cursor", id)
	}
	for _, id := range []string{"D", "E"} {
		exists, err := db.VideoExists(id)
		require.NoError(t, err)
		assert.True(t, exists)
	}

	progress, err := db.GetProgress("chan")
	require.NoError(t, err)
	assert.Equal(t, "E", progress.LastVideoID)
	assert.Equal(t, 5, progress.TotalScraped)
}

func TestDiscoverCursorNeverReappears(t *testing.T) {
	ctrl, db := newDiscoveryFixture(t, []string{"A", "B", "C"}, -1)
	require.NoError(t, db.UpdateProgress("chan", "GONE", 7))

	saved, err := ctrl.Discover(context.Background(), testCollection(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, saved)

	progress, err := db.GetProgress("chan")
	require.NoError(t, err)
	assert.Equal(t, "GONE", progress.LastVideoID, "cursor is left untouched")
	assert.Equal(t, 7, progress.TotalScraped)
}

func TestDiscoverSkipsExistingItems(t *testing.T) {
	ctrl, db := newDiscoveryFixture(t, []string{"A", "B"}, -1)
	require.NoError(t, db.SaveVideo(&models.Video{VideoID: "A", Title: "already here"}))

	saved, err := ctrl.Discover(context.Background(), testCollection(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	video, err := db.GetVideoByID("A")
	require.NoError(t, err)
	assert.Equal(t, "already here", video.Title, "existing records are never overwritten")
}

func TestDiscoverIdempotentRerun(t *testing.T) {
	ctrl, _ := newDiscoveryFixture(t, []string{"A", "B", "C"}, -1)

	saved, err := ctrl.Discover(context.Background(), testCollection(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, saved)

	saved, err = ctrl.Discover(context.Background(), testCollection(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, saved, "a second identical run records nothing")
}

func TestDiscoverAppliesFilter(t *testing.T) {
	ctrl, db := newDiscoveryFixture(t, []string{"A", "B"}, -1)
	filter, err := utils.NewContentFilter("Video B", nil, nil, false)
	require.NoError(t, err)

	saved, err := ctrl.Discover(context.Background(), testCollection(), filter)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	exists, err := db.VideoExists("A")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDiscoverCheckpointsBeforeError(t *testing.T) {
	ctrl, db := newDiscoveryFixture(t, []string{"A", "B", "C", "D"}, 3)

	saved, err := ctrl.Discover(context.Background(), testCollection(), nil)
	require.Error(t, err)
	assert.Equal(t, 3, saved)

	progress, err := db.GetProgress("chan")
	require.NoError(t, err)
	assert.Equal(t, "C", progress.LastVideoID, "persisted work is checkpointed before the error propagates")
	assert.Equal(t, 3, progress.TotalScraped)
}

func TestDiscoverCancellation(t *testing.T) {
	ctrl, _ := newDiscoveryFixture(t, []string{"A", "B"}, -1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ctrl.Discover(ctx, testCollection(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
