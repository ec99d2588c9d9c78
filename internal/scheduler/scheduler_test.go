package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/config"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/controllers"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

func newTestScheduler(t *testing.T) (*Scheduler, *config.Config) {
	t.Helper()
	root := t.TempDir()
	sourcesFile := filepath.Join(root, "sources.txt")
	require.NoError(t, os.WriteFile(sourcesFile, []byte("somechannel\n"), 0644))

	cfg := &config.Config{
		DownloadRoot: filepath.Join(root, "downloads"),
		SourcesFile:  sourcesFile,
		CronSchedule: "@every 1h",
		YtdlpPath:    filepath.Join(root, "no-such-binary"),
		MaxRetries:   1,
	}
	logger := utils.NewLogger("error")
	batch := controllers.NewBatchController(cfg, controllers.RunOptions{Media: true}, logger)
	return NewScheduler(batch, cfg, logger), cfg
}

func TestSchedulerCancelledContextSkipsPass(t *testing.T) {
	sched, cfg := newTestScheduler(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, sched.Start(ctx))
	sched.Stop()

	// The pass never ran, so no collection tree was created.
	_, err := os.Stat(cfg.DownloadRoot)
	assert.True(t, os.IsNotExist(err))
}

func TestSchedulerStopWaitsForInFlightPass(t *testing.T) {
	sched, _ := newTestScheduler(t)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, sched.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		sched.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Stop did not return after the context was cancelled")
	}
}
