package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutPaths(t *testing.T) {
	root := t.TempDir()
	layout, err := NewLayout(root, "mychannel", true)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "mychannel", "mychannel.db"), layout.DatabasePath())
	assert.Equal(t, filepath.Join(root, "mychannel", "audio"), layout.MediaDir())
	assert.Equal(t,
		filepath.Join(root, "mychannel", "subtitles", "en", "abc_manual.srt"),
		layout.ManualSubtitlePath("abc", "en"))

	// Directories are created eagerly.
	assert.DirExists(t, layout.SubtitlesDir())
	assert.DirExists(t, layout.MediaDir())

	video, err := NewLayout(root, "mychannel", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "mychannel", "video"), video.MediaDir())
}

func TestLayoutMediaFiles(t *testing.T) {
	layout, err := NewLayout(t.TempDir(), "chan", false)
	require.NoError(t, err)

	for _, name := range []string{"abc.mp4", "abc.mp4.part", "other.mp4"} {
		require.NoError(t, os.WriteFile(filepath.Join(layout.MediaDir(), name), []byte("x"), 0644))
	}

	files, err := layout.MediaFiles("abc")
	require.NoError(t, err)
	assert.Len(t, files, 2, "matches the id prefix only")
}

func TestIsIncompleteFile(t *testing.T) {
	assert.True(t, IsIncompleteFile("video.mp4.part"))
	assert.True(t, IsIncompleteFile("video.mp4.YTDL"))
	assert.True(t, IsIncompleteFile("video.temp"))
	assert.False(t, IsIncompleteFile("video.mp4"))
}

func TestNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.srt")
	full := filepath.Join(dir, "full.srt")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	require.NoError(t, os.WriteFile(full, []byte("1\n00:00:01\nhi\n"), 0644))

	assert.False(t, NonEmptyFile(empty))
	assert.False(t, NonEmptyFile(filepath.Join(dir, "missing.srt")))
	assert.True(t, NonEmptyFile(full))
}
