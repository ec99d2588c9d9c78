package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// incompleteSuffixes are the temporary extensions yt-dlp leaves behind
// while a download is in flight or was interrupted.
var incompleteSuffixes = []string{".part", ".ytdl", ".temp"}

// Layout describes one collection's directory tree under the download
// root. All artifact paths are derived from it, so the completion
// evaluator and the fetch collaborator always agree on where files live.
type Layout struct {
	Root       string // download root
	Collection string // collection key, used as the directory name
	AudioOnly  bool   // selects audio/ vs video/ as the media directory
}

// NewLayout creates the collection's directory tree and returns its
// layout.
func NewLayout(root, collection string, audioOnly bool) (*Layout, error) {
	l := &Layout{Root: root, Collection: collection, AudioOnly: audioOnly}
	for _, dir := range []string{l.Dir(), l.SubtitlesDir(), l.MediaDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return l, nil
}

// Dir returns the collection's base directory.
func (l *Layout) Dir() string {
	return filepath.Join(l.Root, l.Collection)
}

// DatabasePath returns the location of the collection's ledger.
func (l *Layout) DatabasePath() string {
	return filepath.Join(l.Dir(), l.Collection+".db")
}

// LogPath returns the location of the collection's run log.
func (l *Layout) LogPath() string {
	return filepath.Join(l.Dir(), l.Collection+"_scraper.log")
}

// CSVPath returns the location of the collection's CSV export.
func (l *Layout) CSVPath() string {
	return filepath.Join(l.Dir(), l.Collection+".csv")
}

// SubtitlesDir returns the caption directory shared by all languages.
func (l *Layout) SubtitlesDir() string {
	return filepath.Join(l.Dir(), "subtitles")
}

// SubtitleLangDir returns the caption directory for one language.
func (l *Layout) SubtitleLangDir(lang string) string {
	return filepath.Join(l.SubtitlesDir(), lang)
}

// ManualSubtitlePath returns where a manually authored caption file for
// the video and language lives.
func (l *Layout) ManualSubtitlePath(videoID, lang string) string {
	return filepath.Join(l.SubtitleLangDir(lang), videoID+"_manual.srt")
}

// AutoSubtitlePath returns where an auto-generated caption file for the
// video and language lives.
func (l *Layout) AutoSubtitlePath(videoID, lang string) string {
	return filepath.Join(l.SubtitleLangDir(lang), videoID+"_auto.srt")
}

// MediaDir returns the media directory (audio/ or video/).
func (l *Layout) MediaDir() string {
	if l.AudioOnly {
		return filepath.Join(l.Dir(), "audio")
	}
	return filepath.Join(l.Dir(), "video")
}

// MediaFiles returns every file in the media directory whose name starts
// with the video id, including incomplete temporaries.
func (l *Layout) MediaFiles(videoID string) ([]string, error) {
	return filepath.Glob(filepath.Join(l.MediaDir(), videoID+".*"))
}

// IsIncompleteFile reports whether path carries a temporary download
// suffix.
func IsIncompleteFile(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range incompleteSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// FileSize returns the size of path in bytes, or 0 if it does not exist.
func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// NonEmptyFile reports whether path exists and has content.
func NonEmptyFile(path string) bool {
	return FileSize(path) > 0
}
