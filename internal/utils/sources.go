package utils

import (
	"bufio"
	"os"
	"strings"
)

// Source identifies one collection in a batch sources file.
type Source struct {
	Identifier string
	IsPlaylist bool
	Line       int
}

// LoadSources reads a batch sources file: one channel username or playlist
// per line, empty lines and '#' comments skipped. A leading '@' on channel
// names is stripped; a 'playlist_' prefix marks a playlist id.
func LoadSources(path string) ([]Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var sources []Source
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		text = strings.TrimPrefix(text, "@")

		if rest, ok := strings.CutPrefix(text, "playlist_"); ok {
			sources = append(sources, Source{Identifier: rest, IsPlaylist: true, Line: line})
		} else {
			sources = append(sources, Source{Identifier: text, Line: line})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return sources, nil
}
