package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/controllers"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/services/ytdlp"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

// acquisitionFlags is the flag surface shared by the scrape, batch and
// serve commands.
type acquisitionFlags struct {
	languages   []string
	audio       bool
	video       bool
	titleFilter string
	minDuration int
	maxDuration int
	strict      bool
}

func (f *acquisitionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.languages, "subtitles", "s", nil, "caption language codes to download (e.g. en,fa)")
	cmd.Flags().BoolVar(&f.audio, "audio", false, "download audio (mp3)")
	cmd.Flags().BoolVar(&f.video, "video", false, "download video")
	cmd.Flags().StringVar(&f.titleFilter, "title-filter", "", "only process titles matching this regex (case-insensitive)")
	cmd.Flags().IntVar(&f.minDuration, "min-duration", 0, "minimum duration in minutes")
	cmd.Flags().IntVar(&f.maxDuration, "max-duration", 0, "maximum duration in minutes")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "skip items whose duration cannot be parsed when a duration bound is set")
}

// runOptions validates the flags and converts them to pipeline options.
func (f *acquisitionFlags) runOptions() (controllers.RunOptions, error) {
	if f.audio && f.video {
		return controllers.RunOptions{}, fmt.Errorf("--audio and --video are mutually exclusive")
	}

	var languages []string
	var err error
	if len(f.languages) > 0 {
		languages, err = utils.NormalizeLanguages(f.languages)
		if err != nil {
			return controllers.RunOptions{}, err
		}
	}

	var minPtr, maxPtr *int
	if f.minDuration > 0 {
		minPtr = &f.minDuration
	}
	if f.maxDuration > 0 {
		maxPtr = &f.maxDuration
	}
	var filter *utils.ContentFilter
	if f.titleFilter != "" || minPtr != nil || maxPtr != nil {
		filter, err = utils.NewContentFilter(f.titleFilter, minPtr, maxPtr, f.strict)
		if err != nil {
			return controllers.RunOptions{}, err
		}
	}

	return controllers.RunOptions{
		Languages: languages,
		Media:     f.audio || f.video,
		AudioOnly: f.audio,
		Filter:    filter,
	}, nil
}

// collectionFlags selects the target collection for single-source
// commands.
type collectionFlags struct {
	channel  string
	playlist string
}

func (f *collectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.channel, "channel", "c", "", "channel username (without @)")
	cmd.Flags().StringVarP(&f.playlist, "playlist", "p", "", "playlist id")
}

func (f *collectionFlags) collection() (ytdlp.Collection, error) {
	if (f.channel == "") == (f.playlist == "") {
		return ytdlp.Collection{}, fmt.Errorf("exactly one of --channel or --playlist is required")
	}
	if f.playlist != "" {
		return ytdlp.Collection{Identifier: f.playlist, IsPlaylist: true}, nil
	}
	return ytdlp.Collection{Identifier: f.channel}, nil
}
