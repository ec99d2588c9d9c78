package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Paths
	DownloadRoot string // per-collection trees are created under this root

	// Fetch collaborator
	YtdlpPath      string // yt-dlp binary
	CookiesBrowser string // browser whose cookie store yt-dlp reads first

	// Acquisition pacing and retry policy
	MaxRetries        int           // attempts per individual fetch
	SubtitleTimeout   time.Duration // per caption invocation
	MediaTimeout      time.Duration // per media invocation
	ProbeTimeout      time.Duration // per existence probe
	SleepInterval     time.Duration // long pause applied every LongPauseEvery items
	LongPauseEvery    int
	MinSuccessPause   time.Duration // randomized pause after a successful media download
	MaxSuccessPause   time.Duration
	CheckpointEvery   int // discovery cursor checkpoint interval
	MinMediaSizeBytes int64

	// Adversarial-block policy. Empty file means built-in phrase list.
	BlockPhrasesFile string

	// Batch driver
	SourcesFile   string
	BatchCooldown time.Duration // wait between batch sources

	// Server / scheduler (serve mode)
	ServerPort   string
	CronSchedule string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	viper.SetDefault("DOWNLOAD_ROOT", "downloads")
	viper.SetDefault("YTDLP_PATH", "yt-dlp")
	viper.SetDefault("COOKIES_BROWSER", "firefox")
	viper.SetDefault("MAX_RETRIES", 3)
	viper.SetDefault("SUBTITLE_TIMEOUT_SECONDS", 60)
	viper.SetDefault("MEDIA_TIMEOUT_SECONDS", 300)
	viper.SetDefault("PROBE_TIMEOUT_SECONDS", 15)
	viper.SetDefault("SLEEP_INTERVAL_SECONDS", 1)
	viper.SetDefault("LONG_PAUSE_EVERY", 30)
	viper.SetDefault("MIN_SUCCESS_PAUSE_SECONDS", 3)
	viper.SetDefault("MAX_SUCCESS_PAUSE_SECONDS", 10)
	viper.SetDefault("CHECKPOINT_EVERY", 50)
	viper.SetDefault("MIN_MEDIA_SIZE_MB", 1)
	viper.SetDefault("BATCH_COOLDOWN_SECONDS", 60)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("CRON_SCHEDULE", "0 */6 * * *")
	viper.SetDefault("LOG_LEVEL", "info")

	downloadRoot, err := filepath.Abs(viper.GetString("DOWNLOAD_ROOT"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DOWNLOAD_ROOT: %w", err)
	}

	config := &Config{
		DownloadRoot: downloadRoot,

		YtdlpPath:      viper.GetString("YTDLP_PATH"),
		CookiesBrowser: viper.GetString("COOKIES_BROWSER"),

		MaxRetries:        viper.GetInt("MAX_RETRIES"),
		SubtitleTimeout:   time.Duration(viper.GetInt("SUBTITLE_TIMEOUT_SECONDS")) * time.Second,
		MediaTimeout:      time.Duration(viper.GetInt("MEDIA_TIMEOUT_SECONDS")) * time.Second,
		ProbeTimeout:      time.Duration(viper.GetInt("PROBE_TIMEOUT_SECONDS")) * time.Second,
		SleepInterval:     time.Duration(viper.GetInt("SLEEP_INTERVAL_SECONDS")) * time.Second,
		LongPauseEvery:    viper.GetInt("LONG_PAUSE_EVERY"),
		MinSuccessPause:   time.Duration(viper.GetInt("MIN_SUCCESS_PAUSE_SECONDS")) * time.Second,
		MaxSuccessPause:   time.Duration(viper.GetInt("MAX_SUCCESS_PAUSE_SECONDS")) * time.Second,
		CheckpointEvery:   viper.GetInt("CHECKPOINT_EVERY"),
		MinMediaSizeBytes: viper.GetInt64("MIN_MEDIA_SIZE_MB") * 1024 * 1024,

		BlockPhrasesFile: viper.GetString("BLOCK_PHRASES_FILE"),

		SourcesFile:   viper.GetString("SOURCES_FILE"),
		BatchCooldown: time.Duration(viper.GetInt("BATCH_COOLDOWN_SECONDS")) * time.Second,

		ServerPort:   viper.GetString("SERVER_PORT"),
		CronSchedule: viper.GetString("CRON_SCHEDULE"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if config.MaxRetries < 1 {
		return nil, fmt.Errorf("MAX_RETRIES must be at least 1")
	}
	if config.CheckpointEvery < 1 {
		return nil, fmt.Errorf("CHECKPOINT_EVERY must be at least 1")
	}
	if config.MinMediaSizeBytes < 0 {
		return nil, fmt.Errorf("MIN_MEDIA_SIZE_MB must not be negative")
	}
	if config.MaxSuccessPause < config.MinSuccessPause {
		return nil, fmt.Errorf("MAX_SUCCESS_PAUSE_SECONDS must not be below MIN_SUCCESS_PAUSE_SECONDS")
	}

	return config, nil
}
