package models

// ProcessingStatus represents the overall completion state of a video.
//
// A video moves metadata_only -> partial -> completed. The only backward
// transition is completed -> partial, applied when the completion evaluator
// finds files missing from disk.
type ProcessingStatus string

const (
	StatusMetadataOnly ProcessingStatus = "metadata_only"
	StatusPartial      ProcessingStatus = "partial"
	StatusCompleted    ProcessingStatus = "completed"
	StatusFailed       ProcessingStatus = "failed"
)

// LangStatus represents the per-language caption outcome.
type LangStatus string

const (
	LangCompleted LangStatus = "completed"
	LangMissing   LangStatus = "missing"
	LangFailed    LangStatus = "failed"
	// LangNotAvailable is terminal: the language is never re-requested,
	// even if it later becomes available upstream. Clearing the stored
	// status by hand is the only way to force a re-check.
	LangNotAvailable LangStatus = "not_available"
)

// SubtitleKind describes which caption tracks were obtained.
type SubtitleKind string

const (
	SubtitleNone   SubtitleKind = "none"
	SubtitleManual SubtitleKind = "manual"
	SubtitleAuto   SubtitleKind = "auto"
	SubtitleBoth   SubtitleKind = "both"
)
