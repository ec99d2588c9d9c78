package ytdlp

import (
	"errors"
	"fmt"
)

// ErrVideoGone marks a confirmed deletion or unavailability of a remote
// video. Terminal per item: recorded once, never retried.
var ErrVideoGone = errors.New("video no longer exists")

// BlockError is an adversarial-block signal: rate limiting, a bot or
// CAPTCHA challenge, or an authentication demand. The diagnostic is kept
// for logging and for the completion-detail payload.
type BlockError struct {
	Diagnostic string
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("blocked by remote service: %s", e.Diagnostic)
}

// IsBlock reports whether err carries a block signal.
func IsBlock(err error) bool {
	var be *BlockError
	return errors.As(err, &be)
}

// IntegrityError marks a downloaded artifact that failed validation
// (undersized, likely truncated). Treated as a failed attempt, never as
// success.
type IntegrityError struct {
	Path      string
	SizeBytes int64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("downloaded file %s is too small (%.1fMB), likely corrupted",
		e.Path, float64(e.SizeBytes)/(1024*1024))
}
