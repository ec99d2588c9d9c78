package utils

import (
	"fmt"
	"regexp"
)

// ContentFilter decides whether a discovered video should be persisted.
// The zero value accepts everything.
type ContentFilter struct {
	titlePattern *regexp.Regexp

	// Duration window in minutes, inclusive. nil means unbounded.
	MinDurationMinutes *int
	MaxDurationMinutes *int

	// Strict rejects videos whose duration text cannot be parsed when a
	// duration window is set. The default (lenient) lets them through.
	Strict bool
}

// NewContentFilter compiles a filter. titlePattern is a case-insensitive
// regular expression; empty means no title filtering.
func NewContentFilter(titlePattern string, minMinutes, maxMinutes *int, strict bool) (*ContentFilter, error) {
	f := &ContentFilter{
		MinDurationMinutes: minMinutes,
		MaxDurationMinutes: maxMinutes,
		Strict:             strict,
	}
	if titlePattern != "" {
		re, err := regexp.Compile("(?i)" + titlePattern)
		if err != nil {
			return nil, fmt.Errorf("invalid title pattern %q: %w", titlePattern, err)
		}
		f.titlePattern = re
	}
	return f, nil
}

// ShouldProcess applies the title and duration filters.
// Returns (false, reason) for rejected videos.
func (f *ContentFilter) ShouldProcess(title, lengthText string) (bool, string) {
	if f == nil {
		return true, ""
	}

	if f.titlePattern != nil && !f.titlePattern.MatchString(title) {
		return false, fmt.Sprintf("title does not match pattern %q", f.titlePattern.String())
	}

	if f.MinDurationMinutes != nil || f.MaxDurationMinutes != nil {
		minutes, ok := ParseDurationMinutes(lengthText)
		if !ok {
			if f.Strict {
				return false, "duration missing and strict filtering enabled"
			}
			return true, ""
		}
		if f.MinDurationMinutes != nil && minutes < *f.MinDurationMinutes {
			return false, fmt.Sprintf("duration %dmin below minimum %dmin", minutes, *f.MinDurationMinutes)
		}
		if f.MaxDurationMinutes != nil && minutes > *f.MaxDurationMinutes {
			return false, fmt.Sprintf("duration %dmin above maximum %dmin", minutes, *f.MaxDurationMinutes)
		}
	}

	return true, ""
}
