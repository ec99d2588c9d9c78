package ytdlp

import (
	"bufio"
	"os"
	"strings"
)

// defaultBlockPhrases are the built-in adversarial-block indicators. The
// exact set is ecosystem-specific and brittle, so it is replaceable via a
// phrase file rather than baked into the control flow.
var defaultBlockPhrases = []string{
	"sign in to confirm",
	"not a bot",
	"cookies",
	"authentication",
	"captcha",
	"bot detection",
	"verify you are human",
	"too many requests",
	"rate limit",
	"blocked",
	"forbidden",
}

// goneIndicators identify a definitive deletion/unavailability of a video,
// as opposed to a transient failure.
var goneIndicators = []string{
	"unavailable",
	"removed",
	"deleted",
	"private",
	"not found",
}

// Classifier inspects failure diagnostics for blocking and deletion
// signals.
type Classifier struct {
	blockPhrases []string
}

// NewClassifier builds a classifier with the built-in phrase list.
func NewClassifier() *Classifier {
	return &Classifier{blockPhrases: defaultBlockPhrases}
}

// NewClassifierFromFile loads block phrases from a file (one per line,
// '#' comments and blanks skipped), replacing the built-in list.
func NewClassifierFromFile(path string) (*Classifier, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var phrases []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		phrase := strings.TrimSpace(scanner.Text())
		if phrase != "" && !strings.HasPrefix(phrase, "#") {
			phrases = append(phrases, strings.ToLower(phrase))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(phrases) == 0 {
		phrases = defaultBlockPhrases
	}

	return &Classifier{blockPhrases: phrases}, nil
}

// IsBlockSignal reports whether a failure diagnostic indicates
// adversarial blocking.
func (c *Classifier) IsBlockSignal(diagnostic string) bool {
	lower := strings.ToLower(diagnostic)
	for _, phrase := range c.blockPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// IsGoneSignal reports whether a failure diagnostic confirms the video is
// deleted or otherwise permanently unavailable.
func (c *Classifier) IsGoneSignal(diagnostic string) bool {
	lower := strings.ToLower(diagnostic)
	for _, indicator := range goneIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
