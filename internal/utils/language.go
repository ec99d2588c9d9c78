package utils

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLanguages validates caption language codes and returns their
// canonical base forms ("fa", "en", "pt"). Region subtags are dropped
// because caption files are stored per base language.
func NormalizeLanguages(codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))

	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("invalid language code %q: %w", code, err)
		}
		base, _ := tag.Base()
		normalized := base.String()
		if !seen[normalized] {
			seen[normalized] = true
			out = append(out, normalized)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no valid language codes given")
	}
	return out, nil
}
