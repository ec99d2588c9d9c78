package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLanguages(t *testing.T) {
	langs, err := NormalizeLanguages([]string{"fa", "en-US", "EN", " pt "})
	require.NoError(t, err)
	assert.Equal(t, []string{"fa", "en", "pt"}, langs)
}

func TestNormalizeLanguagesInvalidCode(t *testing.T) {
	_, err := NormalizeLanguages([]string{"fa", "!!"})
	assert.Error(t, err)
}

func TestNormalizeLanguagesEmptyInput(t *testing.T) {
	_, err := NormalizeLanguages([]string{"", "  "})
	assert.Error(t, err)
}
