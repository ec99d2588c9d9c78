package utils

import (
	"strconv"
	"strings"
)

// ParseDurationMinutes parses YouTube duration text into whole minutes.
//
// Accepted forms:
//
//	"1:23:45" -> 83   (H:M:S, seconds dropped)
//	"45:30"   -> 45   (M:S, seconds dropped)
//	"30"      -> 30   (bare value <= 100 is minutes)
//	"9000"    -> 150  (bare value > 100 is seconds)
//
// The second return is false when the text cannot be parsed.
func ParseDurationMinutes(lengthText string) (int, bool) {
	lengthText = strings.TrimSpace(lengthText)
	if lengthText == "" {
		return 0, false
	}

	parts := strings.Split(lengthText, ":")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, false
		}
		nums = append(nums, n)
	}

	switch len(nums) {
	case 3: // H:M:S
		return nums[0]*60 + nums[1], true
	case 2: // M:S
		return nums[0], true
	case 1:
		// Bare numbers over 100 are assumed to be seconds.
		if nums[0] > 100 {
			return nums[0] / 60, true
		}
		return nums[0], true
	default:
		return 0, false
	}
}
