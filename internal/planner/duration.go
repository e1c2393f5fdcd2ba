package planner

import (
	"fmt"
	"regexp"
	"strconv"

	"study-planner/internal/models"
)

// Matches the time part of ISO 8601 durations as returned by the YouTube API
// (e.g. "PT1M30S", "PT45S", "PT2H15M30S").
var isoDurationRE = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDurationMinutes converts an ISO 8601 duration into fractional minutes.
// Missing components count as zero, so "PT" is 0.
func ParseDurationMinutes(duration string) (float64, error) {
	matches := isoDurationRE.FindStringSubmatch(duration)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", models.ErrMalformedDuration, duration)
	}

	var totalSeconds float64
	for i, unit := range []float64{3600, 60, 1} {
		part := matches[i+1]
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", models.ErrMalformedDuration, duration, err)
		}
		totalSeconds += float64(n) * unit
	}

	return totalSeconds / 60, nil
}
