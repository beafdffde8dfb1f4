// Package timecode parses the CLI's interval flags per spec.md §6:
// HH:MM:SS.fff, MM:SS.fff, or plain seconds.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts s into seconds. Negative values and malformed input are
// rejected; the fractional part is optional in every form.
func Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timecode")
	}

	parts := strings.Split(s, ":")
	var seconds float64
	var err error

	switch len(parts) {
	case 1:
		seconds, err = strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timecode %q: %w", s, err)
		}
	case 2:
		minutes, mErr := strconv.ParseFloat(parts[0], 64)
		secs, sErr := strconv.ParseFloat(parts[1], 64)
		if mErr != nil || sErr != nil {
			return 0, fmt.Errorf("invalid timecode %q", s)
		}
		if minutes < 0 || secs < 0 {
			return 0, fmt.Errorf("negative component in timecode %q", s)
		}
		seconds = minutes*60 + secs
	case 3:
		hours, hErr := strconv.ParseFloat(parts[0], 64)
		minutes, mErr := strconv.ParseFloat(parts[1], 64)
		secs, sErr := strconv.ParseFloat(parts[2], 64)
		if hErr != nil || mErr != nil || sErr != nil {
			return 0, fmt.Errorf("invalid timecode %q", s)
		}
		if hours < 0 || minutes < 0 || secs < 0 {
			return 0, fmt.Errorf("negative component in timecode %q", s)
		}
		seconds = hours*3600 + minutes*60 + secs
	default:
		return 0, fmt.Errorf("invalid timecode %q", s)
	}

	if seconds < 0 {
		return 0, fmt.Errorf("negative timecode %q", s)
	}
	return seconds, nil
}
