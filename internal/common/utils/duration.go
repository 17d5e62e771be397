// Package utils holds small parsing helpers shared by configuration code.
package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses whole seconds ("30"), Go durations ("1500ms", "2h") and day
// counts ("1d"). Negative values are rejected.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	var d time.Duration
	if secs, err := strconv.Atoi(s); err == nil {
		d = time.Duration(secs) * time.Second
	} else if parsed, err := time.ParseDuration(s); err == nil {
		d = parsed
	} else if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}

	if d < 0 {
		return 0, fmt.Errorf("negative duration: %s", s)
	}
	return d, nil
}
