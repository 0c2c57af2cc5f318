package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxDurationMinutes bounds parsed durations to a leap year of minutes.
const MaxDurationMinutes = 366 * 24 * 60

var errDurationTooLong = fmt.Errorf("duration must be at most %d minutes", MaxDurationMinutes)

// FormatDuration renders minutes as "45m", "2h" or "1h 30m".
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// DurationFromParts combines an hours/minutes pair into minutes.
// Minutes must be in [0, 59] and hours must not be negative.
func DurationFromParts(hours, minutes int) (int, error) {
	if hours < 0 {
		return 0, errors.New("hours must be a positive number")
	}
	if minutes < 0 {
		return 0, errors.New("minutes must be a positive number")
	}
	if minutes > 59 {
		return 0, errors.New("minutes must be less than 60")
	}
	if hours > MaxDurationMinutes/60 {
		return 0, errDurationTooLong
	}
	return hours*60 + minutes, nil
}

// ParseDuration accepts plain minutes ("90") or an h/m form ("1h30m", "2h", "45m").
func ParseDuration(s string) (int, error) {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, errors.New("duration must not be negative")
		}
		if n > MaxDurationMinutes {
			return 0, errDurationTooLong
		}
		return n, nil
	}

	var hours, mins int
	rest := s
	if i := strings.IndexByte(rest, 'h'); i >= 0 {
		h, err := strconv.Atoi(rest[:i])
		if err != nil || h < 0 {
			return 0, fmt.Errorf("invalid hours in %q", s)
		}
		hours = h
		rest = rest[i+1:]
	}
	if rest != "" {
		if !strings.HasSuffix(rest, "m") {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		m, err := strconv.Atoi(strings.TrimSuffix(rest, "m"))
		if err != nil || m < 0 {
			return 0, fmt.Errorf("invalid minutes in %q", s)
		}
		mins = m
	}
	if hours > MaxDurationMinutes/60 || mins > MaxDurationMinutes || hours*60+mins > MaxDurationMinutes {
		return 0, errDurationTooLong
	}
	return hours*60 + mins, nil
}
