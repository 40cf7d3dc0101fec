// Package dates parses the time arguments accepted on the command line.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var agoRegex = regexp.MustCompile(`^(\d+)([mhdw])$`)

var datetimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDatetime parses an absolute time. Values without a zone are UTC.
func ParseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("invalid datetime: empty")
	}
	for _, format := range datetimeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime: %q", s)
}

// ParseSince parses a lower time bound relative to now. It accepts
//   - "today" or "yesterday" (start of that day in now's location)
//   - an age such as 30m, 12h, 7d or 2w
//   - any absolute form ParseDatetime accepts
func ParseSince(arg string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(arg))
	switch s {
	case "today":
		return startOfDay(now), nil
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	}

	if m := agoRegex.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid age %q: %w", arg, err)
		}
		switch m[2] {
		case "m":
			return now.Add(-time.Duration(n) * time.Minute), nil
		case "h":
			return now.Add(-time.Duration(n) * time.Hour), nil
		case "d":
			return now.AddDate(0, 0, -n), nil
		default:
			return now.AddDate(0, 0, -7*n), nil
		}
	}

	t, err := ParseDatetime(arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, use a datetime such as 2024-01-01T00:00:00Z, an age such as 7d, or today/yesterday", arg)
	}
	return t, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
