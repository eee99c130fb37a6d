package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"thingsish/backend"
)

// relativePattern matches relative date formats like +7d, -3d, +2w, +1m
var relativePattern = regexp.MustCompile(`^([+-])(\d+)([dwm])$`)

// parseRelativeDate parses relative date strings like "today", "tomorrow",
// "+7d", "-3d", "+2w", "+1m" against now.
// Returns nil, nil if the string is not a relative date format.
func parseRelativeDate(dateStr string, now time.Time) (*backend.Date, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var result time.Time
	lower := strings.ToLower(dateStr)

	switch lower {
	case "today":
		result = today
	case "tomorrow":
		result = today.AddDate(0, 0, 1)
	case "yesterday":
		result = today.AddDate(0, 0, -1)
	default:
		matches := relativePattern.FindStringSubmatch(lower)
		if matches == nil {
			return nil, nil // Not a relative format
		}

		num, err := strconv.Atoi(matches[2])
		if err != nil {
			return nil, ErrInvalidDate(dateStr)
		}
		if matches[1] == "-" {
			num = -num
		}

		switch matches[3] {
		case "d":
			result = today.AddDate(0, 0, num)
		case "w":
			result = today.AddDate(0, 0, num*7)
		case "m":
			result = today.AddDate(0, num, 0)
		}
	}

	d := backend.DateOf(result)
	return &d, nil
}

// ParseDueDate parses a due date supporting both relative and absolute formats.
// Supported relative formats: today, tomorrow, yesterday, +Nd, -Nd, +Nw, +Nm
// Supported absolute format: YYYY-MM-DD
// Returns nil, nil for an empty string (no due date).
func ParseDueDate(dateStr string, now time.Time) (*backend.Date, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return nil, nil
	}

	d, err := parseRelativeDate(dateStr, now)
	if err != nil {
		return nil, err
	}
	if d != nil {
		return d, nil
	}

	parsed, err := backend.ParseDate(dateStr)
	if err != nil {
		return nil, ErrInvalidDate(dateStr)
	}
	return &parsed, nil
}
