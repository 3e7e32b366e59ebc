package utils

import (
	"strings"
	"time"
)

const DefaultDateFormat = "2006-01-02"

// dateLayouts are tried in order when parsing user or spreadsheet dates.
var dateLayouts = []string{
	DefaultDateFormat,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02/01/2006",
	"1/2/2006",
	"2006/01/02",
}

// ParseFlexibleDate parses a date in any of the accepted layouts. A value
// that parses under no layout yields the zero time, which sorts before every
// real date. That is a documented policy: records with a broken date are kept
// and ordered first rather than dropped.
func ParseFlexibleDate(dateStr string) time.Time {
	s := strings.TrimSpace(dateStr)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
