package utils

import (
	"fmt"
	"strings"
	"time"
)

// emailDateFormats are the spellings confirmation emails use for execution
// dates, most specific first.
var emailDateFormats = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	time.RFC3339,
	"2006-01-02",
	"02-01-2006",
}

// ParseEmailDate parses a transaction date as found in email text. Dates are
// calendar days in the account's locale; the parsed value is anchored at
// midnight UTC so day-level comparisons are stable.
func ParseEmailDate(dateStr string) (time.Time, error) {
	s := strings.TrimSpace(dateStr)
	for _, format := range emailDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			y, m, d := t.UTC().Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", dateStr)
}
