package parse

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Window is a half-open [From, Until) date range.
type Window struct {
	From  time.Time
	Until time.Time
}

// ParseWindow builds a date window from raw "from"/"until" query values.
// Empty values fall back to [today, today+8 weeks), matching the default
// collection window of the upstream API.
func ParseWindow(fromStr, untilStr string, now time.Time) (Window, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	from := today
	if fromStr != "" {
		parsed, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return Window{}, fmt.Errorf("invalid from date %q: expected YYYY-MM-DD", fromStr)
		}
		from = parsed
	}

	until := from.AddDate(0, 0, 7*8)
	if untilStr != "" {
		parsed, err := time.Parse(dateLayout, untilStr)
		if err != nil {
			return Window{}, fmt.Errorf("invalid until date %q: expected YYYY-MM-DD", untilStr)
		}
		until = parsed
	}

	if !until.After(from) {
		return Window{}, fmt.Errorf("until date %s must be after from date %s",
			until.Format(dateLayout), from.Format(dateLayout))
	}

	return Window{From: from, Until: until}, nil
}
