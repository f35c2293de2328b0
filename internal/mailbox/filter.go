package mailbox

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/hal9000y/gmail-probe/internal/config"
)

// Query builds the server-side search for s.
func Query(s config.Search) string {
	return fmt.Sprintf("from:%s after:%s before:%s", s.From, config.FormatDay(s.After), config.FormatDay(s.Before))
}

// MatchesSender reports whether the From header contains the configured sender, ignoring case.
func MatchesSender(s config.Search, from string) bool {
	return strings.Contains(strings.ToLower(from), strings.ToLower(s.From))
}

// InDateRange reports whether the Date header falls on a day in [After, Before).
// The day is taken in the header's own UTC offset. Unparseable dates match.
func InDateRange(s config.Search, date string) bool {
	t, err := mail.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return true
	}

	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	after := civilDay(s.After)
	before := civilDay(s.Before)

	return !day.Before(after) && day.Before(before)
}

// Matches applies the sender and date filters used when server-side search is unavailable.
func Matches(s config.Search, from, date string) bool {
	return MatchesSender(s, from) && InDateRange(s, date)
}

func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
