package utils

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DayKey formats t as a calendar day in its own location.
func DayKey(t time.Time) string { return t.Format(DateLayout) }

func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDay parses a YYYY-MM-DD calendar day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}

var clockLayouts = []string{"15:04:05", "15:04", "3:04 PM", "03:04 PM", "3:04PM", "03:04PM", "3 PM", "3PM"}

// ParseClock accepts "08:00", "08:00:00", "8:00 AM" and similar, and returns HH:MM:SS.
func ParseClock(s string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("invalid time of day %q", s)
}

// DisplayClock turns "08:00:00" into "8:00 AM". Unparseable input is returned unchanged.
func DisplayClock(hms string) string {
	if hms == "" {
		return ""
	}
	norm, err := ParseClock(hms)
	if err != nil {
		return hms
	}
	t, _ := time.Parse("15:04:05", norm)
	return t.Format("3:04 PM")
}
