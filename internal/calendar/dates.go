package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// MonthLayout is the format of month selectors such as "2025-03".
const MonthLayout = "2006-01"

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: invalid date %q", value)
	}
	return t, nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseMonth parses a YYYY-MM selector and returns the first day of that month.
func ParseMonth(value string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: invalid month %q", value)
	}
	return t, nil
}

// MonthDays returns every date of the month containing first, in order.
func MonthDays(first time.Time) []time.Time {
	start := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	days := make([]time.Time, 0, 31)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
