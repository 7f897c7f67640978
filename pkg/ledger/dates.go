// Package ledger is the aggregation and classification engine: date windows,
// per-card rollups, top-N ranking, category reports and transfer detection.
//
// Every function is pure. Inputs are never modified and every result is a
// freshly allocated slice, so callers may share one transaction snapshot
// between several views.
package ledger

import (
	"errors"
	"fmt"
	"time"
)

// Textual layouts used at the boundaries of the engine.
const (
	// TimestampLayout is the reference timestamp accepted by the main page.
	TimestampLayout = time.DateTime
	// DateLayout is the optional reference date of the category report.
	DateLayout = time.DateOnly
	// RecordDateLayout is the day-first format of the operation date column.
	RecordDateLayout = "02.01.2006 15:04:05"
)

var (
	// ErrInvalidTimestamp is returned when a reference timestamp does not match TimestampLayout.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrInvalidDate is returned when a reference date does not match DateLayout.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidRecordDate is returned when a transaction's operation date does not match RecordDateLayout.
	ErrInvalidRecordDate = errors.New("invalid operation date")
)

// ParseTimestamp parses a "YYYY-MM-DD HH:MM:SS" reference timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := parseExact(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: want format %s", ErrInvalidTimestamp, s, TimestampLayout)
	}
	return t, nil
}

// ParseRecordDate parses the operation date of a transaction.
func ParseRecordDate(s string) (time.Time, error) {
	t, err := parseExact(RecordDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: want format %s", ErrInvalidRecordDate, s, RecordDateLayout)
	}
	return t, nil
}

// ReportEnd resolves the end of a category report window. An empty date
// means now, truncated to the second; otherwise date is "YYYY-MM-DD" and the
// window ends at midnight that day.
func ReportEnd(date string, now time.Time) (time.Time, error) {
	if date == "" {
		return wallClock(now), nil
	}
	t, err := parseExact(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: want format %s", ErrInvalidDate, date, DateLayout)
	}
	return t, nil
}

// parseExact is time.Parse that also rejects anything the layout would not
// print back, such as a fractional-seconds suffix.
func parseExact(layout, s string) (time.Time, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, err
	}
	if t.Format(layout) != s {
		return time.Time{}, fmt.Errorf("%q does not match layout %q exactly", s, layout)
	}
	return t, nil
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// SubtractMonths moves t back by whole calendar months. When the target month
// is shorter the day is clamped to its last day, so May 31 minus three months
// is the last day of February rather than early March.
func SubtractMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m-time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// wallClock drops the zone and sub-second part of t so it compares with
// record dates, which carry neither.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
