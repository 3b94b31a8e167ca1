// Package dates converts between calendar days and the DD-MM-YYYY day
// identifiers used throughout reports.
package dates

import (
	"errors"
	"fmt"
	"time"
)

// DayLayout is the day identifier format, also accepted by CoinGecko's history endpoint.
const DayLayout = "02-01-2006"

// InputLayout is the format of dates given on the command line.
const InputLayout = "2006-01-02"

// SecondsPerDay is the length of a day boundary interval in Unix time.
const SecondsPerDay = 24 * 60 * 60

// ErrInvalidDay is returned for identifiers that are not DD-MM-YYYY.
var ErrInvalidDay = errors.New("invalid day identifier")

// FormatDay formats t as a zero-padded DD-MM-YYYY identifier in t's location.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses a DD-MM-YYYY identifier into midnight UTC of that day.
func ParseDay(day string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, day, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}
	return t, nil
}

// DayToUnix returns the Unix timestamp of 00:00 UTC of the given day.
func DayToUnix(day string) (int64, error) {
	t, err := ParseDay(day)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// DayOf returns the UTC day identifier a Unix timestamp falls into.
func DayOf(unix int64) string {
	return FormatDay(time.Unix(unix, 0).UTC())
}

// ParseInput parses a YYYY-MM-DD date into midnight UTC.
func ParseInput(s string) (time.Time, error) {
	return time.ParseInLocation(InputLayout, s, time.UTC)
}
