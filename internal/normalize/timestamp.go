package normalize

import (
	"fmt"
	"time"

	"degiro-returns/internal/trade"
)

const (
	dateLayout = "02/01/2006"
	hourLayout = "15:04"
)

// ParseDate parses a dd/mm/YYYY date string (spec.md §6).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", trade.ErrParse, s)
	}
	return t, nil
}

// parseHour parses an HH:MM time-of-day string.
func parseHour(s string) (time.Time, error) {
	t, err := time.Parse(hourLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid hour %q", trade.ErrParse, s)
	}
	return t, nil
}

// combineTimestamp implements stage (a): construct date = value_date + "
// " + reg_hour and parse as a datetime, and separately keep the date-only
// value_date used for ordering and the two-month window.
func combineTimestamp(regDate, valueDate, regHour string) (ts, vd time.Time, ok bool, err error) {
	if regDate == "" {
		// Orphan row: no timestamp to compute, caller routes it through
		// the orphan merge instead of failing here.
		return time.Time{}, time.Time{}, false, nil
	}
	vd, err = ParseDate(valueDate)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	hr, err := parseHour(regHour)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	ts = time.Date(vd.Year(), vd.Month(), vd.Day(), hr.Hour(), hr.Minute(), 0, 0, time.UTC)
	return ts, vd, true, nil
}
