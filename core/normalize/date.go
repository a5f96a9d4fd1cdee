package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Day-first layouts come before ISO ones; UMC exports are dd/mm/yyyy.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2006-1-2",
	"2006/1/2",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Excel serials for 1990-01-01 and 2100-12-31. Anything outside is treated
// as a plain number rather than a date.
const (
	minExcelSerial = 32874
	maxExcelSerial = 73415
)

// ParseDate reads a calendar date, optionally followed by a time of day
// ("02/01/2025 08:30"). Excel serial day numbers are accepted. The result is
// in UTC; dates carry no zone in the source data.
func ParseDate(s string) (time.Time, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return time.Time{}, ErrEmpty
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		if f < minExcelSerial || f > maxExcelSerial {
			return time.Time{}, fmt.Errorf("%w: %q", ErrRange, s)
		}
		d, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrFormat, s)
		}
		return d.UTC(), nil
	}
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, t, time.UTC); err == nil {
			return d.UTC(), nil
		}
	}
	datePart, clockPart, found := strings.Cut(t, " ")
	if !found {
		return time.Time{}, fmt.Errorf("%w: %q", ErrFormat, s)
	}
	for _, layout := range dateLayouts[:6] {
		d, err := time.ParseInLocation(layout, datePart, time.UTC)
		if err != nil {
			continue
		}
		clock, err := ParseClock(clockPart)
		if err != nil {
			return time.Time{}, err
		}
		return d.Add(clock), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrFormat, s)
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
