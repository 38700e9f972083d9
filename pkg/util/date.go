package util

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order. They cover ISO dates, the datetime text written by
// spreadsheet exports, and the dotted day-first form used in Russian locales.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"02.01.2006",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"2006/01/02",
	"1/2/06 15:04",
	"01-02-06",
}

// ParseDate parses a spreadsheet cell into a calendar date. Numeric cells are read as
// Excel serial dates. Returns (d, true) if any form worked.
func ParseDate(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 10000 && serial < 2958466 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

// ParseDateDefault parses a date or returns def if empty/invalid.
func ParseDateDefault(s string, def civil.Date) civil.Date {
	if d, ok := ParseDate(s); ok {
		return d
	}
	return def
}

// Weekday numbers days from Monday = 0 to Sunday = 6.
func Weekday(d civil.Date) int {
	return (int(d.In(time.UTC).Weekday()) + 6) % 7
}

// Quarter returns 1..4.
func Quarter(d civil.Date) int {
	return (int(d.Month)-1)/3 + 1
}

// MonthEnd returns the last day of d's month.
func MonthEnd(d civil.Date) civil.Date {
	first := civil.Date{Year: d.Year, Month: d.Month, Day: 1}
	return civil.DateOf(first.In(time.UTC).AddDate(0, 1, -1))
}

// DaysBetween counts calendar days from a to b, inclusive of both ends.
func DaysBetween(a, b civil.Date) int {
	return b.DaysSince(a) + 1
}
