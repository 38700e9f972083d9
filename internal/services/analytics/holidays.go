package analytics

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var (
	ErrUnknownHolidayRegion = errors.New("no holiday calendar for region")
	ErrInvalidHoliday       = errors.New("holiday needs a name and at least one date")
)

// HolidayCalendar lists the public holidays of one year by date.
type HolidayCalendar func(year int) map[civil.Date]string

var HolidayCalendars = map[string]HolidayCalendar{
	"RU": calendarOf(russianHolidays),
	"US": calendarOf(us.Holidays),
}

// LookupHolidays returns the calendar for an ISO country code.
func LookupHolidays(region string) (HolidayCalendar, error) {
	c, ok := HolidayCalendars[strings.ToUpper(strings.TrimSpace(region))]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownHolidayRegion, region)
	}
	return c, nil
}

// calendarOf marks each holiday on its actual date, and also on its observed date
// when that falls on another day of the same year.
func calendarOf(holidays []*cal.Holiday) HolidayCalendar {
	return func(year int) map[civil.Date]string {
		out := make(map[civil.Date]string, len(holidays))
		for _, h := range holidays {
			actual, observed := h.Calc(year)
			if actual.IsZero() {
				continue
			}
			out[civil.DateOf(actual)] = h.Name
			if observed.IsZero() {
				continue
			}
			if d := civil.DateOf(observed); d.Year == year {
				if _, taken := out[d]; !taken {
					out[d] = h.Name
				}
			}
		}
		return out
	}
}

// Russian holidays are fixed dates; the yearly weekend transfers are set by decree
// and are not modelled.
var russianHolidays = []*cal.Holiday{
	fixed("Новогодние каникулы", time.January, 1),
	fixed("Новогодние каникулы", time.January, 2),
	fixed("Новогодние каникулы", time.January, 3),
	fixed("Новогодние каникулы", time.January, 4),
	fixed("Новогодние каникулы", time.January, 5),
	fixed("Новогодние каникулы", time.January, 6),
	fixed("Рождество Христово", time.January, 7),
	fixed("Новогодние каникулы", time.January, 8),
	fixed("День защитника Отечества", time.February, 23),
	fixed("Международный женский день", time.March, 8),
	fixed("Праздник Весны и Труда", time.May, 1),
	fixed("День Победы", time.May, 9),
	fixed("День России", time.June, 12),
	fixed("День народного единства", time.November, 4),
}

func fixed(name string, month time.Month, day int) *cal.Holiday {
	return &cal.Holiday{
		Name:  name,
		Type:  cal.ObservancePublic,
		Month: month,
		Day:   day,
		Func:  cal.CalcDayOfMonth,
	}
}

// holidaySet maps dates to the custom event names falling on them.
type holidaySet map[civil.Date][]string

func (s holidaySet) add(name string, dates []civil.Date) error {
	if err := checkHoliday(name, dates); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	for _, d := range dates {
		if !slices.Contains(s[d], name) {
			s[d] = append(s[d], name)
		}
	}
	return nil
}

func checkHoliday(name string, dates []civil.Date) error {
	if strings.TrimSpace(name) == "" || len(dates) == 0 {
		return ErrInvalidHoliday
	}
	for _, d := range dates {
		if !d.IsValid() {
			return fmt.Errorf("%w: %q has invalid date %s", ErrInvalidHoliday, name, d)
		}
	}
	return nil
}
