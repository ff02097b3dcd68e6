package pricing

import "time"

const dateLayout = "2006-01-02"

// MaxStayNights bounds every requested range.
const MaxStayNights = 365

// WeekdayMask selects days of the week; bit i stands for time.Weekday(i).
type WeekdayMask uint8

const (
	Weekends    = WeekdayMask(1<<time.Saturday | 1<<time.Sunday)
	WorkingDays = WeekdayMask(1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday)
	EveryDay    = Weekends | WorkingDays
)

func MaskOf(days ...time.Weekday) WeekdayMask {
	var m WeekdayMask
	for _, d := range days {
		m |= 1 << d
	}

	return m
}

func (m WeekdayMask) Has(d time.Weekday) bool {
	return m&(1<<d) != 0
}

// Day returns midnight UTC of the given calendar date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the clock part of t, keeping the calendar date t has in its own location.
func DateOf(t time.Time) time.Time {
	return Day(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s) //nolint:wrapcheck
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// nightsBetween lists the nights of the half-open range [start, end).
func nightsBetween(start, end time.Time) []time.Time {
	var nights []time.Time

	for d := DateOf(start); d.Before(end); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}

	return nights
}
