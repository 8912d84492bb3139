// Package calendar provides the business-day and month/year shift
// primitives the gilt pricing formulae are built on. UK bank holidays are
// supplied by the caller; weekends are always non-business days.
package calendar

import "time"

// Holidays is a UK bank-holiday calendar: a set of dates on which the
// London Stock Exchange and the DMO do not settle trades. Callers supply
// this as an immutable input (see §6 of SPEC_FULL.md) — the engine never
// hardcodes a holiday list.
type Holidays struct {
	dates map[string]struct{}
}

// NewHolidays builds a Holidays set from a list of dates. Time-of-day and
// location are ignored; only the calendar date matters.
func NewHolidays(dates []time.Time) *Holidays {
	h := &Holidays{dates: make(map[string]struct{}, len(dates))}
	for _, d := range dates {
		h.dates[key(d)] = struct{}{}
	}
	return h
}

func key(d time.Time) string {
	return d.Format("2006-01-02")
}

func (h *Holidays) isHoliday(d time.Time) bool {
	if h == nil {
		return false
	}
	_, ok := h.dates[key(d)]
	return ok
}

// IsBusinessDay reports whether d is a weekday that is not a bank holiday.
func (h *Holidays) IsBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !h.isHoliday(d)
}

// PrevBusinessDay returns the closest business day strictly before d.
func (h *Holidays) PrevBusinessDay(d time.Time) time.Time {
	d = d.AddDate(0, 0, -1)
	for !h.IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// NextBusinessDay returns the closest business day strictly after d.
func (h *Holidays) NextBusinessDay(d time.Time) time.Time {
	d = d.AddDate(0, 0, 1)
	for !h.IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// DaysInMonth returns the number of days in the given year/month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ShiftMonth shifts d by n months, clamping the day to the last day of the
// resulting month when d's day doesn't exist there (e.g. 31 Jan - 1 month
// lands on 28/29 Feb, not 3 Mar).
func ShiftMonth(d time.Time, n int) time.Time {
	year, month, day := d.Date()
	total := int(month) - 1 + n
	y := year + total/12
	m := total % 12
	if m < 0 {
		m += 12
		y--
	}
	resultMonth := time.Month(m + 1)
	maxDay := DaysInMonth(y, resultMonth)
	if day > maxDay {
		day = maxDay
	}
	return time.Date(y, resultMonth, day, 0, 0, 0, 0, d.Location())
}

// ShiftYear shifts d by n years, applying the same end-of-month clamp as
// ShiftMonth (relevant for 29 Feb).
func ShiftYear(d time.Time, n int) time.Time {
	return ShiftMonth(d, n*12)
}
