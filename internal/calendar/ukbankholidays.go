package calendar

import "time"

// IsUKBankHoliday reports whether d is one of England & Wales's permanent
// bank holidays (New Year's Day, Good Friday, Easter Monday, the early-May,
// spring and summer bank holidays, Christmas Day and Boxing Day), with the
// usual weekend substitution rules applied. One-off holidays gazetted for a
// specific year (e.g. a coronation or jubilee) are not modelled; callers
// who need those add them to a Holidays set built from UKBankHolidays plus
// their own extra dates.
func IsUKBankHoliday(d time.Time) bool {
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	for _, h := range ukBankHolidays(d.Year()) {
		if h.Equal(d) {
			return true
		}
	}
	return false
}

// UKBankHolidays returns the permanent England & Wales bank holidays
// falling in [from, to] inclusive, suitable for feeding NewHolidays.
func UKBankHolidays(from, to int) []time.Time {
	var dates []time.Time
	for y := from; y <= to; y++ {
		dates = append(dates, ukBankHolidays(y)...)
	}
	return dates
}

func ukBankHolidays(year int) []time.Time {
	easter := easterSunday(year)
	goodFriday := easter.AddDate(0, 0, -2)
	easterMonday := easter.AddDate(0, 0, 1)

	newYear := substituteWeekend(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
	earlyMay := nthWeekdayOfMonth(year, time.May, time.Monday, 1)
	springBank := lastWeekdayOfMonth(year, time.May, time.Monday)
	summerBank := lastWeekdayOfMonth(year, time.August, time.Monday)

	christmas := time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)
	boxingDay := time.Date(year, time.December, 26, 0, 0, 0, 0, time.UTC)
	christmas, boxingDay = substituteChristmasPair(christmas, boxingDay)

	return []time.Time{
		newYear,
		goodFriday,
		easterMonday,
		earlyMay,
		springBank,
		summerBank,
		christmas,
		boxingDay,
	}
}

// substituteWeekend moves a holiday landing on a weekend to the following
// Monday.
func substituteWeekend(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	default:
		return d
	}
}

// substituteChristmasPair applies the combined substitution rule for
// Christmas Day and Boxing Day: if either lands on a weekend, both move so
// that neither substitute collides with the other fixed date.
func substituteChristmasPair(christmas, boxingDay time.Time) (time.Time, time.Time) {
	switch christmas.Weekday() {
	case time.Saturday:
		christmas = christmas.AddDate(0, 0, 2) // Monday 27th
		boxingDay = boxingDay.AddDate(0, 0, 2) // Monday 28th
	case time.Sunday:
		christmas = christmas.AddDate(0, 0, 1) // Monday 26th
		boxingDay = boxingDay.AddDate(0, 0, 1) // Tuesday 27th
	default:
		if boxingDay.Weekday() == time.Saturday {
			boxingDay = boxingDay.AddDate(0, 0, 2)
		} else if boxingDay.Weekday() == time.Sunday {
			boxingDay = boxingDay.AddDate(0, 0, 1)
		}
	}
	return christmas, boxingDay
}

// nthWeekdayOfMonth returns the nth occurrence (1-based) of weekday in
// year/month.
func nthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	d = d.AddDate(0, 0, offset+7*(n-1))
	return d
}

// lastWeekdayOfMonth returns the last occurrence of weekday in year/month.
func lastWeekdayOfMonth(year int, month time.Month, weekday time.Weekday) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

// easterSunday computes the Gregorian Easter Sunday date using the
// anonymous Gregorian algorithm (Meeus/Jones/Butcher).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
