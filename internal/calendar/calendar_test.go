package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsUKBankHoliday(t *testing.T) {
	cases := []struct {
		y int
		m time.Month
		d int
		want bool
	}{
		{1998, time.January, 1, true},
		{2110, time.December, 26, true},
		{2023, time.November, 17, false},
	}
	for _, c := range cases {
		got := IsUKBankHoliday(date(c.y, c.m, c.d))
		assert.Equalf(t, c.want, got, "%04d-%02d-%02d", c.y, c.m, c.d)
	}
}

func TestBusinessDaySequence(t *testing.T) {
	h := NewHolidays(UKBankHolidays(2004, 2004))
	require.False(t, h.IsBusinessDay(date(2004, time.August, 30)), "summer bank holiday")

	seq := []time.Time{
		date(2004, time.August, 26),
		date(2004, time.August, 27),
		date(2004, time.August, 31),
		date(2004, time.September, 1),
		date(2004, time.September, 2),
		date(2004, time.September, 3),
		date(2004, time.September, 6),
		date(2004, time.September, 7),
	}
	for i := 0; i+1 < len(seq); i++ {
		d0, d1 := seq[i], seq[i+1]
		assert.Truef(t, h.PrevBusinessDay(d1).Equal(d0), "prev business day of %v", d1)
		assert.Truef(t, h.NextBusinessDay(d0).Equal(d1), "next business day of %v", d0)
	}
}

func TestShiftMonth(t *testing.T) {
	assert.Equal(t, date(2024, time.February, 29), ShiftMonth(date(2024, time.March, 31), -1))
	assert.Equal(t, date(2023, time.February, 28), ShiftMonth(date(2023, time.March, 31), -1))
	assert.Equal(t, date(2025, time.January, 31), ShiftMonth(date(2025, time.July, 31), -6))
}

func TestShiftYear(t *testing.T) {
	assert.Equal(t, date(2023, time.February, 28), ShiftYear(date(2024, time.February, 29), -1))
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(2023, time.February))
	assert.Equal(t, 31, DaysInMonth(2024, time.January))
}
