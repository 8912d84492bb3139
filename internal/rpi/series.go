// Package rpi models the UK Retail Prices Index (ONS series CHAW) as the
// monotone monthly sequence index-linked gilts are indexed against, with
// extrapolation beyond the last published observation at an assumed
// forward inflation rate.
package rpi

import (
	"fmt"
	"math"
	"time"
)

var (
	// ErrBeforeSeriesStart is returned when a date resolves to a month
	// before the series' first observation — a missing-RPI-for-a-past-month
	// condition, which §7 of the spec treats as fatal.
	ErrBeforeSeriesStart = fmt.Errorf("rpi: date precedes start of series")
)

// Series is a contiguous run of monthly RPI observations starting at
// StartYear/StartMonth, one value per calendar month.
type Series struct {
	startYear  int
	startMonth time.Month
	values     []float64
}

// NewSeries builds a Series from a contiguous run of monthly values
// beginning at (startYear, startMonth).
func NewSeries(startYear int, startMonth time.Month, values []float64) *Series {
	v := make([]float64, len(values))
	copy(v, values)
	return &Series{startYear: startYear, startMonth: startMonth, values: v}
}

// LastDate returns the first day of the last month for which an
// observation exists.
func (s *Series) LastDate() time.Time {
	return s.monthDate(len(s.values) - 1)
}

func (s *Series) monthDate(index int) time.Time {
	total := int(s.startMonth) - 1 + index
	y := s.startYear + total/12
	m := total % 12
	if m < 0 {
		m += 12
		y--
	}
	return time.Date(y, time.Month(m+1), 1, 0, 0, 0, 0, time.UTC)
}

// LookupIndex returns the index position of the month containing date. The
// index may be negative (date before the series starts) or beyond the last
// observed index (date in the future); callers pass it to
// ExtrapolateFromIndex which handles both.
func (s *Series) LookupIndex(date time.Time) int {
	months := (date.Year()-s.startYear)*12 + int(date.Month()) - int(s.startMonth)
	return months
}

// ExtrapolateFromIndex returns the RPI value at index i. If i falls within
// the observed range the stored value is returned unchanged; otherwise the
// value is extrapolated forward from the last observation at a monthly
// rate of (1+rate)^(1/12) - 1.
func (s *Series) ExtrapolateFromIndex(i int, rate float64) (float64, error) {
	if i < 0 {
		return 0, ErrBeforeSeriesStart
	}
	last := len(s.values) - 1
	if i <= last {
		return s.values[i], nil
	}
	monthlyRate := math.Pow(1+rate, 1.0/12.0) - 1
	months := i - last
	return s.values[last] * math.Pow(1+monthlyRate, float64(months)), nil
}

// Extrapolate is a convenience wrapper combining LookupIndex and
// ExtrapolateFromIndex for a given date.
func (s *Series) Extrapolate(date time.Time, rate float64) (float64, error) {
	return s.ExtrapolateFromIndex(s.LookupIndex(date), rate)
}
