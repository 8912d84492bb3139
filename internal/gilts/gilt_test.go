package gilts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/gilts/internal/calendar"
)

func newTestHolidays() *calendar.Holidays {
	return calendar.NewHolidays(calendar.UKBankHolidays(2000, 2070))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCouponDatesStandardPeriod(t *testing.T) {
	h := newTestHolidays()
	g, err := NewGilt("4.500% 2035", "GB00TESTGILT", 4.5, date(2035, time.March, 7), date(2010, time.January, 10), h)
	require.NoError(t, err)

	prev, next, err := g.CouponDates(date(2024, time.May, 1))
	require.NoError(t, err)
	assert.True(t, prev.Equal(date(2024, time.March, 7)))
	require.NotEmpty(t, next)
	assert.True(t, next[0].Equal(date(2024, time.September, 7)))
}

func TestCouponDatesShortFirstPeriod(t *testing.T) {
	h := newTestHolidays()
	// Issue sits between the synthetic 6-months-before-first-coupon anchor
	// and the first real coupon: a SHORT first period.
	g, err := NewGilt("0.375% 2026", "GB00TESTGILT", 0.375, date(2026, time.July, 31), date(2020, time.October, 16), h)
	require.NoError(t, err)

	prev, _, err := g.CouponDates(date(2020, time.December, 1))
	require.NoError(t, err)
	assert.Equal(t, Short, g.period(prev))
}

func TestAccruedInterestZeroOnCouponDateForStandardPeriod(t *testing.T) {
	h := newTestHolidays()
	g, err := NewGilt("4.500% 2035", "GB00TESTGILT", 4.5, date(2035, time.March, 7), date(2010, time.January, 10), h)
	require.NoError(t, err)

	accrued, err := g.AccruedInterest(date(2023, time.September, 7))
	require.NoError(t, err)
	assert.InDelta(t, 0, accrued, 1e-9)
}

func TestCleanDirtyPriceRoundTrip(t *testing.T) {
	h := newTestHolidays()
	g, err := NewGilt("4.500% 2035", "GB00TESTGILT", 4.5, date(2035, time.March, 7), date(2010, time.January, 10), h)
	require.NoError(t, err)

	settlement := date(2024, time.May, 14)
	clean := 98.75

	dirty, err := g.DirtyPrice(clean, settlement)
	require.NoError(t, err)

	roundTripped, err := g.CleanPrice(dirty, settlement)
	require.NoError(t, err)

	assert.InDelta(t, clean, roundTripped, 1e-9)
}

func TestYTMValueRoundTrip(t *testing.T) {
	h := newTestHolidays()
	g, err := NewGilt("4.500% 2035", "GB00TESTGILT", 4.5, date(2035, time.March, 7), date(2010, time.January, 10), h)
	require.NoError(t, err)

	settlement := date(2024, time.May, 14)
	clean := 98.75

	dirty, err := g.DirtyPrice(clean, settlement)
	require.NoError(t, err)

	ytm, err := g.YTM(dirty, settlement)
	require.NoError(t, err)
	assert.Greater(t, ytm, 0.0)
	assert.Less(t, ytm, 0.20)

	value, err := g.Value(ytm, settlement)
	require.NoError(t, err)
	assert.InDelta(t, dirty, value, 1e-6)
}

func TestCashFlowsIncludesRedemptionAtMaturity(t *testing.T) {
	h := newTestHolidays()
	g, err := NewGilt("4.500% 2035", "GB00TESTGILT", 4.5, date(2035, time.March, 7), date(2010, time.January, 10), h)
	require.NoError(t, err)

	flows, err := g.CashFlows(date(2034, time.June, 1))
	require.NoError(t, err)
	require.NotEmpty(t, flows)

	last := flows[len(flows)-1]
	assert.True(t, last.Date.Equal(date(2035, time.March, 7)))
	assert.InDelta(t, FacePrice, last.Value, 1e-9)
}

func TestCashFlowsEmptyAfterFinalExDividendDate(t *testing.T) {
	h := newTestHolidays()
	g, err := NewGilt("4.500% 2035", "GB00TESTGILT", 4.5, date(2035, time.March, 7), date(2010, time.January, 10), h)
	require.NoError(t, err)

	flows, err := g.CashFlows(date(2035, time.March, 8))
	require.NoError(t, err)
	assert.Empty(t, flows)
}

func TestSettlementOutOfRangeErrors(t *testing.T) {
	h := newTestHolidays()
	g, err := NewGilt("4.500% 2035", "GB00TESTGILT", 4.5, date(2035, time.March, 7), date(2010, time.January, 10), h)
	require.NoError(t, err)

	_, _, err = g.CouponDates(date(2009, time.January, 1))
	assert.ErrorIs(t, err, ErrSettlementBeforeIssue)

	_, _, err = g.CouponDates(date(2036, time.January, 1))
	assert.ErrorIs(t, err, ErrSettlementAfterMaturity)
}

func TestNewGiltValidation(t *testing.T) {
	h := newTestHolidays()
	_, err := NewGilt("bad isin", "SHORT", 4.5, date(2035, 3, 7), date(2010, 1, 10), h)
	assert.ErrorIs(t, err, ErrInvalidISIN)

	_, err = NewGilt("negative coupon", "GB00TESTGILT", -1, date(2035, 3, 7), date(2010, 1, 10), h)
	assert.ErrorIs(t, err, ErrNegativeCoupon)

	_, err = NewGilt("backwards dates", "GB00TESTGILT", 4.5, date(2010, 1, 10), date(2035, 3, 7), h)
	assert.ErrorIs(t, err, ErrIssueAfterMaturity)
}

func TestShortName(t *testing.T) {
	h := newTestHolidays()
	g, err := NewGilt("anything", "GB00TESTGILT", 4.5, date(2035, time.March, 7), date(2010, time.January, 10), h)
	require.NoError(t, err)
	assert.Equal(t, "4.500% 2035-03-07", g.ShortName())
}
