package gilts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/gilts/internal/calendar"
	"benritz/gilts/internal/rpi"
)

func monthlyRPISeries(startYear int, startMonth time.Month, months int, start, monthlyIncrement float64) *rpi.Series {
	values := make([]float64, months)
	for i := range values {
		values[i] = start + monthlyIncrement*float64(i)
	}
	return rpi.NewSeries(startYear, startMonth, values)
}

func TestNewIndexLinkedGiltLagSelection(t *testing.T) {
	h := newTestHolidays()
	series := monthlyRPISeries(2000, time.January, 360, 170, 0.3)

	threeMonthLag, err := NewIndexLinkedGilt("0.125% IL 2068", "GB00TESTLINK", 0.125,
		date(2068, time.March, 22), date(2018, time.January, 22), 250.0, series, h)
	require.NoError(t, err)
	assert.Equal(t, 3, threeMonthLag.LagMonths())

	eightMonthLag, err := NewIndexLinkedGilt("2.500% IL 2024", "GB00TESTLINK", 2.5,
		date(2024, time.July, 17), date(1986, time.June, 1), 90.0, series, h)
	require.NoError(t, err)
	assert.Equal(t, 8, eightMonthLag.LagMonths())
}

func TestRefRPIThreeMonthLagInterpolation(t *testing.T) {
	h := newTestHolidays()
	series := monthlyRPISeries(2015, time.January, 120, 260.0, 0.5)

	g, err := NewIndexLinkedGilt("0.125% IL 2068", "GB00TESTLINK", 0.125,
		date(2068, time.March, 22), date(2018, time.January, 22), 260.0, series, h)
	require.NoError(t, err)

	settlement := date(2024, time.June, 15)
	monthIdx := series.LookupIndex(settlement) - 3
	rpi0, err := series.ExtrapolateFromIndex(monthIdx, DefaultInflationRate)
	require.NoError(t, err)
	rpi1, err := series.ExtrapolateFromIndex(monthIdx+1, DefaultInflationRate)
	require.NoError(t, err)
	weight := float64(settlement.Day()-1) / float64(calendar.DaysInMonth(settlement.Year(), settlement.Month()))
	want := round(rpi0+weight*(rpi1-rpi0), 5)

	got, err := g.RefRPI(settlement, DefaultInflationRate)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestIndexRatioScalesByBaseRPI(t *testing.T) {
	h := newTestHolidays()
	series := monthlyRPISeries(2015, time.January, 120, 260.0, 0.5)
	baseRPI := 258.0

	g, err := NewIndexLinkedGilt("0.125% IL 2068", "GB00TESTLINK", 0.125,
		date(2068, time.March, 22), date(2018, time.January, 22), baseRPI, series, h)
	require.NoError(t, err)

	settlement := date(2024, time.June, 1)
	refRPI, err := g.RefRPI(settlement, DefaultInflationRate)
	require.NoError(t, err)

	ratio, err := g.IndexRatio(settlement, DefaultInflationRate)
	require.NoError(t, err)
	assert.InDelta(t, refRPI/baseRPI, ratio, 1e-5)
}

func TestIndexLinkedCleanDirtyPriceRoundTrip(t *testing.T) {
	h := newTestHolidays()
	series := monthlyRPISeries(2000, time.January, 300, 170.0, 0.3)

	g, err := NewIndexLinkedGilt("0.125% IL 2068", "GB00TESTLINK", 0.125,
		date(2068, time.March, 22), date(2018, time.January, 22), 250.0, series, h)
	require.NoError(t, err)

	settlement := date(2024, time.May, 14)
	clean := 105.50

	dirty, err := g.DirtyPrice(clean, settlement)
	require.NoError(t, err)

	roundTripped, err := g.CleanPrice(dirty, settlement)
	require.NoError(t, err)

	assert.InDelta(t, clean, roundTripped, 1e-6)
}

func TestIndexLinkedCashFlowsRoundedToSixDecimalsWhenIssuedAfter2002(t *testing.T) {
	h := newTestHolidays()
	series := monthlyRPISeries(2000, time.January, 300, 170.0, 0.3)

	g, err := NewIndexLinkedGilt("0.125% IL 2068", "GB00TESTLINK", 0.125,
		date(2068, time.March, 22), date(2018, time.January, 22), 250.0, series, h)
	require.NoError(t, err)

	flows, err := g.CashFlows(date(2024, time.June, 1))
	require.NoError(t, err)
	require.NotEmpty(t, flows)
	for _, cf := range flows {
		scaled := cf.Value * 1e6
		assert.InDelta(t, scaled, float64(int64(scaled+0.5)), 1e-3)
	}
}

func TestIndexLinkedYTMValueRoundTrip(t *testing.T) {
	h := newTestHolidays()
	series := monthlyRPISeries(2000, time.January, 360, 170.0, 0.3)

	g, err := NewIndexLinkedGilt("0.125% IL 2068", "GB00TESTLINK", 0.125,
		date(2068, time.March, 22), date(2018, time.January, 22), 250.0, series, h)
	require.NoError(t, err)

	settlement := date(2024, time.May, 14)
	dirty, err := g.DirtyPrice(95.0, settlement)
	require.NoError(t, err)

	y, err := g.YTM(dirty, settlement)
	require.NoError(t, err)

	value, err := g.Value(y, settlement)
	require.NoError(t, err)
	assert.InDelta(t, dirty, value, 1e-4)
}

func TestIsFixedReflectsSeriesCoverage(t *testing.T) {
	h := newTestHolidays()
	series := monthlyRPISeries(2000, time.January, 300, 170.0, 0.3) // last observation 2024-12-01

	g, err := NewIndexLinkedGilt("0.125% IL 2068", "GB00TESTLINK", 0.125,
		date(2068, time.March, 22), date(2018, time.January, 22), 250.0, series, h)
	require.NoError(t, err)

	assert.True(t, g.IsFixed(date(2024, time.September, 1)))
	assert.False(t, g.IsRedemptionFixed())
}

func TestShortNameIndexLinked(t *testing.T) {
	h := newTestHolidays()
	series := monthlyRPISeries(2000, time.January, 300, 170.0, 0.3)
	g, err := NewIndexLinkedGilt("anything", "GB00TESTLINK", 0.125,
		date(2068, time.March, 22), date(2018, time.January, 22), 250.0, series, h)
	require.NoError(t, err)
	assert.Equal(t, "0.125% IL 2068-03-22", g.ShortName())
}
