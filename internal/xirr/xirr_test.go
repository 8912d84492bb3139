package xirr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestXIRRSingleYearRoundTrip(t *testing.T) {
	dates := []time.Time{d(2023, time.January, 1), d(2024, time.January, 1)}
	values := []float64{-100, 110}
	rate, err := XIRR(values, dates)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, rate, 0.01)
}

func TestXNPVAtZeroIsSum(t *testing.T) {
	dates := []time.Time{d(2023, time.January, 1), d(2023, time.June, 1), d(2024, time.January, 1)}
	values := []float64{-100, 40, 70}
	npv := XNPV(0, values, dates)
	assert.InDelta(t, 10, npv, 1e-9)
}

func TestXIRRMultipleCashFlows(t *testing.T) {
	dates := []time.Time{
		d(2020, time.January, 1),
		d(2021, time.January, 1),
		d(2022, time.January, 1),
		d(2023, time.January, 1),
	}
	values := []float64{-100, 5, 5, 105}
	rate, err := XIRR(values, dates)
	require.NoError(t, err)
	assert.InDelta(t, 0, XNPV(rate, values, dates), 1e-6)
}

func TestXIRREmpty(t *testing.T) {
	_, err := XIRR(nil, nil)
	assert.ErrorIs(t, err, ErrEmpty)
}
