package rpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupIndex(t *testing.T) {
	s := NewSeries(2023, time.January, []float64{130.0, 130.5, 131.0})
	assert.Equal(t, 0, s.LookupIndex(time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2, s.LookupIndex(time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, s.LookupIndex(time.Date(2022, time.December, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, s.LookupIndex(time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC)))
}

func TestExtrapolateFromIndexObserved(t *testing.T) {
	s := NewSeries(2023, time.January, []float64{130.0, 130.5, 131.0})
	v, err := s.ExtrapolateFromIndex(1, 0.03)
	require.NoError(t, err)
	assert.Equal(t, 130.5, v)
}

func TestExtrapolateFromIndexFuture(t *testing.T) {
	s := NewSeries(2023, time.January, []float64{100.0})
	v, err := s.ExtrapolateFromIndex(12, 0.03)
	require.NoError(t, err)
	assert.InDelta(t, 103.0, v, 0.05)
}

func TestExtrapolateBeforeStart(t *testing.T) {
	s := NewSeries(2023, time.January, []float64{100.0})
	_, err := s.ExtrapolateFromIndex(-1, 0.03)
	assert.ErrorIs(t, err, ErrBeforeSeriesStart)
}

func TestLastDate(t *testing.T) {
	s := NewSeries(2023, time.January, []float64{100, 101, 102})
	assert.Equal(t, time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), s.LastDate())
}
