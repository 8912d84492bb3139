package curve

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benritz/gilts/internal/calendar"
	"benritz/gilts/internal/prices"
	"benritz/gilts/internal/universe"
)

const curveCSV = `INSTRUMENT_NAME,ISIN_CODE,REDEMPTION_DATE,FIRST_ISSUE_DATE,BASE_RPI_87,CLOSE_OF_BUSINESS_DATE
2% Treasury Gilt 2026,GB00AAAAAAAA,2026-09-07,2016-09-07,,2024-06-03
4½% Treasury Gilt 2034,GB00BBBBBBBB,2034-03-07,2010-01-10,,2024-06-03
`

func TestBuildSortsByMaturity(t *testing.T) {
	holidays := calendar.NewHolidays(calendar.UKBankHolidays(2000, 2040))
	u, err := universe.ParseCSV(strings.NewReader(curveCSV), nil, holidays)
	require.NoError(t, err)

	book := prices.NewPriceBook()
	at := time.Date(2024, time.June, 3, 16, 35, 0, 0, time.UTC)
	book.AddPrice(at, "GB00AAAAAAAA", "T26", 98.5)
	book.AddPrice(at, "GB00BBBBBBBB", "T34", 101.2)

	closeDate := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	points, err := Build(u, book, universe.Conventional, holidays, closeDate)
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, "T26", points[0].TIDM)
	assert.Equal(t, "T34", points[1].TIDM)
	assert.Less(t, points[0].MaturityYears, points[1].MaturityYears)
	assert.Greater(t, points[0].Yield, -0.5)
	assert.Less(t, points[0].Yield, 0.5)
}

func TestBuildSkipsGiltsWithoutAQuote(t *testing.T) {
	holidays := calendar.NewHolidays(calendar.UKBankHolidays(2000, 2040))
	u, err := universe.ParseCSV(strings.NewReader(curveCSV), nil, holidays)
	require.NoError(t, err)

	book := prices.NewPriceBook()
	at := time.Date(2024, time.June, 3, 16, 35, 0, 0, time.UTC)
	book.AddPrice(at, "GB00AAAAAAAA", "T26", 98.5)

	closeDate := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	points, err := Build(u, book, universe.Conventional, holidays, closeDate)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "T26", points[0].TIDM)
}
