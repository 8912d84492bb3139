package ladder

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

func testHolidays() *calendar.Holidays {
	return calendar.NewHolidays(calendar.UKBankHolidays(2000, 2040))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const singleGiltCSV = `INSTRUMENT_NAME,ISIN_CODE,REDEMPTION_DATE,FIRST_ISSUE_DATE,BASE_RPI_87,CLOSE_OF_BUSINESS_DATE
5% Treasury Gilt 2025,GB00AAAAAAAA,2025-01-07,2015-01-07,,2024-01-02
`

// Scenario 5: fund a single £10,000 withdrawal shortly after a single
// gilt's maturity with that gilt alone. Settlement falls after the
// January 2024 ex-dividend date, so each unit nominal pays the July 2024
// and January 2025 coupons (2.5 each) plus the 100 redemption before the
// withdrawal, and the required quantity is close to the schedule amount
// divided by those 105.
func TestSolveSingleWithdrawalSingleGilt(t *testing.T) {
	u, err := universe.ParseCSV(strings.NewReader(singleGiltCSV), nil, testHolidays())
	require.NoError(t, err)

	book := prices.NewPriceBook()
	book.AddPrice(date(2024, time.January, 2), "GB00AAAAAAAA", "TG25", 95.0)

	schedule := Schedule{{Date: date(2025, time.January, 10), Amount: 10000}}
	opts := Options{}

	solver := New(u, book, schedule, opts, testHolidays(), date(2024, time.January, 2))
	result, err := solver.Solve()
	require.NoError(t, err)

	require.Len(t, result.BuyList, 3) // gilt + Cash + Total
	gilt := result.BuyList[0]
	require.NotNil(t, gilt.Quantity)

	expectedQuantity := 10000.0 / 105.0
	assert.InDelta(t, expectedQuantity, *gilt.Quantity, 0.5)
	assert.Less(t, result.TotalCost, 10000.0)
	assert.Greater(t, result.TotalCost, 9000.0)
	assert.Greater(t, result.WithdrawalRate, 0.0)
}

// Scenario 6: a multi-year schedule with income tax enabled produces
// TAX_PAYMENT events on 31 January following each UK tax year end, and
// the solve succeeds (implying balance stayed non-negative throughout,
// since every outgoing event is backed by a non-negative LP variable).
func TestSolveWithIncomeTaxSchedule(t *testing.T) {
	csv := `INSTRUMENT_NAME,ISIN_CODE,REDEMPTION_DATE,FIRST_ISSUE_DATE,BASE_RPI_87,CLOSE_OF_BUSINESS_DATE
8% Treasury Gilt 2027,GB00CCCCCCCC,2027-06-01,2010-06-01,,2024-01-02
`
	u, err := universe.ParseCSV(strings.NewReader(csv), nil, testHolidays())
	require.NoError(t, err)

	book := prices.NewPriceBook()
	book.AddPrice(date(2024, time.January, 2), "GB00CCCCCCCC", "TG27", 102.0)

	schedule := Schedule{
		{Date: date(2025, time.July, 1), Amount: 5000},
		{Date: date(2026, time.July, 1), Amount: 5000},
		{Date: date(2027, time.July, 1), Amount: 5000},
	}
	opts := Options{MarginalIncomeTax: 0.2}

	solver := New(u, book, schedule, opts, testHolidays(), date(2024, time.January, 2))
	result, err := solver.Solve()
	require.NoError(t, err)

	var sawTaxPayment bool
	for _, row := range result.CashFlows {
		if strings.HasPrefix(row.Description, "Tax for year") {
			sawTaxPayment = true
			assert.Equal(t, 31, row.Date.Day())
			assert.Equal(t, time.January, row.Date.Month())
		}
	}
	assert.True(t, sawTaxPayment, "expected at least one tax payment row")
	assert.Greater(t, result.TotalCost, 0.0)
}

func TestSolveEmptyScheduleErrors(t *testing.T) {
	u, err := universe.ParseCSV(strings.NewReader(singleGiltCSV), nil, testHolidays())
	require.NoError(t, err)
	book := prices.NewPriceBook()

	solver := New(u, book, nil, Options{}, testHolidays(), date(2024, time.January, 2))
	_, err = solver.Solve()
	assert.ErrorIs(t, err, ErrEmptySchedule)
}
