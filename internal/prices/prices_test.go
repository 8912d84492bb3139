package prices

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClosingPrices(t *testing.T) {
	csv := "date,isin,tidm,price\n2024-06-03,GB00AAAAAAAA,T34,98.75\n2024-06-04,GB00BBBBBBBB,TG25,101.20\n"

	book, err := LoadClosingPrices(strings.NewReader(csv))
	require.NoError(t, err)

	price, err := book.Price("GB00AAAAAAAA")
	require.NoError(t, err)
	assert.InDelta(t, 98.75, price, 1e-9)

	assert.Equal(t, time.Date(2024, time.June, 4, 16, 35, 0, 0, closeOfBusiness), book.AsOf())
}

func TestPriceBookAsOfTracksMax(t *testing.T) {
	book := NewPriceBook()
	book.AddPrice(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "A", "TA", 100)
	book.AddPrice(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), "B", "TB", 90)
	assert.Equal(t, 2024, book.AsOf().Year())
}

func TestLoadLiveQuotesFallsBackToLastPrice(t *testing.T) {
	raw := `[
		{"isin": "GB00AAAAAAAA", "tidm": "T34", "currency": "GBP", "midPrice": null, "lastprice": 99.5},
		{"isin": "GB00BBBBBBBB", "tidm": "TG25", "currency": "GBP", "midPrice": 101.1, "lastprice": 100.9},
		{"isin": "GB00CCCCCCCC", "tidm": "TG26", "currency": "GBP", "midPrice": null, "lastprice": null}
	]`

	book, err := LoadLiveQuotes(strings.NewReader(raw), time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC), MidPrice)
	require.NoError(t, err)

	p1, err := book.Price("GB00AAAAAAAA")
	require.NoError(t, err)
	assert.InDelta(t, 99.5, p1, 1e-9)

	p2, err := book.Price("GB00BBBBBBBB")
	require.NoError(t, err)
	assert.InDelta(t, 101.1, p2, 1e-9)

	_, err = book.Price("GB00CCCCCCCC")
	assert.ErrorIs(t, err, ErrUnknownISIN)
}

func TestUnknownISIN(t *testing.T) {
	book := NewPriceBook()
	_, err := book.Price("GB00ZZZZZZZZ")
	assert.ErrorIs(t, err, ErrUnknownISIN)
}
