// Package prices builds a PriceBook mapping ISIN/TIDM to a clean price,
// from a closing-prices CSV snapshot or a live LSE JSON feed, following
// the fallback rules the original implementation applies when a gilt has
// no recent trade.
package prices

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

var (
	ErrUnknownISIN = fmt.Errorf("prices: no TIDM registered for ISIN")
	ErrUnknownTIDM = fmt.Errorf("prices: no price recorded for TIDM")
	ErrNoPrice     = fmt.Errorf("prices: instrument has no usable price")
)

// PriceBook is an accumulating ISIN→TIDM→clean-price map with a trailing
// as-of timestamp tracking the most recent price it has absorbed.
type PriceBook struct {
	asOf   time.Time
	tidms  map[string]string
	prices map[string]float64
}

// NewPriceBook returns an empty book.
func NewPriceBook() *PriceBook {
	return &PriceBook{
		tidms:  map[string]string{},
		prices: map[string]float64{},
	}
}

// AddPrice records a price observation, folding it into the book's ISIN
// and TIDM indices and advancing AsOf to the latest of all prices added so
// far (prices can arrive out of order across multiple source files).
func (b *PriceBook) AddPrice(at time.Time, isin, tidm string, price float64) {
	if at.After(b.asOf) {
		b.asOf = at
	}
	b.tidms[isin] = tidm
	b.prices[tidm] = price
}

// AsOf is the latest timestamp of any price this book has absorbed.
func (b *PriceBook) AsOf() time.Time { return b.asOf }

// LookupTIDM returns the TIDM registered against isin.
func (b *PriceBook) LookupTIDM(isin string) (string, error) {
	tidm, ok := b.tidms[isin]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownISIN, isin)
	}
	return tidm, nil
}

// GetPrice returns the clean price recorded for tidm.
func (b *PriceBook) GetPrice(tidm string) (float64, error) {
	price, ok := b.prices[tidm]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTIDM, tidm)
	}
	return price, nil
}

// Price is a convenience combining LookupTIDM and GetPrice.
func (b *PriceBook) Price(isin string) (float64, error) {
	tidm, err := b.LookupTIDM(isin)
	if err != nil {
		return 0, err
	}
	return b.GetPrice(tidm)
}

// closeOfBusiness is the LSE's daily close time, used to timestamp
// closing-price CSV rows that only carry a date.
// https://www.lsegissuerservices.com/spark/lse-whitepaper-trading-insights
var closeOfBusiness = mustLoadLondon()

func mustLoadLondon() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadClosingPrices reads a "date,isin,tidm,price" CSV snapshot (the
// format published at lategenxer.github.io/finance/gilts-closing-prices.csv)
// into a new PriceBook.
func LoadClosingPrices(r io.Reader) (*PriceBook, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return NewPriceBook(), nil
	}

	header := rows[0]
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}

	book := NewPriceBook()
	for _, row := range rows[1:] {
		date, err := time.Parse("2006-01-02", row[col["date"]])
		if err != nil {
			return nil, err
		}
		at := time.Date(date.Year(), date.Month(), date.Day(), 16, 35, 0, 0, closeOfBusiness)
		price, err := strconv.ParseFloat(row[col["price"]], 64)
		if err != nil {
			return nil, err
		}
		book.AddPrice(at, row[col["isin"]], row[col["tidm"]], price)
	}
	return book, nil
}

// LiveQuote is one instrument's entry in the LSE price-explorer live feed
// response, decoded with goccy/go-json for the tight hot-path JSON
// decoding the rest of this codebase's AMBIENT STACK standardises on.
type LiveQuote struct {
	ISIN      string   `json:"isin"`
	TIDM      string   `json:"tidm"`
	Currency  string   `json:"currency"`
	MidPrice  *float64 `json:"midPrice"`
	LastPrice *float64 `json:"lastprice"`
	Bid       *float64 `json:"bid"`
	Offer     *float64 `json:"offer"`
}

// QuoteKind selects which field of a LiveQuote LoadLiveQuotes reads.
type QuoteKind string

const (
	MidPrice  QuoteKind = "midPrice"
	LastPrice QuoteKind = "lastprice"
	Bid       QuoteKind = "bid"
	Offer     QuoteKind = "offer"
)

// LoadLiveQuotes builds a PriceBook from a decoded live LSE feed, applying
// the same fallback the original implementation uses: if the requested
// quote kind is unavailable (low trading volume), fall back to lastprice;
// if that's unavailable too (the gilt has gone ex-dividend since its last
// trade), the quote is skipped rather than erroring, since the caller is
// expected to be iterating a whole market snapshot where some instruments
// are temporarily unquotable.
func LoadLiveQuotes(r io.Reader, at time.Time, kind QuoteKind) (*PriceBook, error) {
	var quotes []LiveQuote
	if err := json.NewDecoder(r).Decode(&quotes); err != nil {
		return nil, err
	}

	// LSE prices are delayed 15 minutes.
	at = at.Add(-15 * time.Minute)

	book := NewPriceBook()
	for _, q := range quotes {
		price := selectPrice(q, kind)
		if price == nil {
			price = q.LastPrice
		}
		if price == nil {
			continue
		}
		book.AddPrice(at, q.ISIN, q.TIDM, *price)
	}
	return book, nil
}

func selectPrice(q LiveQuote, kind QuoteKind) *float64 {
	switch kind {
	case MidPrice:
		return q.MidPrice
	case LastPrice:
		return q.LastPrice
	case Bid:
		return q.Bid
	case Offer:
		return q.Offer
	default:
		return nil
	}
}
