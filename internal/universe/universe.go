// Package universe builds the set of currently issued UK gilts from the
// DMO's instrument feed, and filters it down to the tradable set a
// settlement date can actually transact against.
package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/gocolly/colly/v2"

	"benritz/gilts/internal/calendar"
	"benritz/gilts/internal/gilts"
	"benritz/gilts/internal/rpi"
)

var (
	ErrMissingField   = fmt.Errorf("universe: missing required field")
	ErrUnknownType    = fmt.Errorf("universe: unrecognised instrument type")
	ErrInvalidDate    = fmt.Errorf("universe: invalid date")
	ErrMissingRPI     = fmt.Errorf("universe: missing RPI series for index-linked gilt")
)

// rawEntry mirrors one <INSTRUMENT_LIST> child in DMO's D1A export, or one
// row of the CSV fallback — a flat string-keyed attribute bag, same shape
// the original Python implementation works with (ElementTree's
// node.attrib / csv.DictReader).
type rawEntry map[string]string

// Issued is the universe of gilts DMO currently lists as in issue, indexed
// by maturity and by ISIN.
type Issued struct {
	all        []gilts.Instrument
	byISIN     map[string]gilts.Instrument
	closeDate  time.Time
	rawEntries []rawEntry
	rpiSeries  *rpi.Series
}

// ParseXML builds an Issued universe from a DMO D1A-shaped XML export at
// path (see https://www.dmo.gov.uk/data/XmlDataReport?reportCode=D1A).
// Parsing is performed with colly's XML element walker rather than a plain
// decoder, matching the library already used elsewhere in this codebase
// for structured-markup extraction; colly treats a file:// URL as a local
// read rather than an HTTP fetch.
func ParseXML(path string, rpiSeries *rpi.Series, holidays *calendar.Holidays) (*Issued, error) {
	var entries []rawEntry

	c := colly.NewCollector()
	c.OnXML("/*/*", func(e *colly.XMLElement) {
		node, ok := e.DOM.(*xmlquery.Node)
		if !ok {
			return
		}
		entry := rawEntry{}
		for _, attr := range node.Attr {
			entry[attr.Name.Local] = attr.Value
		}
		entries = append(entries, entry)
	})

	abs, err := filepathAbs(path)
	if err != nil {
		return nil, err
	}
	if err := c.Visit("file://" + abs); err != nil {
		return nil, err
	}

	return newIssued(entries, rpiSeries, holidays)
}

// ParseCSV builds an Issued universe from the CSV export of the same DMO
// feed, the format `Issued.from_csv` in the original implementation
// supports as a download-free fallback for tests and offline use.
// Index-linked rows are distinguished from Conventional ones by the
// presence of a non-empty BASE_RPI_87 column, exactly as the original
// does.
func ParseCSV(r io.Reader, rpiSeries *rpi.Series, holidays *calendar.Holidays) (*Issued, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrMissingField
	}

	header := rows[0]
	var entries []rawEntry
	for _, row := range rows[1:] {
		entry := rawEntry{}
		for i, col := range header {
			if i < len(row) {
				entry[col] = row[i]
			}
		}
		if entry["BASE_RPI_87"] != "" {
			issueDate, err := parseDate(entry["FIRST_ISSUE_DATE"])
			if err != nil {
				return nil, err
			}
			lag := 8
			if !issueDate.Before(gilts.ThreeMonthLagCutover) {
				lag = 3
			}
			entry["INSTRUMENT_TYPE"] = fmt.Sprintf("Index-linked %d months", lag)
		} else {
			entry["INSTRUMENT_TYPE"] = "Conventional"
		}
		entries = append(entries, entry)
	}

	return newIssued(entries, rpiSeries, holidays)
}

func newIssued(entries []rawEntry, rpiSeries *rpi.Series, holidays *calendar.Holidays) (*Issued, error) {
	u := &Issued{
		byISIN:     map[string]gilts.Instrument{},
		rawEntries: entries,
		rpiSeries:  rpiSeries,
	}

	for _, entry := range entries {
		g, closeDate, err := buildInstrument(entry, rpiSeries, holidays)
		if err != nil {
			return nil, err
		}
		u.all = append(u.all, g)
		u.byISIN[g.ISIN()] = g
		if !closeDate.IsZero() && closeDate.After(u.closeDate) {
			u.closeDate = closeDate
		}
	}

	sort.Slice(u.all, func(i, j int) bool {
		return u.all[i].Maturity().Before(u.all[j].Maturity())
	})

	return u, nil
}

func buildInstrument(entry rawEntry, rpiSeries *rpi.Series, holidays *calendar.Holidays) (gilts.Instrument, time.Time, error) {
	name, ok := entry["INSTRUMENT_NAME"]
	if !ok {
		return nil, time.Time{}, ErrMissingField
	}
	isin, ok := entry["ISIN_CODE"]
	if !ok {
		return nil, time.Time{}, ErrMissingField
	}
	coupon, err := ParseCoupon(name)
	if err != nil {
		return nil, time.Time{}, err
	}
	maturity, err := parseDate(entry["REDEMPTION_DATE"])
	if err != nil {
		return nil, time.Time{}, err
	}
	issueDate, err := parseDate(entry["FIRST_ISSUE_DATE"])
	if err != nil {
		return nil, time.Time{}, err
	}

	var closeDate time.Time
	if s, ok := entry["CLOSE_OF_BUSINESS_DATE"]; ok && s != "" {
		closeDate, err = parseDate(s)
		if err != nil {
			return nil, time.Time{}, err
		}
	}

	kind := trimTrailingSpace(entry["INSTRUMENT_TYPE"])
	switch {
	case kind == "Conventional":
		g, err := gilts.NewGilt(name, isin, coupon, maturity, issueDate, holidays)
		return g, closeDate, err
	case kind == "Index-linked 3 months" || kind == "Index-linked 8 months":
		if rpiSeries == nil {
			return nil, time.Time{}, ErrMissingRPI
		}
		baseRPI, err := parseFloat(entry["BASE_RPI_87"])
		if err != nil {
			return nil, time.Time{}, err
		}
		g, err := gilts.NewIndexLinkedGilt(name, isin, coupon, maturity, issueDate, baseRPI, rpiSeries, holidays)
		return g, closeDate, err
	default:
		return nil, time.Time{}, ErrUnknownType
	}
}

// InstrumentKind selects which types Filter returns.
type InstrumentKind int

const (
	// All returns both Conventional and Index-linked gilts.
	All InstrumentKind = iota
	Conventional
	IndexLinked
)

// Filter returns the gilts of the requested kind that can still be
// transacted for settlement on settlementDate: trades cannot settle after
// the final ex-dividend period, per DMO's own rule, so a gilt whose final
// ex-dividend date has passed is excluded. An index-linked gilt whose
// redemption index ratio is already fixed (i.e. its RPI reference month is
// already published) is reclassified as Conventional for filtering
// purposes, since at that point its remaining cash flows are no longer
// contingent on projected RPI.
func (u *Issued) Filter(kind InstrumentKind, settlementDate time.Time) []gilts.Instrument {
	var out []gilts.Instrument
	for _, g := range u.all {
		if !settlementDate.IsZero() {
			xd := g.ExDividendDate(g.Maturity())
			if settlementDate.After(xd) {
				continue
			}
		}

		effectiveKind := Conventional
		if _, ok := g.(*gilts.IndexLinkedGilt); ok {
			effectiveKind = IndexLinked
			if il, ok := g.(*gilts.IndexLinkedGilt); ok && il.IsRedemptionFixed() {
				effectiveKind = Conventional
			}
		}

		if kind != All && kind != effectiveKind {
			continue
		}
		out = append(out, g)
	}
	return out
}

// Lookup returns the instrument with the given ISIN, or nil.
func (u *Issued) Lookup(isin string) gilts.Instrument {
	return u.byISIN[isin]
}

// All returns every gilt in the universe, sorted by maturity.
func (u *Issued) All() []gilts.Instrument {
	out := make([]gilts.Instrument, len(u.all))
	copy(out, u.all)
	return out
}

// RPISeries returns the RPI series the universe was built against, shared
// read-only with index-linked cash-flow and ladder computations.
func (u *Issued) RPISeries() *rpi.Series {
	return u.rpiSeries
}

// CloseDate is the latest CLOSE_OF_BUSINESS_DATE carried by the feed, used
// as the as-of reference for yield curve construction when no explicit
// date is supplied.
func (u *Issued) CloseDate() time.Time {
	return u.closeDate
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

func parseFloat(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%g", &f)
	if err != nil {
		return 0, err
	}
	return f, nil
}

func trimTrailingSpace(s string) string {
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

func filepathAbs(path string) (string, error) {
	if path == "" {
		return "", ErrMissingField
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if path[0] == '/' {
		return path, nil
	}
	return wd + "/" + path, nil
}
