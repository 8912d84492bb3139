// Package curve builds a maturity/yield curve from a priced gilt
// universe, the simpler of the engine's two reporting surfaces (see
// internal/ladder for the other, bond-ladder construction).
package curve

import (
	"sort"
	"time"

	"benritz/gilts/internal/calendar"
	"benritz/gilts/internal/gilts"
	"benritz/gilts/internal/prices"
	"benritz/gilts/internal/universe"
)

// Point is one gilt's position on the curve.
type Point struct {
	TIDM          string
	Instrument    string
	MaturityYears float64
	Yield         float64
}

// Build iterates the gilts of kind tradeable as of the next business day
// after closeDate, pricing each from book and computing its yield —
// nominal for Conventional, real (stripped of assumed inflation) for
// Index-linked.
func Build(issued *universe.Issued, book *prices.PriceBook, kind universe.InstrumentKind, holidays *calendar.Holidays, closeDate time.Time) ([]Point, error) {
	settlementDate := holidays.NextBusinessDay(closeDate)

	var points []Point
	for _, g := range issued.Filter(kind, settlementDate) {
		tidm, err := book.LookupTIDM(g.ISIN())
		if err != nil {
			continue
		}
		cleanPrice, err := book.GetPrice(tidm)
		if err != nil {
			return nil, err
		}

		dirtyPrice, err := g.DirtyPrice(cleanPrice, settlementDate)
		if err != nil {
			return nil, err
		}
		ytm, err := g.YTM(dirtyPrice, settlementDate)
		if err != nil {
			return nil, err
		}

		if _, ok := g.(*gilts.IndexLinkedGilt); ok {
			ytm = (1.0+ytm)/(1.0+gilts.DefaultInflationRate) - 1.0
		}

		years := g.Maturity().Sub(issued.CloseDate()).Hours() / 24 / 365.25

		points = append(points, Point{
			TIDM:          tidm,
			Instrument:    g.ShortName(),
			MaturityYears: years,
			Yield:         ytm,
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].MaturityYears < points[j].MaturityYears })
	return points, nil
}
